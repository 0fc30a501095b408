package school

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"classlink/internal/storage"
)

// Storage keys: one JSON array per collection plus a single session slot.
// Exported documents use the same key names, so renaming any of these is a
// format break.
const (
	keyStudents   = "students"
	keyTeachers   = "teachers"
	keyAttendance = "attendance"
	keySession    = "currentUser"
	keySound      = "soundEnabled"
)

// Store owns the three collections and the session slot. Collections are
// insertion-ordered slices; uniqueness checks are linear scans, which is fine
// at single-school scale. A single mutex makes every check-then-append
// sequence atomic.
type Store struct {
	kv *storage.KV

	mu         sync.RWMutex
	students   []Student
	teachers   []Teacher
	attendance []AttendanceRecord
	session    *Session

	lastStudentID int64
	lastTeacherID int64

	// now is swappable in tests to simulate days.
	now func() time.Time
}

// New creates a store over kv and loads persisted state. Missing or corrupt
// entries fall back to empty collections; Load never fails the process.
func New(kv *storage.KV) *Store {
	s := &Store{kv: kv, now: time.Now}
	s.load()
	return s
}

func (s *Store) load() {
	loadJSON(s.kv, keyStudents, &s.students)
	loadJSON(s.kv, keyTeachers, &s.teachers)
	loadJSON(s.kv, keyAttendance, &s.attendance)

	var sess Session
	if loadJSON(s.kv, keySession, &sess) {
		s.session = &sess
	}

	for _, st := range s.students {
		if st.ID > s.lastStudentID {
			s.lastStudentID = st.ID
		}
	}
	for _, t := range s.teachers {
		if t.ID > s.lastTeacherID {
			s.lastTeacherID = t.ID
		}
	}
}

// loadJSON reads one key into out. Reports whether a valid value was found;
// corrupt values are logged and treated as absent.
func loadJSON(kv *storage.KV, key string, out any) bool {
	raw, ok, err := kv.Get(key)
	if err != nil {
		log.Printf("load %q failed, starting empty: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("corrupt %q entry ignored: %v", key, err)
		return false
	}
	return true
}

func (s *Store) persist(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := s.kv.Put(key, raw); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Counts returns the sizes of the three collections.
func (s *Store) Counts() (students, teachers, attendance int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students), len(s.teachers), len(s.attendance)
}

// Today returns the current calendar day in ISO form, computed fresh from
// the clock on every call.
func (s *Store) Today() string {
	return s.now().UTC().Format("2006-01-02")
}

// nextID derives an id from the clock (Unix milliseconds, so it doubles as
// the registration timestamp) and bumps it when the clock has not advanced
// past the previous id in the same collection.
func nextID(now time.Time, last *int64) int64 {
	id := now.UnixMilli()
	if id <= *last {
		id = *last + 1
	}
	*last = id
	return id
}

// RegisterStudent validates and appends a new student. Every field is
// required; usernames are unique among students (case-sensitive).
func (s *Store) RegisterStudent(name, username, password, grade, classroom string) (Student, error) {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	grade = strings.TrimSpace(grade)
	classroom = strings.TrimSpace(classroom)

	if name == "" || username == "" || password == "" || grade == "" || classroom == "" {
		return Student{}, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.students {
		if st.Username == username {
			return Student{}, ErrDuplicateUsername
		}
	}

	st := Student{
		ID:        nextID(s.now(), &s.lastStudentID),
		Name:      name,
		Username:  username,
		Password:  password,
		Grade:     grade,
		Classroom: classroom,
	}

	s.students = append(s.students, st)
	if err := s.persist(keyStudents, s.students); err != nil {
		s.students = s.students[:len(s.students)-1]
		return Student{}, err
	}

	s.rotateBackup(KindStudents)
	return st, nil
}

// RegisterTeacher appends a new teacher. Only the duplicate-username rule
// applies; teacher registration has no required-field validation.
func (s *Store) RegisterTeacher(name, username, password, subject string) (Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teachers {
		if t.Username == username {
			return Teacher{}, ErrDuplicateUsername
		}
	}

	t := Teacher{
		ID:       nextID(s.now(), &s.lastTeacherID),
		Name:     name,
		Username: username,
		Password: password,
		Subject:  subject,
	}

	s.teachers = append(s.teachers, t)
	if err := s.persist(keyTeachers, s.teachers); err != nil {
		s.teachers = s.teachers[:len(s.teachers)-1]
		return Teacher{}, err
	}

	s.rotateBackup(KindTeachers)
	return t, nil
}

// Login scans the collection named by role for an exact username/password
// match and installs the session slot on success.
func (s *Store) Login(role, username, password string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess Session
	switch role {
	case RoleStudent:
		for _, st := range s.students {
			if st.Username == username && st.Password == password {
				sess = Session{
					ID: st.ID, Name: st.Name, Username: st.Username, Password: st.Password,
					Grade: st.Grade, Classroom: st.Classroom, Role: RoleStudent,
				}
				break
			}
		}
	case RoleTeacher:
		for _, t := range s.teachers {
			if t.Username == username && t.Password == password {
				sess = Session{
					ID: t.ID, Name: t.Name, Username: t.Username, Password: t.Password,
					Subject: t.Subject, Role: RoleTeacher,
				}
				break
			}
		}
	}
	if sess.Role == "" {
		return Session{}, ErrInvalidCredentials
	}

	prev := s.session
	s.session = &sess
	if err := s.persist(keySession, sess); err != nil {
		s.session = prev
		return Session{}, err
	}
	return sess, nil
}

// Logout clears the session slot unconditionally.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	if err := s.kv.Delete(keySession); err != nil {
		return &StorageError{Op: "delete", Key: keySession, Err: err}
	}
	return nil
}

// CurrentSession returns the active session, nil when logged out.
func (s *Store) CurrentSession() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

// MarkAttendance records status for the student on today's date. The
// student's name, grade and classroom are frozen into the record so later
// roster changes do not rewrite history. At most one record per student per
// day.
func (s *Store) MarkAttendance(studentID int64, status string) (AttendanceRecord, error) {
	if status != StatusPresent && status != StatusAbsent {
		return AttendanceRecord{}, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var student *Student
	for i := range s.students {
		if s.students[i].ID == studentID {
			student = &s.students[i]
			break
		}
	}
	if student == nil {
		return AttendanceRecord{}, ErrValidation
	}

	today := s.Today()
	for _, a := range s.attendance {
		if a.StudentID == studentID && a.Date == today {
			return AttendanceRecord{}, ErrAlreadyMarked
		}
	}

	rec := AttendanceRecord{
		StudentID:   student.ID,
		StudentName: student.Name,
		Grade:       student.Grade,
		Classroom:   student.Classroom,
		Date:        today,
		Status:      status,
		Timestamp:   s.now().UTC(),
	}

	s.attendance = append(s.attendance, rec)
	if err := s.persist(keyAttendance, s.attendance); err != nil {
		s.attendance = s.attendance[:len(s.attendance)-1]
		return AttendanceRecord{}, err
	}

	s.rotateBackup(KindAttendance)
	return rec, nil
}

// SoundEnabled reports the persisted sound preference; defaults to on.
func (s *Store) SoundEnabled() bool {
	var enabled bool
	if !loadJSON(s.kv, keySound, &enabled) {
		return true
	}
	return enabled
}

// SetSoundEnabled persists the sound preference.
func (s *Store) SetSoundEnabled(enabled bool) error {
	return s.persist(keySound, enabled)
}
