package school

import (
	"encoding/json"
	"strings"
	"time"
)

// CSV header rows, in the school's language.
const (
	csvHeaderAttendance = "Ամսաթիվ,Աշակերտի անուն,Դասարան,Դասասենյակ,Կարգավիճակ,Ժամ"
	csvHeaderStudents   = "Անուն,Օգտատիրոջ անուն,Դասարան,Դասասենյակ,Գրանցման ամսաթիվ"
	csvHeaderTeachers   = "Անուն,Օգտատիրոջ անուն,Առարկա,Գրանցման ամսաթիվ"

	csvPresent = "Ներկա"
	csvAbsent  = "Բացակա"
)

// ExportAll produces the full-store dump: all three collections plus an
// export timestamp and version tag. No filtering, no redaction.
func (s *Store) ExportAll() ExportDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// empty collections export as [] rather than null
	doc := ExportDocument{
		Students:   make([]Student, len(s.students)),
		Teachers:   make([]Teacher, len(s.teachers)),
		Attendance: make([]AttendanceRecord, len(s.attendance)),
		ExportDate: s.now().UTC(),
		Version:    ExportVersion,
	}
	copy(doc.Students, s.students)
	copy(doc.Teachers, s.teachers)
	copy(doc.Attendance, s.attendance)
	return doc
}

// ExportFilename names the JSON dump for download.
func (s *Store) ExportFilename() string {
	return "classlink-backup-" + s.Today() + ".json"
}

// ExportCSV renders one collection as comma-separated text: a kind-specific
// header row and one fully quoted row per record. An empty collection is
// ErrNoData, not an empty file.
func (s *Store) ExportCSV(kind string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	switch kind {
	case KindStudents:
		if len(s.students) == 0 {
			return "", ErrNoData
		}
		b.WriteString(csvHeaderStudents + "\n")
		for _, st := range s.students {
			writeCSVRow(&b, st.Name, st.Username, st.Grade, st.Classroom, csvDate(time.UnixMilli(st.ID)))
		}
	case KindTeachers:
		if len(s.teachers) == 0 {
			return "", ErrNoData
		}
		b.WriteString(csvHeaderTeachers + "\n")
		for _, t := range s.teachers {
			writeCSVRow(&b, t.Name, t.Username, t.Subject, csvDate(time.UnixMilli(t.ID)))
		}
	case KindAttendance:
		if len(s.attendance) == 0 {
			return "", ErrNoData
		}
		b.WriteString(csvHeaderAttendance + "\n")
		for _, a := range s.attendance {
			status := csvAbsent
			if a.Status == StatusPresent {
				status = csvPresent
			}
			// imported records can carry dates that never came from the
			// store's clock; emit those verbatim
			date := a.Date
			if day, err := time.Parse("2006-01-02", a.Date); err == nil {
				date = csvDate(day)
			}
			writeCSVRow(&b, date, a.StudentName, a.Grade, a.Classroom, status, a.Timestamp.Format("15:04:05"))
		}
	default:
		return "", ErrNoData
	}
	return b.String(), nil
}

// CSVFilename names the per-kind CSV download.
func (s *Store) CSVFilename(kind string) string {
	switch kind {
	case KindStudents:
		return "students-list-" + s.Today() + ".csv"
	case KindTeachers:
		return "teachers-list-" + s.Today() + ".csv"
	default:
		return "attendance-report-" + s.Today() + ".csv"
	}
}

// csvDate renders a day the way the school reads it (dd.mm.yyyy).
func csvDate(t time.Time) string {
	return t.UTC().Format("02.01.2006")
}

// writeCSVRow writes one row with every field double-quoted so embedded
// commas survive; embedded quotes are doubled.
func writeCSVRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

// importDocument distinguishes absent collections from present-but-empty
// ones; unknown fields in the input are ignored.
type importDocument struct {
	Students   *[]Student          `json:"students"`
	Teachers   *[]Teacher          `json:"teachers"`
	Attendance *[]AttendanceRecord `json:"attendance"`
}

// ImportResult reports how many incoming records survived the merge.
type ImportResult struct {
	Students   int `json:"students"`
	Teachers   int `json:"teachers"`
	Attendance int `json:"attendance"`
}

// ImportAll merges an exported document into the store. The merge is a set
// union on natural keys (student/teacher username, attendance studentId+date)
// and local data wins on every conflict. All three collections must be
// present or nothing is applied.
func (s *Store) ImportAll(doc []byte) (ImportResult, error) {
	var in importDocument
	if err := json.Unmarshal(doc, &in); err != nil {
		return ImportResult{}, ErrInvalidFormat
	}
	if in.Students == nil || in.Teachers == nil || in.Attendance == nil {
		return ImportResult{}, ErrInvalidFormat
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	students := append([]Student(nil), s.students...)
	teachers := append([]Teacher(nil), s.teachers...)
	attendance := append([]AttendanceRecord(nil), s.attendance...)

	var res ImportResult

	usernames := make(map[string]bool, len(students))
	for _, st := range students {
		usernames[st.Username] = true
	}
	for _, st := range *in.Students {
		if usernames[st.Username] {
			continue
		}
		usernames[st.Username] = true
		students = append(students, st)
		res.Students++
	}

	teacherNames := make(map[string]bool, len(teachers))
	for _, t := range teachers {
		teacherNames[t.Username] = true
	}
	for _, t := range *in.Teachers {
		if teacherNames[t.Username] {
			continue
		}
		teacherNames[t.Username] = true
		teachers = append(teachers, t)
		res.Teachers++
	}

	type markKey struct {
		id   int64
		date string
	}
	marks := make(map[markKey]bool, len(attendance))
	for _, a := range attendance {
		marks[markKey{a.StudentID, a.Date}] = true
	}
	for _, a := range *in.Attendance {
		k := markKey{a.StudentID, a.Date}
		if marks[k] {
			continue
		}
		marks[k] = true
		attendance = append(attendance, a)
		res.Attendance++
	}

	// all three keys land in one transaction: a failed import must leave
	// storage exactly as it was, including across a restart
	pairs := make(map[string][]byte, 3)
	for key, v := range map[string]any{
		keyStudents:   students,
		keyTeachers:   teachers,
		keyAttendance: attendance,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return ImportResult{}, &StorageError{Op: "encode", Key: key, Err: err}
		}
		pairs[key] = raw
	}
	if err := s.kv.PutAll(pairs); err != nil {
		return ImportResult{}, &StorageError{Op: "put", Key: "import", Err: err}
	}

	s.students = students
	s.teachers = teachers
	s.attendance = attendance
	for _, st := range students {
		if st.ID > s.lastStudentID {
			s.lastStudentID = st.ID
		}
	}
	for _, t := range teachers {
		if t.ID > s.lastTeacherID {
			s.lastTeacherID = t.ID
		}
	}
	return res, nil
}
