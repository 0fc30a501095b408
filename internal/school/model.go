package school

import "time"

// Roles carried by a session.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Attendance statuses. A student with no record for a date is reported as
// StatusNotMarked by queries; it is never stored.
const (
	StatusPresent   = "present"
	StatusAbsent    = "absent"
	StatusNotMarked = "not-marked"
)

// Collection kinds, also used as storage keys and backup key segments.
const (
	KindStudents   = "students"
	KindTeachers   = "teachers"
	KindAttendance = "attendance"
)

// ExportVersion tags export documents.
const ExportVersion = "1.0"

// Student is a registered student. The id doubles as the registration
// instant (Unix milliseconds). Records are append-only.
type Student struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Grade     string `json:"grade"`
	Classroom string `json:"classroom"`
}

// Teacher is a registered teacher. IDs are unique within teachers only;
// students and teachers number independently.
type Teacher struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Subject  string `json:"subject"`
}

// AttendanceRecord is one student's mark for one calendar day. StudentName,
// Grade and Classroom are copied from the student at marking time so later
// roster changes do not rewrite history.
type AttendanceRecord struct {
	StudentID   int64     `json:"studentId"`
	StudentName string    `json:"studentName"`
	Grade       string    `json:"grade"`
	Classroom   string    `json:"classroom"`
	Date        string    `json:"date"` // ISO calendar day, string-comparable
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Session is the single current-user slot: a copy of the logged-in student or
// teacher plus a role tag. Grade/Classroom are set for students, Subject for
// teachers.
type Session struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Grade     string `json:"grade,omitempty"`
	Classroom string `json:"classroom,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Role      string `json:"role"`
}

// StudentStatus pairs a roster entry with its resolved status for one date.
type StudentStatus struct {
	Student Student `json:"student"`
	Status  string  `json:"status"`
}

// TodayStats is the present/absent breakdown for a single day.
type TodayStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// Statistics is the system-wide aggregate view.
type Statistics struct {
	TotalStudents          int            `json:"totalStudents"`
	TotalTeachers          int            `json:"totalTeachers"`
	TotalAttendanceRecords int            `json:"totalAttendanceRecords"`
	GradeStats             map[string]int `json:"gradeStats"`
	SubjectStats           map[string]int `json:"subjectStats"`
	TodayStats             TodayStats     `json:"todayStats"`
}

// ExportDocument is the portable full-store dump. Import accepts any document
// of this shape and ignores unknown fields.
type ExportDocument struct {
	Students   []Student          `json:"students"`
	Teachers   []Teacher          `json:"teachers"`
	Attendance []AttendanceRecord `json:"attendance"`
	ExportDate time.Time          `json:"exportDate"`
	Version    string             `json:"version"`
}

// Backup is a point-in-time snapshot of one collection, stored under a
// backup_<kind>_<date> key. Snapshots are never read back automatically.
type Backup struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
