package school

import "sort"

// AvailableClassrooms returns the distinct classroom labels among students in
// grade, sorted ascending. No matching students means an empty result.
func (s *Store) AvailableClassrooms(grade string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var classrooms []string
	for _, st := range s.students {
		if st.Grade == grade && !seen[st.Classroom] {
			seen[st.Classroom] = true
			classrooms = append(classrooms, st.Classroom)
		}
	}
	sort.Strings(classrooms)
	return classrooms
}

// ClassAttendance resolves a status for every student in (grade, classroom)
// on date, in roster order. The date and the denormalized grade/classroom on
// the records only pre-filter the attendance collection; the status lookup
// itself is keyed by student id.
func (s *Store) ClassAttendance(grade, classroom, date string) []StudentStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statusByID := make(map[int64]string)
	for _, a := range s.attendance {
		if a.Grade == grade && a.Classroom == classroom && a.Date == date {
			statusByID[a.StudentID] = a.Status
		}
	}

	var result []StudentStatus
	for _, st := range s.students {
		if st.Grade != grade || st.Classroom != classroom {
			continue
		}
		status, ok := statusByID[st.ID]
		if !ok {
			status = StatusNotMarked
		}
		result = append(result, StudentStatus{Student: st, Status: status})
	}
	return result
}

// StudentHistory returns the student's attendance records, most recent date
// first. Same-day records keep their relative order.
func (s *Store) StudentHistory(studentID int64) []AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []AttendanceRecord
	for _, a := range s.attendance {
		if a.StudentID == studentID {
			history = append(history, a)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date > history[j].Date
	})
	return history
}

// TodayRecord returns the student's record for today, nil when not marked.
func (s *Store) TodayRecord(studentID int64) *AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.Today()
	for _, a := range s.attendance {
		if a.StudentID == studentID && a.Date == today {
			rec := a
			return &rec
		}
	}
	return nil
}

// Statistics aggregates collection totals, a grade histogram over students,
// a subject histogram over teachers and today's attendance breakdown. Today
// is computed once per call.
func (s *Store) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		TotalStudents:          len(s.students),
		TotalTeachers:          len(s.teachers),
		TotalAttendanceRecords: len(s.attendance),
		GradeStats:             make(map[string]int),
		SubjectStats:           make(map[string]int),
	}

	for _, st := range s.students {
		stats.GradeStats[st.Grade]++
	}
	for _, t := range s.teachers {
		stats.SubjectStats[t.Subject]++
	}

	today := s.Today()
	for _, a := range s.attendance {
		if a.Date != today {
			continue
		}
		stats.TodayStats.Total++
		switch a.Status {
		case StatusPresent:
			stats.TodayStats.Present++
		case StatusAbsent:
			stats.TodayStats.Absent++
		}
	}
	return stats
}
