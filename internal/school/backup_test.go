package school

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func backupKeys(t *testing.T, s *Store, kind string) []string {
	t.Helper()
	keys, err := s.kv.Keys("backup_" + kind)
	if err != nil {
		t.Fatalf("scan backups: %v", err)
	}
	return keys
}

func TestBackupWrittenAtInterval(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	setClock(s, day)

	for i := 0; i < 9; i++ {
		mustRegisterStudent(t, s, "S", fmt.Sprintf("u%d", i), "5", "Ա")
	}
	if keys := backupKeys(t, s, KindStudents); len(keys) != 0 {
		t.Fatalf("backup written before interval: %v", keys)
	}

	// the 10th registration writes exactly one snapshot keyed to the day
	mustRegisterStudent(t, s, "S", "u9", "5", "Ա")
	keys := backupKeys(t, s, KindStudents)
	if len(keys) != 1 || keys[0] != "backup_students_2026-03-02" {
		t.Fatalf("backup keys after 10th = %v", keys)
	}

	// 11th through 19th write nothing
	for i := 10; i < 19; i++ {
		mustRegisterStudent(t, s, "S", fmt.Sprintf("u%d", i), "5", "Ա")
		if keys := backupKeys(t, s, KindStudents); len(keys) != 1 {
			t.Fatalf("unexpected backup after registration %d: %v", i+1, keys)
		}
	}

	// the 20th on a later day adds a second dated snapshot
	setClock(s, day.Add(24*time.Hour))
	mustRegisterStudent(t, s, "S", "u19", "5", "Ա")
	keys = backupKeys(t, s, KindStudents)
	if len(keys) != 2 || keys[1] != "backup_students_2026-03-03" {
		t.Fatalf("backup keys after 20th = %v", keys)
	}
}

func TestBackupSameDayOverwrites(t *testing.T) {
	s := newTestStore(t)
	setClock(s, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	// teachers snapshot every 5: the 5th and 10th land on the same day,
	// so the second write replaces the first under the same key
	for i := 0; i < 10; i++ {
		if _, err := s.RegisterTeacher("T", fmt.Sprintf("t%d", i), "pw", "Քիմիա"); err != nil {
			t.Fatalf("teacher %d: %v", i, err)
		}
	}

	keys := backupKeys(t, s, KindTeachers)
	if len(keys) != 1 {
		t.Fatalf("backup keys = %v, want single overwritten key", keys)
	}

	raw, ok, err := s.kv.Get(keys[0])
	if err != nil || !ok {
		t.Fatalf("read backup: %v", err)
	}
	var b struct {
		Type string            `json:"type"`
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if b.Type != KindTeachers || len(b.Data) != 10 {
		t.Fatalf("snapshot = type %s with %d records, want teachers/10", b.Type, len(b.Data))
	}
}

func TestBackupRetentionKeepsFive(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// one snapshot per day for 7 days (every 5th teacher)
	for d := 0; d < 7; d++ {
		setClock(s, day.Add(time.Duration(d)*24*time.Hour))
		for i := 0; i < 5; i++ {
			username := fmt.Sprintf("t%d-%d", d, i)
			if _, err := s.RegisterTeacher("T", username, "pw", "Քիմիա"); err != nil {
				t.Fatalf("teacher %s: %v", username, err)
			}
		}
	}

	keys := backupKeys(t, s, KindTeachers)
	if len(keys) != 5 {
		t.Fatalf("retained %d backups, want 5: %v", len(keys), keys)
	}
	// the two oldest days were pruned
	if keys[0] != "backup_teachers_2026-03-04" || keys[4] != "backup_teachers_2026-03-08" {
		t.Fatalf("unexpected retained range: %v", keys)
	}
}

func TestBackupKindsDoNotInterfere(t *testing.T) {
	s := newTestStore(t)
	setClock(s, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		if _, err := s.RegisterTeacher("T", fmt.Sprintf("t%d", i), "pw", "Քիմիա"); err != nil {
			t.Fatalf("teacher: %v", err)
		}
	}
	for i := 0; i < 10; i++ {
		mustRegisterStudent(t, s, "S", fmt.Sprintf("u%d", i), "5", "Ա")
	}

	if keys := backupKeys(t, s, KindTeachers); len(keys) != 1 {
		t.Fatalf("teacher backups = %v", keys)
	}
	if keys := backupKeys(t, s, KindStudents); len(keys) != 1 {
		t.Fatalf("student backups = %v", keys)
	}
	if keys := backupKeys(t, s, KindAttendance); len(keys) != 0 {
		t.Fatalf("attendance backups = %v", keys)
	}
}

func TestListBackups(t *testing.T) {
	s := newTestStore(t)
	setClock(s, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 5; i++ {
		if _, err := s.RegisterTeacher("T", fmt.Sprintf("t%d", i), "pw", "Քիմիա"); err != nil {
			t.Fatalf("teacher: %v", err)
		}
	}

	infos, err := s.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("backup infos = %+v", infos)
	}
	info := infos[0]
	if info.Key != "backup_teachers_2026-03-02" || info.Type != KindTeachers || info.Records != 5 {
		t.Fatalf("unexpected info: %+v", info)
	}
}
