package school

import (
	"encoding/json"
	"log"
)

// Snapshot intervals per collection, sized to the expected write rate of
// each kind so backups stay infrequent.
const (
	backupIntervalStudents   = 10
	backupIntervalTeachers   = 5
	backupIntervalAttendance = 50
)

// backupRetention is how many dated snapshot keys survive per kind.
const backupRetention = 5

// rotateBackup runs after every successful mutation to kind's collection. A
// snapshot is only written when the collection size is an exact multiple of
// the kind's interval; it is keyed by calendar day, so a second snapshot the
// same day overwrites the first. Afterwards only the most recently dated
// keys are kept. Snapshot failures never fail the mutation that triggered
// them. Callers hold the store lock.
func (s *Store) rotateBackup(kind string) {
	var size int
	var interval int
	var data any

	switch kind {
	case KindStudents:
		size, interval, data = len(s.students), backupIntervalStudents, s.students
	case KindTeachers:
		size, interval, data = len(s.teachers), backupIntervalTeachers, s.teachers
	case KindAttendance:
		size, interval, data = len(s.attendance), backupIntervalAttendance, s.attendance
	default:
		return
	}

	if size == 0 || size%interval != 0 {
		return
	}

	key := "backup_" + kind + "_" + s.Today()
	if err := s.persist(key, Backup{Type: kind, Data: data, Timestamp: s.now().UTC()}); err != nil {
		log.Printf("backup %s failed: %v", key, err)
		return
	}

	keys, err := s.kv.Keys("backup_" + kind)
	if err != nil {
		log.Printf("backup scan for %s failed: %v", kind, err)
		return
	}
	// ISO dates make lexicographic order chronological.
	for len(keys) > backupRetention {
		if err := s.kv.Delete(keys[0]); err != nil {
			log.Printf("backup prune %s failed: %v", keys[0], err)
			return
		}
		keys = keys[1:]
	}
}

// BackupInfo describes one stored snapshot.
type BackupInfo struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Records   int    `json:"records"`
}

// ListBackups returns the stored snapshots, oldest first. Snapshots are a
// maintenance surface only; nothing ever reads them back into the live
// collections automatically.
func (s *Store) ListBackups() ([]BackupInfo, error) {
	keys, err := s.kv.Keys("backup_")
	if err != nil {
		return nil, &StorageError{Op: "scan", Key: "backup_", Err: err}
	}

	var infos []BackupInfo
	for _, key := range keys {
		raw, ok, err := s.kv.Get(key)
		if err != nil || !ok {
			continue
		}
		var b struct {
			Type      string          `json:"type"`
			Data      json.RawMessage `json:"data"`
			Timestamp string          `json:"timestamp"`
		}
		if err := json.Unmarshal(raw, &b); err != nil {
			continue
		}
		var records []json.RawMessage
		_ = json.Unmarshal(b.Data, &records)
		infos = append(infos, BackupInfo{
			Key:       key,
			Type:      b.Type,
			Timestamp: b.Timestamp,
			Records:   len(records),
		})
	}
	return infos, nil
}
