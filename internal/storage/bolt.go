package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.etcd.io/bbolt"
)

// bucketName is the single flat namespace all state lives in. Callers manage
// their own key prefixes on top of it.
var bucketName = []byte("classlink")

// KV is a bbolt-backed key-value store holding UTF-8 JSON values.
type KV struct {
	db *bbolt.DB
}

// Open opens (or creates) the store file and ensures the bucket exists.
func Open(path string) (*KV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &KV{db: db}, nil
}

// Close closes the underlying file.
func (s *KV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the store file.
func (s *KV) Path() string { return s.db.Path() }

// Size returns the store file size in bytes, 0 when unknown.
func (s *KV) Size() int64 {
	info, err := os.Stat(s.db.Path())
	if err != nil {
		return 0
	}
	return info.Size()
}

// Get returns the value for key; ok is false when the key is absent.
func (s *KV) Get(key string) (val []byte, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		ok = true
		val = append([]byte(nil), v...)
		return nil
	})
	return val, ok, err
}

// Put stores value under key, replacing any previous value.
func (s *KV) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
}

// PutAll stores every pair in a single transaction, so either all writes
// land or none do.
func (s *KV) PutAll(pairs map[string][]byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for key, value := range pairs {
			if err := b.Put([]byte(key), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes key; deleting an absent key is not an error.
func (s *KV) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

// Keys returns all keys starting with prefix, sorted ascending.
func (s *KV) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
