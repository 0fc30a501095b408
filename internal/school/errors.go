package school

import (
	"errors"
	"fmt"
)

// Operation outcomes callers are expected to branch on. Match with errors.Is.
var (
	ErrValidation         = errors.New("all fields are required")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAlreadyMarked      = errors.New("attendance already marked today")
	ErrInvalidFormat      = errors.New("invalid import format")
	ErrNoData             = errors.New("no data to export")
)

// StorageError reports a persistence failure. Mutations that hit one leave
// the in-memory state untouched.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
