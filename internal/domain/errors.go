package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the stores, the session engine and the CLI.
// Use errors.Is to check: errors.Is(err, domain.ErrNotFound)
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidState  = errors.New("invalid state")
	ErrNothingDue    = errors.New("nothing due for review")
	ErrPersistence   = errors.New("persistence failure")
)

// PersistenceError wraps an error returned by the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes every PersistenceError match ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err as a PersistenceError for op. It returns nil for a
// nil err.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
