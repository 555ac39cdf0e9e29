package db

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned by single-task reads. Updates and deletes never
// return it; they report zero affected rows instead.
var ErrTaskNotFound = errors.New("task not found")

// InitializationError means the storage directory or database file could not
// be prepared. It is fatal at startup.
type InitializationError struct {
	Path string
	Err  error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize database %s: %v", e.Path, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// LockError means the store's connection could not be acquired, either
// because the store was closed or because an earlier operation panicked
// while holding it.
type LockError struct {
	Op     string
	Reason string
}

func (e *LockError) Error() string {
	return fmt.Sprintf("%s: database lock error: %s", e.Op, e.Reason)
}

// PersistenceError wraps a statement rejected by the storage engine.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DecodeError means a stored timestamp could not be parsed back.
type DecodeError struct {
	TaskID string
	Column string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode task %s: column %s has invalid timestamp %q: %v", e.TaskID, e.Column, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
