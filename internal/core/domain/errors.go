package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// Sync Errors.

	// ErrNetwork indicates a transient failure talking to the remote store.
	// Operations failing with ErrNetwork may be retried.
	ErrNetwork = errors.New("network error")

	// ErrValidation indicates malformed or identity-mismatched input.
	// It signals a caller bug and is never retried.
	ErrValidation = errors.New("validation error")

	// ErrPersistence indicates the local store failed.
	ErrPersistence = errors.New("persistence error")

	// ErrConflictResolution indicates a conflict could not be resolved automatically.
	ErrConflictResolution = errors.New("conflict resolution error")

	// ErrSync indicates the sync pass as a whole could not proceed,
	// for example because the changed-since feed is unreachable.
	ErrSync = errors.New("sync error")

	// ErrConflictNotFound indicates no pending conflict has the given ID.
	ErrConflictNotFound = errors.New("pending conflict not found")
)

// IsRetryable reports whether err is a transient failure worth retrying.
// Validation failures are never retryable, even when wrapped together
// with a network error.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrValidation) {
		return false
	}
	return errors.Is(err, ErrNetwork)
}

// IdentityMismatchError reports that two replicas passed to the resolver
// disagree on a field that identifies the record.
type IdentityMismatchError struct {
	Entity EntityType
	Field  string
	Local  string
	Remote string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("%s %s mismatch: local %q, remote %q", e.Entity, e.Field, e.Local, e.Remote)
}

// Unwrap makes IdentityMismatchError match ErrValidation.
func (e *IdentityMismatchError) Unwrap() error {
	return ErrValidation
}

// RecordError is a non-fatal failure of a single record during a sync pass.
type RecordError struct {
	// Entity is the type of record that failed.
	Entity EntityType

	// RecordID identifies the failing record.
	RecordID string

	// Op is the protocol step that failed (upload, download, resolve).
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.RecordID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
