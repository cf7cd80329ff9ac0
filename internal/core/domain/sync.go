package domain

import (
	"fmt"
	"time"
)

// EntityCounts holds the per-entity counters of a sync pass.
type EntityCounts struct {
	// Uploaded counts local records pushed to the remote store.
	Uploaded int

	// Downloaded counts remote records accepted into the local store.
	Downloaded int

	// Merged counts records whose replicas were reconciled by a merge.
	Merged int

	// Deferred counts conflicts left for a manual decision.
	Deferred int
}

// Total returns the sum of all counters.
func (c EntityCounts) Total() int {
	return c.Uploaded + c.Downloaded + c.Merged + c.Deferred
}

func (c EntityCounts) add(o EntityCounts) EntityCounts {
	return EntityCounts{
		Uploaded:   c.Uploaded + o.Uploaded,
		Downloaded: c.Downloaded + o.Downloaded,
		Merged:     c.Merged + o.Merged,
		Deferred:   c.Deferred + o.Deferred,
	}
}

// SyncResult summarises a sync pass. It is a value: combine partial
// results with Combine instead of mutating one in place.
type SyncResult struct {
	Users     EntityCounts
	DailyLogs EntityCounts
	Settings  EntityCounts

	// Errors holds the non-fatal per-record failures of the pass.
	Errors []RecordError
}

// Combine returns the sum of a and b. It is associative, and the
// counters are also commutative; errors keep a-then-b order.
func Combine(a, b SyncResult) SyncResult {
	out := SyncResult{
		Users:     a.Users.add(b.Users),
		DailyLogs: a.DailyLogs.add(b.DailyLogs),
		Settings:  a.Settings.add(b.Settings),
	}
	if n := len(a.Errors) + len(b.Errors); n > 0 {
		out.Errors = make([]RecordError, 0, n)
		out.Errors = append(out.Errors, a.Errors...)
		out.Errors = append(out.Errors, b.Errors...)
	}
	return out
}

// CombineAll folds results left to right with Combine.
func CombineAll(results ...SyncResult) SyncResult {
	var out SyncResult
	for _, r := range results {
		out = Combine(out, r)
	}
	return out
}

// Counts returns the counters for one entity type.
func (r SyncResult) Counts(entity EntityType) EntityCounts {
	switch entity {
	case EntityUser:
		return r.Users
	case EntityDailyLog:
		return r.DailyLogs
	case EntitySettings:
		return r.Settings
	}
	return EntityCounts{}
}

// TotalOperations is the sum of every typed counter.
func (r SyncResult) TotalOperations() int {
	return r.Users.Total() + r.DailyLogs.Total() + r.Settings.Total()
}

// HasErrors reports whether any record failed.
func (r SyncResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// CountResult returns a result holding counts for a single entity type.
func CountResult(entity EntityType, c EntityCounts) SyncResult {
	var r SyncResult
	switch entity {
	case EntityUser:
		r.Users = c
	case EntityDailyLog:
		r.DailyLogs = c
	case EntitySettings:
		r.Settings = c
	}
	return r
}

// ErrorResult returns a result holding a single record error.
func ErrorResult(err RecordError) SyncResult {
	return SyncResult{Errors: []RecordError{err}}
}

// SyncPhase is the stage a sync pass is in.
type SyncPhase string

// Sync phases in protocol order. Completed and Error are terminal.
const (
	PhaseStarting    SyncPhase = "starting"
	PhaseUploading   SyncPhase = "uploading_changes"
	PhaseDownloading SyncPhase = "downloading_changes"
	PhaseCompleted   SyncPhase = "completed"
	PhaseError       SyncPhase = "error"
)

// IsTerminal returns true for Completed and Error.
func (p SyncPhase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// String returns the string representation.
func (p SyncPhase) String() string {
	return string(p)
}

// Description returns a human-readable label for progress output.
func (p SyncPhase) Description() string {
	switch p {
	case PhaseStarting:
		return "Starting sync"
	case PhaseUploading:
		return "Uploading local changes"
	case PhaseDownloading:
		return "Downloading remote changes"
	case PhaseCompleted:
		return "Sync completed"
	case PhaseError:
		return "Sync failed"
	}
	return "Unknown"
}

// SyncStatus is one event of a sync pass's status stream.
// Err is set only when Phase is PhaseError; Result only when terminal.
type SyncStatus struct {
	UserID string
	PassID string
	Phase  SyncPhase
	Err    error
	Result *SyncResult
	At     time.Time
}

func (s SyncStatus) String() string {
	if s.Phase == PhaseError {
		return fmt.Sprintf("%s: %v", s.Phase, s.Err)
	}
	return s.Phase.String()
}

// SyncState is a point-in-time snapshot of a user's sync activity.
type SyncState struct {
	UserID string

	// Running is true while a pass is in flight.
	Running bool

	// Phase is the phase of the current or most recent pass.
	Phase SyncPhase

	// LastResult is the result of the most recent finished pass.
	LastResult *SyncResult

	// LastCompleted is when the most recent pass finished.
	LastCompleted time.Time

	// LastError is the cause of the most recent failed pass.
	LastError string
}
