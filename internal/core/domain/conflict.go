package domain

import (
	"encoding/json"
	"time"
)

// ConflictDetection classifies a pair of replicas of the same record.
type ConflictDetection string

// Detection results.
const (
	// NoConflict means the payloads are equal, whatever the timestamps.
	NoConflict ConflictDetection = "no_conflict"

	// SimultaneousEdit means the payloads differ but the timestamps are equal.
	SimultaneousEdit ConflictDetection = "simultaneous_edit"

	// NearSimultaneousEdit means the timestamps differ by no more than the grace window.
	NearSimultaneousEdit ConflictDetection = "near_simultaneous_edit"

	// TimestampConflict means the timestamps are further apart than the grace window.
	TimestampConflict ConflictDetection = "timestamp_conflict"
)

// String returns the string representation.
func (d ConflictDetection) String() string {
	return string(d)
}

// Strategy selects how a detected conflict is acted on.
type Strategy string

// Resolution strategies.
const (
	// StrategyLastWriteWins keeps the replica with the later timestamp.
	StrategyLastWriteWins Strategy = "last_write_wins"

	// StrategyFieldLevelMerge merges replicas field by field.
	StrategyFieldLevelMerge Strategy = "field_level_merge"

	// StrategyUserGuided defers every conflict to a human decision.
	StrategyUserGuided Strategy = "user_guided"
)

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyLastWriteWins, StrategyFieldLevelMerge, StrategyUserGuided:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Strategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s Strategy) Description() string {
	switch s {
	case StrategyLastWriteWins:
		return "Last write wins (newest replica replaces the other)"
	case StrategyFieldLevelMerge:
		return "Field-level merge (combine both replicas)"
	case StrategyUserGuided:
		return "User guided (ask before changing either replica)"
	default:
		return "Unknown"
	}
}

// ResolutionKind tags the variants of Resolution.
type ResolutionKind string

// Resolution variants.
const (
	// ResolutionUseRemote writes the remote replica to the local store.
	ResolutionUseRemote ResolutionKind = "use_remote"

	// ResolutionUseLocal writes the local replica back to the remote store.
	ResolutionUseLocal ResolutionKind = "use_local"

	// ResolutionMerge writes a merged record to both stores.
	ResolutionMerge ResolutionKind = "merge"

	// ResolutionManual writes nothing and waits for a human decision.
	ResolutionManual ResolutionKind = "manual"
)

// String returns the string representation.
func (k ResolutionKind) String() string {
	return string(k)
}

// Resolution is the outcome of reconciling one record.
type Resolution[T any] struct {
	// Kind selects the variant.
	Kind ResolutionKind

	// Record is the authoritative record for UseRemote, UseLocal and Merge.
	// It is the zero value for Manual.
	Record T

	// Local and Remote are the input snapshots.
	Local  T
	Remote T

	// Detection is the detector's classification of the pair.
	Detection ConflictDetection

	// Strategy is the strategy that produced the resolution.
	Strategy Strategy

	// Automatic is false when a human decision is still required.
	Automatic bool

	// Reason explains why a merge could not be completed automatically.
	Reason string
}

// Decision is a human answer to a pending conflict.
type Decision string

// Decisions.
const (
	DecisionKeepLocal  Decision = "keep_local"
	DecisionKeepRemote Decision = "keep_remote"
	DecisionMerge      Decision = "merge"
)

// IsValid returns true if the decision is recognised.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionKeepLocal, DecisionKeepRemote, DecisionMerge:
		return true
	default:
		return false
	}
}

// PendingConflict is a conflict awaiting a human decision.
// Snapshots are stored encoded so one store serves every entity type.
type PendingConflict struct {
	ID         string
	UserID     string
	Entity     EntityType
	RecordID   string
	Detection  ConflictDetection
	Local      json.RawMessage
	Remote     json.RawMessage
	Reason     string
	DetectedAt time.Time
}

// Expired reports whether the conflict has waited longer than timeout.
// A zero timeout never expires.
func (c PendingConflict) Expired(now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(c.DetectedAt) > timeout
}
