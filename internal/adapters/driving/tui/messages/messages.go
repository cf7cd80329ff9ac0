// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDashboard shows sync state and live progress.
	ViewDashboard ViewType = iota
	// ViewConflicts lists pending conflicts awaiting a decision.
	ViewConflicts
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewConflicts:
		return "conflicts"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// StatusReceived carries one event from the sync status stream.
type StatusReceived struct {
	Status domain.SyncStatus
}

// StatusClosed signals the status stream was closed.
type StatusClosed struct{}

// SyncFinished carries the outcome of a sync pass started by the TUI.
type SyncFinished struct {
	Result domain.SyncResult
	Err    error
}

// StateLoaded carries a sync state snapshot.
type StateLoaded struct {
	State domain.SyncState
	Err   error
}

// ConflictsLoaded carries the user's pending conflicts.
type ConflictsLoaded struct {
	Conflicts []domain.PendingConflict
	Err       error
}

// ConflictResolved signals a decision was applied.
type ConflictResolved struct {
	ConflictID string
	Decision   domain.Decision
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
