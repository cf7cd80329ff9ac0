package driving

import (
	"context"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// SyncOrchestrator reconciles a user's local and remote records.
//
// At most one pass runs per user at a time. A request arriving while an
// identical pass is running waits for it and shares its result.
type SyncOrchestrator interface {
	// SyncUserData runs a full pass: upload, download, finalize.
	SyncUserData(ctx context.Context, userID string) (domain.SyncResult, error)

	// SyncPendingChanges runs the upload phase only.
	SyncPendingChanges(ctx context.Context, userID string) (domain.SyncResult, error)

	// DownloadRemoteChanges runs the download and finalize phases only.
	DownloadRemoteChanges(ctx context.Context, userID string) (domain.SyncResult, error)

	// ObserveSyncStatus streams the user's status events in order.
	// The returned function unsubscribes and closes the channel.
	ObserveSyncStatus(userID string) (<-chan domain.SyncStatus, func())

	// Status returns a snapshot of the user's sync activity.
	Status(ctx context.Context, userID string) (domain.SyncState, error)

	// Strategy returns the conflict strategy used by new passes.
	Strategy() domain.Strategy

	// SetStrategy changes the conflict strategy used by new passes.
	SetStrategy(strategy domain.Strategy) error

	// SetNearWindow changes the near-simultaneous grace window.
	SetNearWindow(window time.Duration) error
}

// ConflictService manages conflicts awaiting a human decision.
type ConflictService interface {
	// PendingConflicts lists the user's unresolved conflicts.
	PendingConflicts(ctx context.Context, userID string) ([]domain.PendingConflict, error)

	// ConfirmResolution applies a decision to both stores and
	// removes the pending conflict.
	ConfirmResolution(ctx context.Context, conflictID string, decision domain.Decision) error

	// ExpireConflicts resolves the user's conflicts that waited longer than
	// the manual timeout with last-write-wins. Returns the number resolved.
	ExpireConflicts(ctx context.Context, userID string) (int, error)
}
