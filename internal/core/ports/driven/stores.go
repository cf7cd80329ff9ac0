package driven

import (
	"context"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// LocalStore persists one entity type on the device.
//
// Save and Update mark the record pending; MarkSynced clears the flag.
// Every method is atomic per record.
type LocalStore[T domain.Record] interface {
	// GetByID retrieves a record. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (T, error)

	// Save inserts or replaces a record and marks it pending.
	Save(ctx context.Context, record T) error

	// Update replaces an existing record and marks it pending.
	// Returns domain.ErrNotFound if absent.
	Update(ctx context.Context, record T) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// GetPendingSync returns the user's records modified since their last sync.
	GetPendingSync(ctx context.Context, userID string) ([]T, error)

	// MarkSynced clears the pending flag of a record.
	MarkSynced(ctx context.Context, id string) error
}

// DailyLogLocalStore adds calendar lookups to the daily log store.
type DailyLogLocalStore interface {
	LocalStore[domain.DailyLog]

	// GetByDate returns the user's log for a day, or domain.ErrNotFound.
	GetByDate(ctx context.Context, userID string, day domain.EpochDay) (domain.DailyLog, error)

	// GetInRange returns the user's logs with start <= Date <= end, ordered by date.
	GetInRange(ctx context.Context, userID string, start, end domain.EpochDay) ([]domain.DailyLog, error)
}

// RemoteStore persists one entity type in the remote document store.
// Transport failures must wrap domain.ErrNetwork so callers can retry.
type RemoteStore[T domain.Record] interface {
	// Get retrieves a record. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (T, error)

	// Save creates a record.
	Save(ctx context.Context, record T) error

	// Update replaces an existing record.
	Update(ctx context.Context, record T) error
}

// ChangeSet holds the remote records changed since a point in time.
type ChangeSet struct {
	Users     []domain.User
	DailyLogs []domain.DailyLog
	Settings  []domain.UserSettings
}

// Len returns the total number of changed records.
func (c ChangeSet) Len() int {
	return len(c.Users) + len(c.DailyLogs) + len(c.Settings)
}

// ChangeFeed is the remote store's incremental query surface.
type ChangeFeed interface {
	// GetChangedSince returns the user's records written to the remote
	// store after since. A zero since returns everything.
	GetChangedSince(ctx context.Context, userID string, since time.Time) (ChangeSet, error)

	// GetLastSyncTimestamp returns the user's sync marker,
	// or the zero time if the user has never synced.
	GetLastSyncTimestamp(ctx context.Context, userID string) (time.Time, error)

	// UpdateLastSyncTimestamp advances the user's sync marker.
	UpdateLastSyncTimestamp(ctx context.Context, userID string, at time.Time) error
}

// ConflictStore persists conflicts awaiting a manual decision.
type ConflictStore interface {
	// Save stores a pending conflict, replacing any with the same ID.
	Save(ctx context.Context, conflict domain.PendingConflict) error

	// Get retrieves a conflict. Returns domain.ErrConflictNotFound if absent.
	Get(ctx context.Context, id string) (domain.PendingConflict, error)

	// FindByRecord returns the pending conflict for a record,
	// or domain.ErrConflictNotFound.
	FindByRecord(ctx context.Context, entity domain.EntityType, recordID string) (domain.PendingConflict, error)

	// List returns the user's pending conflicts, oldest first.
	List(ctx context.Context, userID string) ([]domain.PendingConflict, error)

	// Delete removes a conflict. Deleting a missing conflict is not an error.
	Delete(ctx context.Context, id string) error
}

// ChangeListener is told when sync writes a record into the local store,
// so read caches can drop their copy.
type ChangeListener interface {
	RecordChanged(record domain.Record)
}
