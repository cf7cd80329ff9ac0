package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
)

// Ensure RemoteStore implements the interfaces.
var (
	_ driven.ChangeFeed                       = (*RemoteStore)(nil)
	_ driven.RemoteStore[domain.User]         = (*Collection[domain.User])(nil)
	_ driven.RemoteStore[domain.DailyLog]     = (*Collection[domain.DailyLog])(nil)
	_ driven.RemoteStore[domain.UserSettings] = (*Collection[domain.UserSettings])(nil)
)

type remoteDoc[T domain.Record] struct {
	record    T
	writtenAt time.Time
}

// Collection holds one entity type of the in-memory remote store.
// Every write is stamped with the store clock for the change feed.
type Collection[T domain.Record] struct {
	mu   sync.RWMutex
	docs map[string]remoteDoc[T]
	now  func() time.Time
}

func newCollection[T domain.Record](now func() time.Time) *Collection[T] {
	return &Collection[T]{docs: make(map[string]remoteDoc[T]), now: now}
}

// Get retrieves a record by ID.
func (c *Collection[T]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.docs[id]
	if !ok {
		var zero T
		return zero, domain.ErrNotFound
	}
	return d.record, nil
}

// Save creates or replaces a record.
func (c *Collection[T]) Save(_ context.Context, record T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[record.RecordID()] = remoteDoc[T]{record: record, writtenAt: c.now()}
	return nil
}

// Update replaces an existing record.
func (c *Collection[T]) Update(_ context.Context, record T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[record.RecordID()]; !ok {
		return domain.ErrNotFound
	}
	c.docs[record.RecordID()] = remoteDoc[T]{record: record, writtenAt: c.now()}
	return nil
}

// Len returns the number of stored records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *Collection[T]) changedSince(userID string, since time.Time) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, d := range c.docs {
		if d.record.OwnerID() == userID && d.writtenAt.After(since) {
			out = append(out, d.record)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(a.RecordID(), b.RecordID())
	})
	return out
}

// RemoteStore is an in-memory remote document store with a change feed.
type RemoteStore struct {
	*SyncMarkerStore
	users    *Collection[domain.User]
	logs     *Collection[domain.DailyLog]
	settings *Collection[domain.UserSettings]
}

// NewRemoteStore creates an empty remote store stamping writes with now.
// A nil now uses time.Now.
func NewRemoteStore(now func() time.Time) *RemoteStore {
	if now == nil {
		now = time.Now
	}
	return &RemoteStore{
		SyncMarkerStore: NewSyncMarkerStore(),
		users:           newCollection[domain.User](now),
		logs:            newCollection[domain.DailyLog](now),
		settings:        newCollection[domain.UserSettings](now),
	}
}

// Users returns the user profile collection.
func (s *RemoteStore) Users() *Collection[domain.User] { return s.users }

// DailyLogs returns the daily log collection.
func (s *RemoteStore) DailyLogs() *Collection[domain.DailyLog] { return s.logs }

// Settings returns the settings collection.
func (s *RemoteStore) Settings() *Collection[domain.UserSettings] { return s.settings }

// GetChangedSince returns the user's records written after since.
func (s *RemoteStore) GetChangedSince(_ context.Context, userID string, since time.Time) (driven.ChangeSet, error) {
	return driven.ChangeSet{
		Users:     s.users.changedSince(userID, since),
		DailyLogs: s.logs.changedSince(userID, since),
		Settings:  s.settings.changedSince(userID, since),
	}, nil
}
