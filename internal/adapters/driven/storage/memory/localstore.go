package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
)

// Ensure the local stores implement the interfaces.
var (
	_ driven.LocalStore[domain.User]         = (*LocalStore[domain.User])(nil)
	_ driven.LocalStore[domain.UserSettings] = (*LocalStore[domain.UserSettings])(nil)
	_ driven.DailyLogLocalStore              = (*DailyLogStore)(nil)
)

// LocalStore is an in-memory implementation of driven.LocalStore.
type LocalStore[T domain.Record] struct {
	mu      sync.RWMutex
	records map[string]T
	pending map[string]bool
}

// NewLocalStore creates a new in-memory local store.
func NewLocalStore[T domain.Record]() *LocalStore[T] {
	return &LocalStore[T]{
		records: make(map[string]T),
		pending: make(map[string]bool),
	}
}

// GetByID retrieves a record by ID.
func (s *LocalStore[T]) GetByID(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		var zero T
		return zero, domain.ErrNotFound
	}
	return r, nil
}

// Save inserts or replaces a record and marks it pending.
func (s *LocalStore[T]) Save(_ context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.RecordID()] = record
	s.pending[record.RecordID()] = true
	return nil
}

// Update replaces an existing record and marks it pending.
func (s *LocalStore[T]) Update(_ context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.RecordID()]; !ok {
		return domain.ErrNotFound
	}
	s.records[record.RecordID()] = record
	s.pending[record.RecordID()] = true
	return nil
}

// Delete removes a record.
func (s *LocalStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	delete(s.pending, id)
	return nil
}

// GetPendingSync returns the user's pending records ordered by ID.
func (s *LocalStore[T]) GetPendingSync(_ context.Context, userID string) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for id := range s.pending {
		if r := s.records[id]; r.OwnerID() == userID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(a.RecordID(), b.RecordID())
	})
	return out, nil
}

// MarkSynced clears the pending flag of a record.
func (s *LocalStore[T]) MarkSynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.pending, id)
	return nil
}

// IsPending reports whether a record awaits upload.
func (s *LocalStore[T]) IsPending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[id]
}

// Len returns the number of stored records.
func (s *LocalStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// all returns every record, for the range queries of wrapping stores.
func (s *LocalStore[T]) all() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

// DailyLogStore is an in-memory driven.DailyLogLocalStore.
type DailyLogStore struct {
	*LocalStore[domain.DailyLog]
}

// NewDailyLogStore creates a new in-memory daily log store.
func NewDailyLogStore() *DailyLogStore {
	return &DailyLogStore{LocalStore: NewLocalStore[domain.DailyLog]()}
}

// GetByDate returns the user's log for a day.
func (s *DailyLogStore) GetByDate(_ context.Context, userID string, day domain.EpochDay) (domain.DailyLog, error) {
	for _, l := range s.all() {
		if l.UserID == userID && l.Date == day {
			return l, nil
		}
	}
	return domain.DailyLog{}, domain.ErrNotFound
}

// GetInRange returns the user's logs within [start, end] ordered by date.
func (s *DailyLogStore) GetInRange(_ context.Context, userID string, start, end domain.EpochDay) ([]domain.DailyLog, error) {
	var out []domain.DailyLog
	for _, l := range s.all() {
		if l.UserID == userID && l.Date >= start && l.Date <= end {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b domain.DailyLog) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return out, nil
}
