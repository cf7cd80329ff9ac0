package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
)

// Ensure ConflictStore implements the interface.
var _ driven.ConflictStore = (*ConflictStore)(nil)

// ConflictStore is an in-memory implementation of driven.ConflictStore.
type ConflictStore struct {
	mu        sync.RWMutex
	conflicts map[string]domain.PendingConflict
}

// NewConflictStore creates a new in-memory conflict store.
func NewConflictStore() *ConflictStore {
	return &ConflictStore{
		conflicts: make(map[string]domain.PendingConflict),
	}
}

// Save stores a pending conflict.
func (s *ConflictStore) Save(_ context.Context, c domain.PendingConflict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts[c.ID] = c
	return nil
}

// Get retrieves a pending conflict by ID.
func (s *ConflictStore) Get(_ context.Context, id string) (domain.PendingConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conflicts[id]
	if !ok {
		return domain.PendingConflict{}, domain.ErrConflictNotFound
	}
	return c, nil
}

// FindByRecord returns the pending conflict for a record.
func (s *ConflictStore) FindByRecord(_ context.Context, entity domain.EntityType, recordID string) (domain.PendingConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conflicts {
		if c.Entity == entity && c.RecordID == recordID {
			return c, nil
		}
	}
	return domain.PendingConflict{}, domain.ErrConflictNotFound
}

// List returns the user's pending conflicts, oldest first.
func (s *ConflictStore) List(_ context.Context, userID string) ([]domain.PendingConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PendingConflict
	for _, c := range s.conflicts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.PendingConflict) int {
		return a.DetectedAt.Compare(b.DetectedAt)
	})
	return out, nil
}

// Delete removes a pending conflict.
func (s *ConflictStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conflicts, id)
	return nil
}
