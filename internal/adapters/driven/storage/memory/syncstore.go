package memory

import (
	"context"
	"sync"
	"time"
)

// SyncMarkerStore keeps each user's last-sync marker in memory.
type SyncMarkerStore struct {
	mu      sync.RWMutex
	markers map[string]time.Time
}

// NewSyncMarkerStore creates a new in-memory marker store.
func NewSyncMarkerStore() *SyncMarkerStore {
	return &SyncMarkerStore{
		markers: make(map[string]time.Time),
	}
}

// GetLastSyncTimestamp returns the user's marker, or the zero time.
func (s *SyncMarkerStore) GetLastSyncTimestamp(_ context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markers[userID], nil
}

// UpdateLastSyncTimestamp stores the user's marker.
func (s *SyncMarkerStore) UpdateLastSyncTimestamp(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[userID] = at
	return nil
}
