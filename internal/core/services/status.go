package services

import (
	"context"
	"sync"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// statusBuffer is the per-subscriber channel capacity.
const statusBuffer = 32

// statusHub fans sync status events out to per-user subscribers.
// Events for a user are published from a single pass at a time, so
// every subscriber sees them in order.
type statusHub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan domain.SyncStatus
}

func newStatusHub() *statusHub {
	return &statusHub{subs: make(map[string]map[int]chan domain.SyncStatus)}
}

func (h *statusHub) subscribe(userID string) (<-chan domain.SyncStatus, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan domain.SyncStatus, statusBuffer)
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan domain.SyncStatus)
	}
	h.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
		})
	}
}

// publish never blocks. A subscriber that is not keeping up loses
// progress events; a terminal event instead evicts the oldest buffered
// one so every observer learns how the pass ended.
func (h *statusHub) publish(s domain.SyncStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[s.UserID] {
		for !h.offer(ch, s) {
			logger.Warn("dropping sync status for slow observer", logger.User(s.UserID), "phase", s.Phase)
			if !s.Phase.IsTerminal() {
				break
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (h *statusHub) offer(ch chan domain.SyncStatus, s domain.SyncStatus) bool {
	select {
	case ch <- s:
		return true
	default:
		return false
	}
}

// userLocks serialises passes per user.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]chan struct{})}
}

// acquire blocks until the user's lock is free or ctx is done.
func (l *userLocks) acquire(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = make(chan struct{}, 1)
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
