package mcp

import (
	"context"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// mockSyncOrchestrator is a mock implementation of driving.SyncOrchestrator.
type mockSyncOrchestrator struct {
	result   domain.SyncResult
	state    domain.SyncState
	err      error
	lastMode string
	lastUser string
}

func (m *mockSyncOrchestrator) SyncUserData(_ context.Context, userID string) (domain.SyncResult, error) {
	m.lastMode, m.lastUser = "full", userID
	return m.result, m.err
}

func (m *mockSyncOrchestrator) SyncPendingChanges(_ context.Context, userID string) (domain.SyncResult, error) {
	m.lastMode, m.lastUser = "upload", userID
	return m.result, m.err
}

func (m *mockSyncOrchestrator) DownloadRemoteChanges(_ context.Context, userID string) (domain.SyncResult, error) {
	m.lastMode, m.lastUser = "download", userID
	return m.result, m.err
}

func (m *mockSyncOrchestrator) ObserveSyncStatus(_ string) (<-chan domain.SyncStatus, func()) {
	ch := make(chan domain.SyncStatus)
	return ch, func() { close(ch) }
}

func (m *mockSyncOrchestrator) Status(_ context.Context, _ string) (domain.SyncState, error) {
	return m.state, m.err
}

func (m *mockSyncOrchestrator) Strategy() domain.Strategy {
	return domain.StrategyFieldLevelMerge
}

func (m *mockSyncOrchestrator) SetStrategy(_ domain.Strategy) error {
	return nil
}

func (m *mockSyncOrchestrator) SetNearWindow(_ time.Duration) error {
	return nil
}

// mockConflictService is a mock implementation of driving.ConflictService.
type mockConflictService struct {
	conflicts    []domain.PendingConflict
	err          error
	lastID       string
	lastDecision domain.Decision
}

func (m *mockConflictService) PendingConflicts(_ context.Context, _ string) ([]domain.PendingConflict, error) {
	return m.conflicts, m.err
}

func (m *mockConflictService) ConfirmResolution(_ context.Context, id string, decision domain.Decision) error {
	m.lastID, m.lastDecision = id, decision
	return m.err
}

func (m *mockConflictService) ExpireConflicts(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

// mockCache is a mock implementation of driving.CacheControl.
type mockCache struct {
	name  string
	stats domain.CacheStats
}

func (m *mockCache) Name() string             { return m.name }
func (m *mockCache) InvalidateAll()           {}
func (m *mockCache) Stats() domain.CacheStats { return m.stats }

func newTestServer(sync *mockSyncOrchestrator, conflicts *mockConflictService) *Server {
	if sync == nil {
		sync = &mockSyncOrchestrator{}
	}
	if conflicts == nil {
		conflicts = &mockConflictService{}
	}
	server, err := NewServer(&Ports{Sync: sync, Conflicts: conflicts})
	if err != nil {
		panic(err)
	}
	return server
}
