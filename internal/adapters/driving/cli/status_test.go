package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func TestStatusCmd_NeverSynced(t *testing.T) {
	defer withServices(Services{Sync: &mockSyncOrchestrator{}})()

	out, err := executeCommand("status", "user-1")

	require.NoError(t, err)
	assert.Contains(t, out, "User: user-1")
	assert.Contains(t, out, "Strategy: field_level_merge")
	assert.Contains(t, out, "State: never synced")
}

func TestStatusCmd_Running(t *testing.T) {
	m := &mockSyncOrchestrator{state: domain.SyncState{Running: true, Phase: domain.PhaseUploading}}
	defer withServices(Services{Sync: m})()

	out, err := executeCommand("status", "user-1")

	require.NoError(t, err)
	assert.Contains(t, out, "State: running (Uploading local changes)")
}

func TestStatusCmd_LastResult(t *testing.T) {
	m := &mockSyncOrchestrator{state: domain.SyncState{
		Phase:         domain.PhaseError,
		LastCompleted: time.Now().Add(-3 * time.Hour),
		LastError:     "network error: remote unavailable",
		LastResult:    &domain.SyncResult{Users: domain.EntityCounts{Downloaded: 1}},
	}}
	defer withServices(Services{Sync: m})()

	out, err := executeCommand("status", "user-1")

	require.NoError(t, err)
	assert.Contains(t, out, "State: idle (Sync failed)")
	assert.Contains(t, out, "Last completed: 3 hours ago")
	assert.Contains(t, out, "Last error: network error: remote unavailable")
	assert.Contains(t, out, "1 operation, 0 record errors")
}

func TestStatusCmd_Errors(t *testing.T) {
	defer withServices(Services{Sync: &mockSyncOrchestrator{err: domain.ErrPersistence}})()

	_, err := executeCommand("status", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get status")

	SetServices(Services{})
	_, err = executeCommand("status", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}
