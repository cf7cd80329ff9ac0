package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func setupSyncTest(m *mockSyncOrchestrator) func() {
	return withServices(Services{Sync: m})
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync <user-id>", syncCmd.Use)
	assert.Equal(t, "Synchronise a user's records", syncCmd.Short)
	assert.Contains(t, syncCmd.Long, "--upload-only")
}

func TestSyncCmd_FullPass(t *testing.T) {
	m := &mockSyncOrchestrator{
		events: []domain.SyncPhase{domain.PhaseStarting, domain.PhaseUploading, domain.PhaseDownloading, domain.PhaseCompleted},
		result: domain.SyncResult{
			Users:     domain.EntityCounts{Uploaded: 1},
			DailyLogs: domain.EntityCounts{Uploaded: 2, Downloaded: 1500, Merged: 1},
		},
	}
	defer setupSyncTest(m)()

	out, err := executeCommand("sync", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "full", m.lastMode)
	assert.True(t, m.unsubscribed)
	assert.Contains(t, out, "Synchronising user-1 (full, field_level_merge)...")
	assert.Contains(t, out, "  Uploading local changes...")
	assert.Contains(t, out, "  Downloading remote changes...")
	assert.NotContains(t, out, "Sync completed...")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "1,504 operations, 0 record errors")
}

func TestSyncCmd_UploadOnly(t *testing.T) {
	m := &mockSyncOrchestrator{}
	defer setupSyncTest(m)()

	out, err := executeCommand("sync", "user-1", "--upload-only")

	require.NoError(t, err)
	assert.Equal(t, "upload", m.lastMode)
	assert.Contains(t, out, "(upload,")
}

func TestSyncCmd_DownloadOnly(t *testing.T) {
	m := &mockSyncOrchestrator{}
	defer setupSyncTest(m)()

	_, err := executeCommand("sync", "user-1", "--download-only")

	require.NoError(t, err)
	assert.Equal(t, "download", m.lastMode)
}

func TestSyncCmd_PhaseFlagsExclusive(t *testing.T) {
	m := &mockSyncOrchestrator{}
	defer setupSyncTest(m)()

	_, err := executeCommand("sync", "user-1", "--upload-only", "--download-only")

	require.Error(t, err)
	assert.Empty(t, m.lastMode)
}

func TestSyncCmd_StrategyOverride(t *testing.T) {
	m := &mockSyncOrchestrator{strategy: domain.StrategyLastWriteWins}
	defer setupSyncTest(m)()

	_, err := executeCommand("sync", "user-1", "--strategy", "user_guided")

	require.NoError(t, err)
	assert.Equal(t, domain.StrategyUserGuided, m.strategyUsed)
	assert.Equal(t, domain.StrategyLastWriteWins, m.Strategy(), "restored after the pass")
}

func TestSyncCmd_UnknownStrategy(t *testing.T) {
	m := &mockSyncOrchestrator{}
	defer setupSyncTest(m)()

	_, err := executeCommand("sync", "user-1", "--strategy", "coin_flip")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
	assert.Empty(t, m.lastMode)
}

func TestSyncCmd_DeferredConflicts(t *testing.T) {
	m := &mockSyncOrchestrator{result: domain.SyncResult{Settings: domain.EntityCounts{Deferred: 2}}}
	defer setupSyncTest(m)()

	out, err := executeCommand("sync", "user-1")

	require.NoError(t, err)
	assert.Contains(t, out, "2 conflicts awaiting a decision")
	assert.Contains(t, out, "eunio-sync conflicts user-1")
}

func TestSyncCmd_RecordErrors(t *testing.T) {
	m := &mockSyncOrchestrator{result: domain.ErrorResult(domain.RecordError{
		Entity: domain.EntityDailyLog, RecordID: "log-9", Op: "upload", Err: domain.ErrValidation,
	})}
	defer setupSyncTest(m)()

	out, err := executeCommand("sync", "user-1")

	require.NoError(t, err)
	assert.Contains(t, out, "1 record error")
	assert.Contains(t, out, "upload daily_log log-9: validation error")
}

func TestSyncCmd_RequiresUser(t *testing.T) {
	defer setupSyncTest(&mockSyncOrchestrator{})()

	_, err := executeCommand("sync")

	assert.Error(t, err)
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	defer withServices(Services{})()

	_, err := executeCommand("sync", "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestSyncCmd_ServiceError(t *testing.T) {
	m := &mockSyncOrchestrator{err: domain.ErrNetwork}
	defer setupSyncTest(m)()

	_, err := executeCommand("sync", "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestPluralise(t *testing.T) {
	assert.Equal(t, "0 conflicts", pluralise(0, "conflict"))
	assert.Equal(t, "1 conflict", pluralise(1, "conflict"))
	assert.Equal(t, "12,000 operations", pluralise(12000, "operation"))
}
