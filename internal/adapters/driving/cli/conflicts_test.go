package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func TestConflictsCmd_Empty(t *testing.T) {
	defer withServices(Services{Conflicts: &mockConflictService{}})()

	out, err := executeCommand("conflicts", "user-1")

	require.NoError(t, err)
	assert.Contains(t, out, "No pending conflicts.")
}

func TestConflictsCmd_Lists(t *testing.T) {
	svc := &mockConflictService{conflicts: []domain.PendingConflict{{
		ID:         "c-1",
		Entity:     domain.EntityDailyLog,
		RecordID:   "log-1",
		Detection:  domain.NearSimultaneousEdit,
		Reason:     "strategy is user_guided",
		DetectedAt: time.Now().Add(-10 * time.Minute),
	}}}
	defer withServices(Services{Conflicts: svc})()

	out, err := executeCommand("conflicts", "user-1")

	require.NoError(t, err)
	assert.Contains(t, out, "1 conflict awaiting a decision")
	assert.Contains(t, out, "c-1")
	assert.Contains(t, out, "daily_log log-1")
	assert.Contains(t, out, "near_simultaneous_edit")
	assert.Contains(t, out, "10 minutes ago")
	assert.Contains(t, out, "strategy is user_guided")
}

func TestConflictsCmd_Errors(t *testing.T) {
	defer withServices(Services{Conflicts: &mockConflictService{err: domain.ErrPersistence}})()

	_, err := executeCommand("conflicts", "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	SetServices(Services{})
	_, err = executeCommand("conflicts", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict service not configured")
}

func TestResolveCmd(t *testing.T) {
	tests := []struct {
		choice string
		want   domain.Decision
	}{
		{choice: "keep_local", want: domain.DecisionKeepLocal},
		{choice: "keep_remote", want: domain.DecisionKeepRemote},
		{choice: "MERGE", want: domain.DecisionMerge},
	}

	for _, tt := range tests {
		t.Run(tt.choice, func(t *testing.T) {
			svc := &mockConflictService{}
			defer withServices(Services{Conflicts: svc})()

			out, err := executeCommand("resolve", "c-1", tt.choice)

			require.NoError(t, err)
			assert.Equal(t, "c-1", svc.lastID)
			assert.Equal(t, tt.want, svc.lastDecision)
			assert.Contains(t, out, "Conflict c-1 resolved: "+string(tt.want))
		})
	}
}

func TestResolveCmd_InvalidChoice(t *testing.T) {
	svc := &mockConflictService{}
	defer withServices(Services{Conflicts: svc})()

	_, err := executeCommand("resolve", "c-1", "both")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown choice")
	assert.Empty(t, svc.lastID)
}

func TestResolveCmd_NotFound(t *testing.T) {
	defer withServices(Services{Conflicts: &mockConflictService{err: domain.ErrConflictNotFound}})()

	_, err := executeCommand("resolve", "c-404", "merge")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflictNotFound)
}
