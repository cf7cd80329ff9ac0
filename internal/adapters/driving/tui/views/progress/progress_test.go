package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/messages"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func TestNewView(t *testing.T) {
	v := NewView(context.Background(), nil, nil, nil)

	require.NotNil(t, v)
	assert.Equal(t, domain.PhaseStarting, v.Phase())
	assert.False(t, v.Done())
	assert.NotNil(t, v.Init())
	assert.Contains(t, v.View(), "Starting sync...")
}

func TestWaitForStatus(t *testing.T) {
	assert.Nil(t, WaitForStatus(nil))

	ch := make(chan domain.SyncStatus, 1)
	ch <- domain.SyncStatus{UserID: "u1", Phase: domain.PhaseUploading}

	msg := WaitForStatus(ch)()
	received, ok := msg.(messages.StatusReceived)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseUploading, received.Status.Phase)

	close(ch)
	assert.Equal(t, messages.StatusClosed{}, WaitForStatus(ch)())
}

func TestView_RunPass(t *testing.T) {
	want := domain.SyncResult{Users: domain.EntityCounts{Uploaded: 1}}
	v := NewView(context.Background(), nil, nil, func(ctx context.Context) (domain.SyncResult, error) {
		return want, nil
	})

	msg := v.RunPass()()

	assert.Equal(t, messages.SyncFinished{Result: want}, msg)
}

func TestView_RunPassWithoutFunc(t *testing.T) {
	v := NewView(context.Background(), nil, nil, nil)

	msg, ok := v.RunPass()().(messages.SyncFinished)

	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, domain.ErrInvalidInput)
}

func TestView_TracksPhases(t *testing.T) {
	ch := make(chan domain.SyncStatus, 1)
	v := NewView(context.Background(), nil, ch, nil)

	_, cmd := v.Update(messages.StatusReceived{Status: domain.SyncStatus{Phase: domain.PhaseUploading}})
	assert.NotNil(t, cmd, "keeps listening")
	_, _ = v.Update(messages.StatusReceived{Status: domain.SyncStatus{Phase: domain.PhaseDownloading}})

	assert.Equal(t, domain.PhaseDownloading, v.Phase())
	assert.Len(t, v.History(), 2)

	view := v.View()
	assert.Contains(t, view, "Uploading local changes")
	assert.Contains(t, view, "Downloading remote changes...")
}

func TestView_FinishedEmbedded(t *testing.T) {
	v := NewView(context.Background(), nil, nil, nil)
	result := domain.SyncResult{DailyLogs: domain.EntityCounts{Downloaded: 3}}

	_, cmd := v.Update(messages.SyncFinished{Result: result})

	assert.Nil(t, cmd)
	assert.True(t, v.Done())
	assert.Equal(t, result, v.Result())
	assert.NoError(t, v.Err())
	assert.Equal(t, domain.PhaseCompleted, v.Phase())
	assert.Contains(t, v.View(), "Sync completed")
}

func TestView_FinishedStandaloneQuits(t *testing.T) {
	v := NewStandalone(context.Background(), nil, nil, nil)

	_, cmd := v.Update(messages.SyncFinished{Err: domain.ErrNetwork})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.ErrorIs(t, v.Err(), domain.ErrNetwork)
	assert.Equal(t, domain.PhaseError, v.Phase())
	assert.Contains(t, v.View(), "Sync failed")
}

func TestView_CtrlCCancelsPass(t *testing.T) {
	var passCtx context.Context
	v := NewStandalone(context.Background(), nil, nil, func(ctx context.Context) (domain.SyncResult, error) {
		passCtx = ctx
		return domain.SyncResult{}, ctx.Err()
	})
	_ = v.RunPass()()

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.True(t, errors.Is(passCtx.Err(), context.Canceled))
}

func TestView_SpinnerStopsWhenDone(t *testing.T) {
	v := NewView(context.Background(), nil, nil, nil)

	_, cmd := v.Update(spinner.TickMsg{ID: v.spinner.ID()})
	assert.NotNil(t, cmd)

	_, _ = v.Update(messages.SyncFinished{})
	_, cmd = v.Update(spinner.TickMsg{ID: v.spinner.ID()})
	assert.Nil(t, cmd)
}
