package list

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func testConflicts() []domain.PendingConflict {
	now := time.Now()
	return []domain.PendingConflict{
		{ID: "c1", Entity: domain.EntityDailyLog, RecordID: "log-1",
			Detection: domain.TimestampConflict, Reason: "user guided", DetectedAt: now.Add(-time.Hour)},
		{ID: "c2", Entity: domain.EntitySettings, RecordID: "u1",
			Detection: domain.NearSimultaneousEdit, DetectedAt: now.Add(-time.Minute)},
		{ID: "c3", Entity: domain.EntityUser, RecordID: "u1",
			Detection: domain.SimultaneousEdit, DetectedAt: now},
	}
}

func TestNewConflictList(t *testing.T) {
	l := NewConflictList(nil)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
	assert.Equal(t, 0, l.Count())
	assert.Nil(t, l.SelectedConflict())
	assert.Nil(t, l.Init())
}

func TestConflictList_ViewEmpty(t *testing.T) {
	l := NewConflictList(nil)

	assert.Contains(t, l.View(), "No pending conflicts")
}

func TestConflictList_View(t *testing.T) {
	l := NewConflictList(nil)
	l.SetDimensions(100, 20)
	l.SetConflicts(testConflicts())

	view := l.View()
	assert.Contains(t, view, "Pending conflicts (3)")
	assert.Contains(t, view, "log-1")
	assert.Contains(t, view, "timestamp_conflict")
	assert.Contains(t, view, "user guided")
	assert.Contains(t, view, "1 hour ago")
}

func TestConflictList_Navigation(t *testing.T) {
	l := NewConflictList(nil)
	l.SetConflicts(testConflicts())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected(), "stays at top")

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, l.Selected())

	l.MoveDown()
	assert.Equal(t, 2, l.Selected(), "stays at bottom")
	assert.Equal(t, "c3", l.SelectedConflict().ID)

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, l.Selected())
}

func TestConflictList_SetConflictsClampsSelection(t *testing.T) {
	l := NewConflictList(nil)
	l.SetConflicts(testConflicts())
	l.MoveDown()
	l.MoveDown()

	l.SetConflicts(testConflicts()[:1])
	assert.Equal(t, 0, l.Selected())
	assert.Equal(t, "c1", l.SelectedConflict().ID)

	l.SetConflicts(nil)
	assert.Nil(t, l.SelectedConflict())
}

func TestConflictList_ScrollsToSelection(t *testing.T) {
	l := NewConflictList(nil)
	l.SetDimensions(100, 6) // room for one conflict
	l.SetConflicts(testConflicts())
	l.MoveDown()
	l.MoveDown()

	view := l.View()
	assert.Contains(t, view, "user")
	assert.NotContains(t, view, "log-1")
}
