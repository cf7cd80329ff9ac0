// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/styles"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// ConflictList displays pending conflicts in a navigable list.
type ConflictList struct {
	conflicts []domain.PendingConflict
	selected  int
	styles    *styles.Styles
	width     int
	height    int
}

// NewConflictList creates a new conflict list component.
func NewConflictList(s *styles.Styles) *ConflictList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ConflictList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the conflict list.
func (l *ConflictList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *ConflictList) Update(msg tea.Msg) (*ConflictList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the conflict list.
func (l *ConflictList) View() string {
	if len(l.conflicts) == 0 {
		return l.styles.Muted.Render("No pending conflicts")
	}

	lines := make([]string, 0, len(l.conflicts)*2+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Pending conflicts (%d)", len(l.conflicts))), "")

	// Each conflict takes two lines.
	visible := max(1, (l.height-4)/2)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.conflicts))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderConflict(i, l.conflicts[i]))
	}

	return strings.Join(lines, "\n")
}

func (l *ConflictList) renderConflict(index int, c domain.PendingConflict) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	label := fmt.Sprintf("%s%s %s", indicator, c.Entity, c.RecordID)
	maxLen := max(10, l.width-30)
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}

	detection := l.styles.Detection(c.Detection).Render(c.Detection.String())

	var title string
	if index == l.selected {
		title = l.styles.Selected.Render(fmt.Sprintf("%-*s", maxLen, label)) + " " + detection
	} else {
		title = l.styles.Normal.Render(fmt.Sprintf("%-*s", maxLen, label)) + " " + detection
	}

	detail := "    detected " + humanize.Time(c.DetectedAt)
	if c.Reason != "" {
		detail += ": " + c.Reason
	}
	return title + "\n" + l.styles.Muted.Render(detail)
}

// SetConflicts replaces the list contents, keeping the selection in range.
func (l *ConflictList) SetConflicts(conflicts []domain.PendingConflict) {
	l.conflicts = conflicts
	if l.selected >= len(conflicts) {
		l.selected = max(0, len(conflicts)-1)
	}
}

// Conflicts returns the current conflicts.
func (l *ConflictList) Conflicts() []domain.PendingConflict {
	return l.conflicts
}

// Selected returns the index of the selected conflict.
func (l *ConflictList) Selected() int {
	return l.selected
}

// SelectedConflict returns the currently selected conflict, or nil if none.
func (l *ConflictList) SelectedConflict() *domain.PendingConflict {
	if l.selected < 0 || l.selected >= len(l.conflicts) {
		return nil
	}
	return &l.conflicts[l.selected]
}

// MoveUp moves selection up.
func (l *ConflictList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ConflictList) MoveDown() {
	if l.selected < len(l.conflicts)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ConflictList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of conflicts.
func (l *ConflictList) Count() int {
	return len(l.conflicts)
}
