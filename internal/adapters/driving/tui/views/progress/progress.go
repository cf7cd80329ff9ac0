// Package progress provides a live view of a running sync pass.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/messages"
	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/styles"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// RunFunc starts the sync pass the view reports on.
type RunFunc func(ctx context.Context) (domain.SyncResult, error)

// View renders the phase stream of one sync pass behind a spinner.
// A standalone view quits the program once the pass finishes.
type View struct {
	styles     *styles.Styles
	spinner    spinner.Model
	status     <-chan domain.SyncStatus
	run        RunFunc
	ctx        context.Context
	cancel     context.CancelFunc
	standalone bool

	phase   domain.SyncPhase
	history []domain.SyncStatus
	started time.Time
	done    bool
	result  domain.SyncResult
	err     error
}

// NewView creates a progress view embedded in a larger program.
func NewView(ctx context.Context, s *styles.Styles, status <-chan domain.SyncStatus, run RunFunc) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &View{
		styles:  s,
		spinner: sp,
		status:  status,
		run:     run,
		ctx:     ctx,
		cancel:  cancel,
		phase:   domain.PhaseStarting,
		started: time.Now(),
	}
}

// NewStandalone creates a progress view that is the whole program.
func NewStandalone(ctx context.Context, s *styles.Styles, status <-chan domain.SyncStatus, run RunFunc) *View {
	v := NewView(ctx, s, status, run)
	v.standalone = true
	return v
}

// Init starts the spinner, the status listener and the pass itself.
func (v *View) Init() tea.Cmd {
	return tea.Batch(
		v.spinner.Tick,
		WaitForStatus(v.status),
		v.RunPass(),
	)
}

// RunPass returns the command that runs the pass and reports SyncFinished.
func (v *View) RunPass() tea.Cmd {
	run := v.run
	ctx := v.ctx
	return func() tea.Msg {
		if run == nil {
			return messages.SyncFinished{Err: domain.ErrInvalidInput}
		}
		result, err := run(ctx)
		return messages.SyncFinished{Result: result, Err: err}
	}
}

// WaitForStatus returns a command reading the next event from status.
func WaitForStatus(status <-chan domain.SyncStatus) tea.Cmd {
	if status == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-status
		if !ok {
			return messages.StatusClosed{}
		}
		return messages.StatusReceived{Status: s}
	}
}

// Update implements tea.Model.
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			v.cancel()
			if v.standalone {
				return v, tea.Quit
			}
		}
		return v, nil

	case messages.StatusReceived:
		v.phase = msg.Status.Phase
		v.history = append(v.history, msg.Status)
		return v, WaitForStatus(v.status)

	case messages.StatusClosed:
		return v, nil

	case messages.SyncFinished:
		v.done = true
		v.result = msg.Result
		v.err = msg.Err
		v.cancel()
		if msg.Err != nil {
			v.phase = domain.PhaseError
		} else {
			v.phase = domain.PhaseCompleted
		}
		if v.standalone {
			return v, tea.Quit
		}
		return v, nil

	case spinner.TickMsg:
		if v.done {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	return v, nil
}

// View implements tea.Model.
func (v *View) View() string {
	var b strings.Builder

	for _, s := range v.history {
		if s.Phase.IsTerminal() {
			continue
		}
		b.WriteString(v.styles.Muted.Render("  ✓ " + s.Phase.Description()))
		b.WriteString("\n")
	}

	if !v.done {
		b.WriteString(v.spinner.View())
		b.WriteString(" ")
		b.WriteString(v.styles.Phase(v.phase).Render(v.phase.Description() + "..."))
		b.WriteString("\n")
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("✗ %s: %v", domain.PhaseError.Description(), v.err)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(v.styles.Success.Render(fmt.Sprintf("✓ %s in %s",
		domain.PhaseCompleted.Description(), time.Since(v.started).Round(time.Millisecond))))
	b.WriteString("\n")
	return b.String()
}

// Cancel stops the pass if it is still running.
func (v *View) Cancel() {
	v.cancel()
}

// Done reports whether the pass has finished.
func (v *View) Done() bool {
	return v.done
}

// Phase returns the most recent phase observed.
func (v *View) Phase() domain.SyncPhase {
	return v.phase
}

// History returns every status event received so far.
func (v *View) History() []domain.SyncStatus {
	return v.history
}

// Result returns the pass result once Done.
func (v *View) Result() domain.SyncResult {
	return v.result
}

// Err returns the pass error once Done.
func (v *View) Err() error {
	return v.err
}
