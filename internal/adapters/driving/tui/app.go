package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/components/list"
	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/components/status"
	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/keymap"
	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/messages"
	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/styles"
	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/views/progress"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// userID is the user whose data the dashboard shows.
	userID string

	// ctx is the context for cancellation.
	ctx context.Context

	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusBar *status.Bar
	conflicts *list.ConflictList

	// progress is the live view of the running or last pass, nil before the first.
	progress *progress.View

	// unsubscribe ends the status stream of the running pass.
	unsubscribe func()

	// state is the last loaded sync snapshot.
	state domain.SyncState

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application for userID with the given ports.
func NewApp(ports *Ports, userID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if userID == "" {
		return nil, fmt.Errorf("creating app: %w", ErrMissingUser)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		userID:      userID,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		statusBar:   status.NewBar(s, km),
		conflicts:   list.NewConflictList(s),
		state:       domain.SyncState{UserID: userID},
		currentView: messages.ViewDashboard,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("eunio-sync - "+a.userID),
		a.loadState(),
		a.loadConflicts(),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		a.syncStatusBar()
		if msg.View == messages.ViewConflicts {
			return a, a.loadConflicts()
		}
		return a, nil

	case messages.StateLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.state = msg.State
		a.syncStatusBar()
		return a, nil

	case messages.ConflictsLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.conflicts.SetConflicts(msg.Conflicts)
		a.syncStatusBar()
		return a, nil

	case messages.ConflictResolved:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.statusBar.SetMessage(fmt.Sprintf("Resolved %s: %s", msg.ConflictID, msg.Decision))
		return a, tea.Batch(a.loadConflicts(), a.loadState())

	case messages.StatusReceived:
		if a.progress == nil {
			return a, nil
		}
		_, cmd := a.progress.Update(msg)
		a.statusBar.SetMessage(msg.Status.Phase.Description())
		return a, cmd

	case messages.StatusClosed:
		return a, nil

	case messages.SyncFinished:
		if a.progress != nil {
			_, _ = a.progress.Update(msg)
		}
		a.endSubscription()
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.err = nil
			a.statusBar.SetMessage(fmt.Sprintf("Last sync: %d operations", msg.Result.TotalOperations()))
			a.statusBar.SetState(status.StateIdle)
		}
		return a, tea.Batch(a.loadState(), a.loadConflicts())

	case spinner.TickMsg:
		if a.progress == nil {
			return a, nil
		}
		_, cmd := a.progress.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		a.shutdown()
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global quit with ctrl+c
	if key == "ctrl+c" {
		a.shutdown()
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(key, a.keymap.Back) || keymap.Matches(key, a.keymap.Help) {
			a.currentView = messages.ViewDashboard
			a.syncStatusBar()
		}
		return a, nil

	case messages.ViewConflicts:
		switch {
		case keymap.Matches(key, a.keymap.Back):
			a.currentView = messages.ViewDashboard
			a.syncStatusBar()
			return a, nil
		case keymap.Matches(key, a.keymap.KeepLocal):
			return a, a.resolveSelected(domain.DecisionKeepLocal)
		case keymap.Matches(key, a.keymap.KeepRemote):
			return a, a.resolveSelected(domain.DecisionKeepRemote)
		case keymap.Matches(key, a.keymap.Merge):
			return a, a.resolveSelected(domain.DecisionMerge)
		case keymap.Matches(key, a.keymap.Refresh):
			return a, a.loadConflicts()
		case keymap.Matches(key, a.keymap.Quit):
			a.shutdown()
			return a, tea.Quit
		}
		a.conflicts, _ = a.conflicts.Update(msg)
		return a, nil

	case messages.ViewDashboard:
		switch {
		case keymap.Matches(key, a.keymap.Sync):
			return a, a.startSync()
		case keymap.Matches(key, a.keymap.Conflicts):
			return a, func() tea.Msg { return messages.ViewChanged{View: messages.ViewConflicts} }
		case keymap.Matches(key, a.keymap.Help):
			a.currentView = messages.ViewHelp
			return a, nil
		case keymap.Matches(key, a.keymap.Refresh):
			return a, tea.Batch(a.loadState(), a.loadConflicts())
		case keymap.Matches(key, a.keymap.Quit):
			a.shutdown()
			return a, tea.Quit
		}
	}
	return a, nil
}

// startSync begins a full pass unless one started here is still running.
func (a *App) startSync() tea.Cmd {
	if a.Syncing() {
		return nil
	}

	ch, unsubscribe := a.ports.Sync.ObserveSyncStatus(a.userID)
	a.unsubscribe = unsubscribe

	sync := a.ports.Sync
	userID := a.userID
	a.progress = progress.NewView(a.ctx, a.styles, ch, func(ctx context.Context) (domain.SyncResult, error) {
		return sync.SyncUserData(ctx, userID)
	})

	a.err = nil
	a.statusBar.SetState(status.StateSyncing)
	a.statusBar.SetMessage(domain.PhaseStarting.Description())
	return a.progress.Init()
}

func (a *App) resolveSelected(decision domain.Decision) tea.Cmd {
	selected := a.conflicts.SelectedConflict()
	if selected == nil {
		return nil
	}

	svc := a.ports.Conflicts
	ctx := a.ctx
	id := selected.ID
	return func() tea.Msg {
		err := svc.ConfirmResolution(ctx, id, decision)
		return messages.ConflictResolved{ConflictID: id, Decision: decision, Err: err}
	}
}

func (a *App) loadState() tea.Cmd {
	sync := a.ports.Sync
	ctx := a.ctx
	userID := a.userID
	return func() tea.Msg {
		state, err := sync.Status(ctx, userID)
		return messages.StateLoaded{State: state, Err: err}
	}
}

func (a *App) loadConflicts() tea.Cmd {
	svc := a.ports.Conflicts
	ctx := a.ctx
	userID := a.userID
	return func() tea.Msg {
		conflicts, err := svc.PendingConflicts(ctx, userID)
		return messages.ConflictsLoaded{Conflicts: conflicts, Err: err}
	}
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(err.Error())
}

// syncStatusBar derives the bar state from the current view.
func (a *App) syncStatusBar() {
	a.statusBar.SetConflictCount(a.conflicts.Count())
	switch {
	case a.Syncing():
		a.statusBar.SetState(status.StateSyncing)
	case a.currentView == messages.ViewConflicts:
		a.statusBar.SetState(status.StateConflicts)
	case a.err != nil:
		a.statusBar.SetState(status.StateError)
	default:
		a.statusBar.SetState(status.StateIdle)
	}
}

func (a *App) endSubscription() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// shutdown cancels a running pass and releases its status stream.
func (a *App) shutdown() {
	if a.progress != nil && !a.progress.Done() {
		a.progress.Cancel()
	}
	a.endSubscription()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewConflicts:
		body = a.conflicts.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.viewDashboard()
	}

	header := a.styles.Title.Render("eunio-sync") + "  " + a.styles.Muted.Render(a.userID)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", a.statusBar.View())
}

func (a *App) viewDashboard() string {
	var b strings.Builder

	phase := a.state.Phase
	if phase == "" {
		b.WriteString(a.styles.Muted.Render("No sync has run yet"))
	} else {
		b.WriteString("Phase: ")
		b.WriteString(a.styles.Phase(phase).Render(phase.Description()))
	}
	b.WriteString("\n")

	if !a.state.LastCompleted.IsZero() {
		b.WriteString(a.styles.Muted.Render("Last completed " + humanize.Time(a.state.LastCompleted)))
		b.WriteString("\n")
	}
	if a.state.LastError != "" {
		b.WriteString(a.styles.Error.Render("Last error: " + a.state.LastError))
		b.WriteString("\n")
	}

	if r := a.state.LastResult; r != nil {
		b.WriteString("\n")
		b.WriteString(a.styles.Panel.Render(a.renderResult(*r)))
		b.WriteString("\n")
	}

	if a.progress != nil {
		b.WriteString("\n")
		b.WriteString(a.progress.View())
	}

	return b.String()
}

func (a *App) renderResult(r domain.SyncResult) string {
	rows := []string{
		a.styles.Subtitle.Render(fmt.Sprintf("%-10s %6s %6s %6s %6s", "", "up", "down", "merged", "wait")),
	}
	for _, entity := range []domain.EntityType{domain.EntityUser, domain.EntityDailyLog, domain.EntitySettings} {
		c := r.Counts(entity)
		rows = append(rows, fmt.Sprintf("%-10s %s %s %s %s", entity,
			a.styles.Counter.Render(humanize.Comma(int64(c.Uploaded))),
			a.styles.Counter.Render(humanize.Comma(int64(c.Downloaded))),
			a.styles.Counter.Render(humanize.Comma(int64(c.Merged))),
			a.styles.Counter.Render(humanize.Comma(int64(c.Deferred)))))
	}
	if r.HasErrors() {
		rows = append(rows, a.styles.Error.Render(fmt.Sprintf("%d record errors", len(r.Errors))))
	}
	return strings.Join(rows, "\n")
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Subtitle.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back to dashboard"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	a.shutdown()
	return err
}

// UserID returns the user shown by the dashboard.
func (a *App) UserID() string {
	return a.userID
}

// State returns the last loaded sync snapshot.
func (a *App) State() domain.SyncState {
	return a.state
}

// Conflicts returns the pending conflicts currently listed.
func (a *App) Conflicts() []domain.PendingConflict {
	return a.conflicts.Conflicts()
}

// Syncing reports whether a pass started here is still running.
func (a *App) Syncing() bool {
	return a.progress != nil && !a.progress.Done()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.statusBar.SetWidth(width)
	a.conflicts.SetDimensions(width, height-6)
}
