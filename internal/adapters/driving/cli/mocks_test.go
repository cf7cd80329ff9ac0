package cli

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
// Each pass publishes events on the observed channel before returning.
type mockSyncOrchestrator struct {
	result   domain.SyncResult
	state    domain.SyncState
	err      error
	events   []domain.SyncPhase
	strategy domain.Strategy

	lastMode     string
	strategyUsed domain.Strategy
	status       chan domain.SyncStatus
	unsubscribed bool
}

func (m *mockSyncOrchestrator) pass(userID, mode string) (domain.SyncResult, error) {
	m.lastMode = mode
	m.strategyUsed = m.Strategy()
	for _, phase := range m.events {
		if m.status != nil {
			m.status <- domain.SyncStatus{UserID: userID, Phase: phase}
		}
	}
	return m.result, m.err
}

func (m *mockSyncOrchestrator) SyncUserData(_ context.Context, userID string) (domain.SyncResult, error) {
	return m.pass(userID, "full")
}

func (m *mockSyncOrchestrator) SyncPendingChanges(_ context.Context, userID string) (domain.SyncResult, error) {
	return m.pass(userID, "upload")
}

func (m *mockSyncOrchestrator) DownloadRemoteChanges(_ context.Context, userID string) (domain.SyncResult, error) {
	return m.pass(userID, "download")
}

func (m *mockSyncOrchestrator) ObserveSyncStatus(_ string) (<-chan domain.SyncStatus, func()) {
	m.status = make(chan domain.SyncStatus, 8)
	ch := m.status
	return ch, func() {
		if !m.unsubscribed {
			m.unsubscribed = true
			close(ch)
		}
	}
}

func (m *mockSyncOrchestrator) Status(_ context.Context, userID string) (domain.SyncState, error) {
	if m.state.UserID == "" {
		m.state.UserID = userID
	}
	return m.state, m.err
}

func (m *mockSyncOrchestrator) Strategy() domain.Strategy {
	if m.strategy == "" {
		return domain.StrategyFieldLevelMerge
	}
	return m.strategy
}

func (m *mockSyncOrchestrator) SetStrategy(s domain.Strategy) error {
	m.strategy = s
	return nil
}

func (m *mockSyncOrchestrator) SetNearWindow(_ time.Duration) error {
	return nil
}

// mockConflictService implements driving.ConflictService for testing.
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

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return m.err
}

func (m *mockSettingsService) SetStrategy(strategy domain.Strategy) error {
	m.settings.Sync.Strategy = strategy
	return m.err
}

func (m *mockSettingsService) SetNearWindow(window time.Duration) error {
	m.settings.Sync.NearWindow = window
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// mockCache implements driving.CacheControl for testing.
type mockCache struct {
	name        string
	stats       domain.CacheStats
	invalidated int
}

func (m *mockCache) Name() string             { return m.name }
func (m *mockCache) InvalidateAll()           { m.invalidated++ }
func (m *mockCache) Stats() domain.CacheStats { return m.stats }

var (
	_ driving.SyncOrchestrator = (*mockSyncOrchestrator)(nil)
	_ driving.ConflictService  = (*mockConflictService)(nil)
	_ driving.SettingsService  = (*mockSettingsService)(nil)
	_ driving.CacheControl     = (*mockCache)(nil)
)

// withServices installs s for the duration of a test.
func withServices(s Services) func() {
	old := Services{
		Sync:            syncOrchestrator,
		Conflicts:       conflictService,
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: schedulerConfig,
		Caches:          caches,
	}
	SetServices(s)
	return func() { SetServices(old) }
}

// executeCommand runs the root command with args and returns its output.
// Flags are reset afterwards so tests do not leak values into each other.
func executeCommand(args ...string) (string, error) {
	return executeCommandWithInput("", args...)
}

func executeCommandWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue) //nolint:errcheck // default values always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
