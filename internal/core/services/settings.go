package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keySyncStrategy      = "sync.strategy"
	keySyncNearWindow    = "sync.near_window"
	keySyncMaxAttempts   = "sync.max_attempts"
	keySyncRetryDelay    = "sync.retry_delay"
	keySyncOpTimeout     = "sync.operation_timeout"
	keySyncWorkers       = "sync.workers"
	keySyncRate          = "sync.rate_per_second"
	keySyncManualTimeout = "sync.manual_timeout"
	keyCacheCapacity     = "cache.capacity"
	keyCacheTTL          = "cache.ttl"
	keyStorageLocalDir   = "storage.local_dir"
	keyStorageRemoteDir  = "storage.remote_dir"
	keyLogLevel          = "log.level"
	keyLogJSON           = "log.json"
	keyLogFile           = "log.file"
	keyLogMaxSize        = "log.max_size_mb"
	keyLogMaxBackups     = "log.max_backups"
	keySchedulerEnabled  = "scheduler.enabled"
	keySchedulerUsers    = "scheduler.users"
)

// SettingsService manages engine settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current settings. Missing or malformed values take
// their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Sync: domain.SyncSettings{
			Strategy:         s.getStrategy(defaults.Sync.Strategy),
			NearWindow:       s.getDuration(keySyncNearWindow, defaults.Sync.NearWindow),
			MaxAttempts:      s.getInt(keySyncMaxAttempts, defaults.Sync.MaxAttempts),
			RetryDelay:       s.getDuration(keySyncRetryDelay, defaults.Sync.RetryDelay),
			OperationTimeout: s.getDuration(keySyncOpTimeout, defaults.Sync.OperationTimeout),
			Workers:          s.getInt(keySyncWorkers, defaults.Sync.Workers),
			RatePerSecond:    s.getFloat(keySyncRate, defaults.Sync.RatePerSecond),
			ManualTimeout:    s.getDuration(keySyncManualTimeout, defaults.Sync.ManualTimeout),
		},
		Cache: domain.CacheSettings{
			Capacity: s.getInt(keyCacheCapacity, defaults.Cache.Capacity),
			TTL:      s.getDuration(keyCacheTTL, defaults.Cache.TTL),
		},
		Storage: domain.StorageSettings{
			LocalDir:  s.getString(keyStorageLocalDir, defaults.Storage.LocalDir),
			RemoteDir: s.getString(keyStorageRemoteDir, defaults.Storage.RemoteDir),
		},
		Log: domain.LogSettings{
			Level:      s.getString(keyLogLevel, defaults.Log.Level),
			JSON:       s.getBool(keyLogJSON, defaults.Log.JSON),
			File:       s.getString(keyLogFile, defaults.Log.File),
			MaxSizeMB:  s.getInt(keyLogMaxSize, defaults.Log.MaxSizeMB),
			MaxBackups: s.getInt(keyLogMaxBackups, defaults.Log.MaxBackups),
		},
		Scheduler: s.GetSchedulerConfig(),
	}

	return settings, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings required", domain.ErrInvalidInput)
	}
	if err := validateSync(settings.Sync); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keySyncStrategy, settings.Sync.Strategy.String()},
		{keySyncNearWindow, settings.Sync.NearWindow.String()},
		{keySyncMaxAttempts, settings.Sync.MaxAttempts},
		{keySyncRetryDelay, settings.Sync.RetryDelay.String()},
		{keySyncOpTimeout, settings.Sync.OperationTimeout.String()},
		{keySyncWorkers, settings.Sync.Workers},
		{keySyncRate, settings.Sync.RatePerSecond},
		{keySyncManualTimeout, settings.Sync.ManualTimeout.String()},
		{keyCacheCapacity, settings.Cache.Capacity},
		{keyCacheTTL, settings.Cache.TTL.String()},
		{keyStorageLocalDir, settings.Storage.LocalDir},
		{keyStorageRemoteDir, settings.Storage.RemoteDir},
		{keyLogLevel, settings.Log.Level},
		{keyLogJSON, settings.Log.JSON},
		{keyLogFile, settings.Log.File},
		{keyLogMaxSize, settings.Log.MaxSizeMB},
		{keyLogMaxBackups, settings.Log.MaxBackups},
		{keySchedulerEnabled, settings.Scheduler.Enabled},
		{keySchedulerUsers, settings.Scheduler.Users},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	for taskID, configKey := range schedulerTaskKeys {
		cfg := settings.Scheduler.GetTaskConfig(taskID)
		prefix := "scheduler." + configKey + "."
		if err := s.configStore.Set(prefix+"enabled", cfg.Enabled); err != nil {
			return fmt.Errorf("save %s: %w", prefix+"enabled", err)
		}
		if err := s.configStore.Set(prefix+"interval", cfg.Interval.String()); err != nil {
			return fmt.Errorf("save %s: %w", prefix+"interval", err)
		}
	}

	return nil
}

// SetStrategy updates the conflict resolution strategy.
func (s *SettingsService) SetStrategy(strategy domain.Strategy) error {
	if !strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, strategy)
	}
	return s.configStore.Set(keySyncStrategy, strategy.String())
}

// SetNearWindow updates the near-simultaneous grace window.
func (s *SettingsService) SetNearWindow(window time.Duration) error {
	if window <= 0 {
		return fmt.Errorf("%w: near window must be positive", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keySyncNearWindow, window.String())
}

// ApplyTo pushes the stored strategy and near window into a running
// orchestrator. Used after the config file changes on disk.
func (s *SettingsService) ApplyTo(orch driving.SyncOrchestrator) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return errors.Join(
		orch.SetStrategy(settings.Sync.Strategy),
		orch.SetNearWindow(settings.Sync.NearWindow),
	)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func validateSync(cfg domain.SyncSettings) error {
	switch {
	case !cfg.Strategy.IsValid():
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, cfg.Strategy)
	case cfg.NearWindow <= 0:
		return fmt.Errorf("%w: near window must be positive", domain.ErrInvalidInput)
	case cfg.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be at least 1", domain.ErrInvalidInput)
	case cfg.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", domain.ErrInvalidInput)
	case cfg.RetryDelay < 0, cfg.OperationTimeout < 0, cfg.ManualTimeout < 0, cfg.RatePerSecond < 0:
		return fmt.Errorf("%w: negative sync setting", domain.ErrInvalidInput)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getDuration reads a Go duration string such as "15m".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getStrategy(defaultVal domain.Strategy) domain.Strategy {
	val := s.configStore.GetString(keySyncStrategy)
	if val == "" {
		return defaultVal
	}
	strategy := domain.Strategy(val)
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

// schedulerTaskKeys maps task IDs to their config sections.
var schedulerTaskKeys = map[string]string{
	domain.TaskIDPeriodicSync:   "periodic_sync",
	domain.TaskIDConflictExpiry: "conflict_expiry",
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		defaults.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}
	defaults.Users = s.configStore.GetStringSlice(keySchedulerUsers)

	for taskID, configKey := range schedulerTaskKeys {
		prefix := "scheduler." + configKey + "."

		taskCfg := defaults.TaskConfigs[taskID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}

		// Check interval (duration string like "45m", "1h")
		taskCfg.Interval = s.getDuration(prefix+"interval", taskCfg.Interval)

		defaults.TaskConfigs[taskID] = taskCfg
	}

	return defaults
}
