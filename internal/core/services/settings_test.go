package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/adapters/driven/storage/memory"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Sync, settings.Sync)
	assert.Equal(t, defaults.Cache, settings.Cache)
	assert.Equal(t, defaults.Log, settings.Log)
	assert.True(t, settings.Scheduler.Enabled)
	assert.Empty(t, settings.Scheduler.Users)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"sync.strategy":        "user_guided",
		"sync.near_window":     "2s",
		"sync.max_attempts":    5,
		"sync.workers":         8,
		"sync.rate_per_second": 2.5,
		"cache.capacity":       64,
		"cache.ttl":            "1m",
		"log.level":            "debug",
		"log.json":             true,
		"scheduler.users":      []any{"u1", "u2"},
	})
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.StrategyUserGuided, settings.Sync.Strategy)
	assert.Equal(t, 2*time.Second, settings.Sync.NearWindow)
	assert.Equal(t, 5, settings.Sync.MaxAttempts)
	assert.Equal(t, 8, settings.Sync.Workers)
	assert.InDelta(t, 2.5, settings.Sync.RatePerSecond, 0.001)
	assert.Equal(t, 64, settings.Cache.Capacity)
	assert.Equal(t, time.Minute, settings.Cache.TTL)
	assert.Equal(t, "debug", settings.Log.Level)
	assert.True(t, settings.Log.JSON)
	assert.Equal(t, []string{"u1", "u2"}, settings.Scheduler.Users)
}

func TestSettingsService_Get_MalformedValuesFallBack(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"sync.strategy":    "coin_flip",
		"sync.near_window": "soon",
		"cache.ttl":        "-5m",
	})
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Sync.Strategy, settings.Sync.Strategy)
	assert.Equal(t, defaults.Sync.NearWindow, settings.Sync.NearWindow)
	assert.Equal(t, defaults.Cache.TTL, settings.Cache.TTL)
}

func TestSettingsService_Save_RoundTrips(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Sync.Strategy = domain.StrategyLastWriteWins
	settings.Sync.NearWindow = 3 * time.Second
	settings.Sync.ManualTimeout = 48 * time.Hour
	settings.Cache.Capacity = 10
	settings.Scheduler.Users = []string{"u1"}
	settings.Scheduler.TaskConfigs[domain.TaskIDPeriodicSync] = domain.TaskConfig{
		Enabled:  false,
		Interval: 30 * time.Minute,
	}

	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.Sync, got.Sync)
	assert.Equal(t, 10, got.Cache.Capacity)
	assert.Equal(t, []string{"u1"}, got.Scheduler.Users)

	task := got.Scheduler.GetTaskConfig(domain.TaskIDPeriodicSync)
	assert.False(t, task.Enabled)
	assert.Equal(t, 30*time.Minute, task.Interval)
}

func TestSettingsService_Save_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.AppSettings)
	}{
		{"unknown strategy", func(s *domain.AppSettings) { s.Sync.Strategy = "coin_flip" }},
		{"zero near window", func(s *domain.AppSettings) { s.Sync.NearWindow = 0 }},
		{"no attempts", func(s *domain.AppSettings) { s.Sync.MaxAttempts = 0 }},
		{"no workers", func(s *domain.AppSettings) { s.Sync.Workers = 0 }},
		{"negative delay", func(s *domain.AppSettings) { s.Sync.RetryDelay = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore())
			settings := domain.DefaultAppSettings()
			tt.mutate(&settings)

			err := service.Save(&settings)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	t.Run("nil settings", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		assert.ErrorIs(t, service.Save(nil), domain.ErrInvalidInput)
	})
}

func TestSettingsService_SetStrategy(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.SetStrategy(domain.StrategyUserGuided))
	assert.Equal(t, "user_guided", store.GetString("sync.strategy"))

	err := service.SetStrategy("coin_flip")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "user_guided", store.GetString("sync.strategy"))
}

func TestSettingsService_SetNearWindow(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.SetNearWindow(750*time.Millisecond))
	assert.Equal(t, "750ms", store.GetString("sync.near_window"))

	assert.ErrorIs(t, service.SetNearWindow(0), domain.ErrInvalidInput)
}

func TestSettingsService_GetSchedulerConfig(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"scheduler.enabled":                  false,
		"scheduler.conflict_expiry.enabled":  false,
		"scheduler.conflict_expiry.interval": "6h",
	})
	service := NewSettingsService(store)

	cfg := service.GetSchedulerConfig()

	assert.False(t, cfg.Enabled)
	expiry := cfg.GetTaskConfig(domain.TaskIDConflictExpiry)
	assert.False(t, expiry.Enabled)
	assert.Equal(t, 6*time.Hour, expiry.Interval)

	periodic := cfg.GetTaskConfig(domain.TaskIDPeriodicSync)
	assert.True(t, periodic.Enabled)
	assert.Equal(t, 15*time.Minute, periodic.Interval)
}

func TestSettingsService_ApplyTo(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"sync.strategy":    "last_write_wins",
		"sync.near_window": "2m",
	})
	service := NewSettingsService(store)
	orch := &stubOrchestrator{}

	require.NoError(t, service.ApplyTo(orch))

	assert.Equal(t, domain.StrategyLastWriteWins, orch.strategy)
	assert.Equal(t, 2*time.Minute, orch.window)
}
