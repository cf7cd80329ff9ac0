// Command eunio-sync reconciles Eunio health records kept on the device
// with the remote document store.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/eunio-health/eunio-sync/internal/adapters/driven/config/file"
	"github.com/eunio-health/eunio-sync/internal/adapters/driven/storage/memory"
	"github.com/eunio-health/eunio-sync/internal/adapters/driven/storage/sqlite"
	"github.com/eunio-health/eunio-sync/internal/adapters/driven/units"
	"github.com/eunio-health/eunio-sync/internal/adapters/driving/cli"
	"github.com/eunio-health/eunio-sync/internal/cache"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
	"github.com/eunio-health/eunio-sync/internal/core/services"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// ephemeralEnv selects in-memory stores instead of the SQLite databases.
const ephemeralEnv = "EUNIO_SYNC_EPHEMERAL"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore(os.Getenv("EUNIO_SYNC_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	configureLogging(settings.Log)
	defer logger.Close() //nolint:errcheck // best effort on exit

	stores, closer, err := openStores(settings.Storage, os.Getenv(ephemeralEnv) != "")
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck // best effort on exit

	cacheOpts := []cache.Option{cache.WithTTL(settings.Cache.TTL)}
	users, err := cache.NewUserRepository(services.NewUserRepository(stores.local.Users),
		settings.Cache.Capacity, append(cacheOpts, cache.WithName("users"))...)
	if err != nil {
		return fmt.Errorf("creating user cache: %w", err)
	}
	logs, err := cache.NewDailyLogRepository(services.NewDailyLogRepository(stores.logs),
		settings.Cache.Capacity, append(cacheOpts, cache.WithName("daily_logs"))...)
	if err != nil {
		return fmt.Errorf("creating daily log cache: %w", err)
	}
	userSettings, err := cache.NewSettingsRepository(services.NewSettingsRepository(stores.local.Settings),
		settings.Cache.Capacity, append(cacheOpts, cache.WithName("settings"))...)
	if err != nil {
		return fmt.Errorf("creating settings cache: %w", err)
	}
	temperatures, err := cache.NewUnitFormatter(units.Formatter{}, settings.Cache.Capacity, cache.WithName("temperatures"))
	if err != nil {
		return fmt.Errorf("creating formatter cache: %w", err)
	}

	orchestrator, err := services.NewSyncOrchestrator(
		stores.local,
		stores.remote,
		stores.conflicts,
		settings.Sync,
		services.WithChangeListeners(users, logs, userSettings),
	)
	if err != nil {
		return fmt.Errorf("creating sync orchestrator: %w", err)
	}

	schedulerConfig := settingsService.GetSchedulerConfig()
	scheduler := services.NewScheduler(schedulerConfig, stores.scheduler, orchestrator, orchestrator)

	watcher, err := file.NewWatcher(configStore, func() {
		if err := settingsService.ApplyTo(orchestrator); err != nil {
			logger.Warn("applying reloaded settings", logger.Err(err))
		}
	})
	if err != nil {
		logger.Warn("config watcher unavailable", logger.Err(err))
	} else if err := watcher.Start(); err != nil {
		logger.Warn("config watcher unavailable", logger.Err(err))
	} else {
		defer watcher.Stop() //nolint:errcheck // best effort on exit
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Sync:            orchestrator,
		Conflicts:       orchestrator,
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: schedulerConfig,
		Caches:          []driving.CacheControl{users, logs, userSettings, temperatures},
	})

	return cli.Execute()
}

func configureLogging(s domain.LogSettings) {
	level, err := logger.ParseLevel(s.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using warn\n", err)
	}
	logger.Configure(logger.Options{
		Level:      level,
		JSON:       s.JSON,
		File:       s.File,
		MaxSizeMB:  s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
	})
}

// storeSet holds the driven adapters the services run on.
type storeSet struct {
	local     services.LocalStores
	logs      driven.DailyLogLocalStore
	remote    services.RemoteStores
	conflicts driven.ConflictStore
	scheduler driven.SchedulerStore
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openStores(cfg domain.StorageSettings, ephemeral bool) (storeSet, io.Closer, error) {
	if ephemeral {
		logs := memory.NewDailyLogStore()
		remote := memory.NewRemoteStore(nil)
		return storeSet{
			local: services.LocalStores{
				Users:     memory.NewLocalStore[domain.User](),
				DailyLogs: logs,
				Settings:  memory.NewLocalStore[domain.UserSettings](),
			},
			logs: logs,
			remote: services.RemoteStores{
				Users:     remote.Users(),
				DailyLogs: remote.DailyLogs(),
				Settings:  remote.Settings(),
				Feed:      remote,
			},
			conflicts: memory.NewConflictStore(),
			scheduler: memory.NewSchedulerStore(),
		}, nopCloser{}, nil
	}

	local, err := sqlite.NewStore(cfg.LocalDir)
	if err != nil {
		return storeSet{}, nil, fmt.Errorf("opening local store: %w", err)
	}
	remote, err := sqlite.NewRemoteStore(cfg.RemoteDir)
	if err != nil {
		_ = local.Close()
		return storeSet{}, nil, fmt.Errorf("opening remote store: %w", err)
	}

	logs := local.DailyLogs()
	return storeSet{
		local: services.LocalStores{
			Users:     local.Users(),
			DailyLogs: logs,
			Settings:  local.Settings(),
		},
		logs: logs,
		remote: services.RemoteStores{
			Users:     remote.Users(),
			DailyLogs: remote.DailyLogs(),
			Settings:  remote.Settings(),
			Feed:      remote,
		},
		conflicts: local.ConflictStore(),
		scheduler: local.SchedulerStore(),
	}, multiCloser{local, remote}, nil
}
