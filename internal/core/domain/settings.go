package domain

import "time"

// SyncSettings configures the sync orchestrator and conflict engine.
type SyncSettings struct {
	// Strategy is applied to every detected conflict.
	Strategy Strategy

	// NearWindow is the largest timestamp gap still classified as a
	// near-simultaneous edit.
	NearWindow time.Duration

	// MaxAttempts bounds how often a network operation is tried.
	MaxAttempts int

	// RetryDelay is multiplied by the attempt number between retries.
	RetryDelay time.Duration

	// OperationTimeout bounds each remote operation.
	OperationTimeout time.Duration

	// Workers bounds concurrent per-record operations within a phase.
	Workers int

	// RatePerSecond throttles remote operations. Zero disables throttling.
	RatePerSecond float64

	// ManualTimeout is how long a user-guided conflict may wait before
	// falling back to last-write-wins. Zero waits forever.
	ManualTimeout time.Duration
}

// CacheSettings configures the read caches.
type CacheSettings struct {
	// Capacity is the maximum number of entries per cache.
	Capacity int

	// TTL is how long an entry stays fresh. Zero disables expiry.
	TTL time.Duration
}

// StorageSettings locates the local and remote databases.
type StorageSettings struct {
	// LocalDir holds the local SQLite database.
	LocalDir string

	// RemoteDir holds the SQLite-backed remote document store.
	RemoteDir string
}

// LogSettings configures logging output.
type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string

	// JSON selects JSON output instead of text.
	JSON bool

	// File, when set, receives logs in addition to stderr.
	File string

	// MaxSizeMB rotates File once it reaches this size.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// AppSettings holds all user-configurable engine settings.
type AppSettings struct {
	Sync      SyncSettings
	Cache     CacheSettings
	Storage   StorageSettings
	Log       LogSettings
	Scheduler SchedulerConfig
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Sync: SyncSettings{
			Strategy:         StrategyFieldLevelMerge,
			NearWindow:       15 * time.Minute,
			MaxAttempts:      3,
			RetryDelay:       500 * time.Millisecond,
			OperationTimeout: 30 * time.Second,
			Workers:          4,
			RatePerSecond:    10,
		},
		Cache: CacheSettings{
			Capacity: 128,
			TTL:      5 * time.Minute,
		},
		Log: LogSettings{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// AllStrategies returns all conflict strategies.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyLastWriteWins,
		StrategyFieldLevelMerge,
		StrategyUserGuided,
	}
}
