package driving

import (
	"context"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// UserRepository reads and writes user profiles on the device.
// Writes are queued for the next sync pass.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	SaveUser(ctx context.Context, user domain.User) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// DailyLogRepository reads and writes daily logs on the device.
type DailyLogRepository interface {
	GetLog(ctx context.Context, id string) (domain.DailyLog, error)
	GetLogByDate(ctx context.Context, userID string, day domain.EpochDay) (domain.DailyLog, error)
	GetLogsInRange(ctx context.Context, userID string, start, end domain.EpochDay) ([]domain.DailyLog, error)
	SaveLog(ctx context.Context, log domain.DailyLog) (domain.DailyLog, error)
	SaveLogs(ctx context.Context, logs []domain.DailyLog) ([]domain.DailyLog, error)
	DeleteLog(ctx context.Context, id string) error
}

// SettingsRepository reads and writes user preferences on the device.
type SettingsRepository interface {
	// GetSettings returns the user's settings, or domain.ErrNotFound.
	GetSettings(ctx context.Context, userID string) (domain.UserSettings, error)
	SaveSettings(ctx context.Context, settings domain.UserSettings) (domain.UserSettings, error)
}

// CacheControl is exposed by every caching decorator. Decorators also
// offer typed Invalidate and PreloadBatch methods for their own keys.
type CacheControl interface {
	// Name labels the cache.
	Name() string

	// InvalidateAll drops every cached entry.
	InvalidateAll()

	// Stats returns a snapshot of the cache.
	Stats() domain.CacheStats
}
