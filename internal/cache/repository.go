package cache

import (
	"context"
	"errors"
	"slices"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
)

// Ensure the decorators implement the ports they wrap.
var (
	_ driving.UserRepository     = (*UserRepository)(nil)
	_ driving.DailyLogRepository = (*DailyLogRepository)(nil)
	_ driving.SettingsRepository = (*SettingsRepository)(nil)
	_ driving.CacheControl       = (*UserRepository)(nil)
	_ driving.CacheControl       = (*DailyLogRepository)(nil)
	_ driving.CacheControl       = (*SettingsRepository)(nil)
	_ driven.ChangeListener      = (*UserRepository)(nil)
	_ driven.ChangeListener      = (*DailyLogRepository)(nil)
	_ driven.ChangeListener      = (*SettingsRepository)(nil)
)

// UserRepository caches profile reads by user ID.
type UserRepository struct {
	delegate driving.UserRepository
	cache    *Cache[string, domain.User]
}

// NewUserRepository wraps delegate with a cache of the given capacity.
func NewUserRepository(delegate driving.UserRepository, capacity int, opts ...Option) (*UserRepository, error) {
	c, err := New[string, domain.User](capacity, delegate.GetUser, append([]Option{WithName("users")}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &UserRepository{delegate: delegate, cache: c}, nil
}

// GetUser returns a cached profile, loading it on a miss.
func (r *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	return r.cache.Get(ctx, id)
}

// SaveUser writes through to the delegate and drops the cached copy.
func (r *UserRepository) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	saved, err := r.delegate.SaveUser(ctx, user)
	r.cache.Invalidate(user.ID)
	return saved, err
}

// DeleteUser deletes through the delegate and drops the cached copy.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	err := r.delegate.DeleteUser(ctx, id)
	r.cache.Invalidate(id)
	return err
}

// PreloadBatch caches the given profiles.
func (r *UserRepository) PreloadBatch(ctx context.Context, ids []string) error {
	return r.cache.PreloadBatch(ctx, ids)
}

// Invalidate drops one cached profile.
func (r *UserRepository) Invalidate(id string) { r.cache.Invalidate(id) }

// InvalidateAll implements driving.CacheControl.
func (r *UserRepository) InvalidateAll() { r.cache.InvalidateAll() }

// Stats implements driving.CacheControl.
func (r *UserRepository) Stats() domain.CacheStats { return r.cache.Stats() }

// Name implements driving.CacheControl.
func (r *UserRepository) Name() string { return r.cache.Name() }

// RecordChanged implements driven.ChangeListener.
func (r *UserRepository) RecordChanged(record domain.Record) {
	if u, ok := record.(domain.User); ok {
		r.cache.Invalidate(u.ID)
	}
}

// SettingsRepository caches settings reads by user ID.
type SettingsRepository struct {
	delegate driving.SettingsRepository
	cache    *Cache[string, domain.UserSettings]
}

// NewSettingsRepository wraps delegate with a cache of the given capacity.
func NewSettingsRepository(delegate driving.SettingsRepository, capacity int, opts ...Option) (*SettingsRepository, error) {
	c, err := New[string, domain.UserSettings](capacity, delegate.GetSettings, append([]Option{WithName("settings")}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &SettingsRepository{delegate: delegate, cache: c}, nil
}

// GetSettings returns cached settings, loading them on a miss.
func (r *SettingsRepository) GetSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	return r.cache.Get(ctx, userID)
}

// SaveSettings writes through to the delegate and drops the cached copy.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings domain.UserSettings) (domain.UserSettings, error) {
	saved, err := r.delegate.SaveSettings(ctx, settings)
	r.cache.Invalidate(settings.UserID)
	return saved, err
}

// PreloadBatch caches the settings of the given users.
func (r *SettingsRepository) PreloadBatch(ctx context.Context, userIDs []string) error {
	return r.cache.PreloadBatch(ctx, userIDs)
}

// Invalidate drops one user's cached settings.
func (r *SettingsRepository) Invalidate(userID string) { r.cache.Invalidate(userID) }

// InvalidateAll implements driving.CacheControl.
func (r *SettingsRepository) InvalidateAll() { r.cache.InvalidateAll() }

// Stats implements driving.CacheControl.
func (r *SettingsRepository) Stats() domain.CacheStats { return r.cache.Stats() }

// Name implements driving.CacheControl.
func (r *SettingsRepository) Name() string { return r.cache.Name() }

// RecordChanged implements driven.ChangeListener.
func (r *SettingsRepository) RecordChanged(record domain.Record) {
	if s, ok := record.(domain.UserSettings); ok {
		r.cache.Invalidate(s.UserID)
	}
}

// DayKey identifies a user's log for one calendar day.
type DayKey struct {
	UserID string
	Day    domain.EpochDay
}

// DailyLogRepository caches log reads by user and day. Lookups by log ID
// and range queries go straight to the delegate.
type DailyLogRepository struct {
	delegate driving.DailyLogRepository
	cache    *Cache[DayKey, domain.DailyLog]
}

// NewDailyLogRepository wraps delegate with a cache of the given capacity.
// PreloadBatch fetches each user's days with one range query.
func NewDailyLogRepository(delegate driving.DailyLogRepository, capacity int, opts ...Option) (*DailyLogRepository, error) {
	load := func(ctx context.Context, k DayKey) (domain.DailyLog, error) {
		return delegate.GetLogByDate(ctx, k.UserID, k.Day)
	}
	c, err := NewWithBatch[DayKey, domain.DailyLog](capacity, load, rangeLoader(delegate), append([]Option{WithName("daily_logs")}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &DailyLogRepository{delegate: delegate, cache: c}, nil
}

func rangeLoader(delegate driving.DailyLogRepository) BatchLoadFunc[DayKey, domain.DailyLog] {
	return func(ctx context.Context, keys []DayKey) (map[DayKey]domain.DailyLog, error) {
		byUser := make(map[string][]domain.EpochDay)
		for _, k := range keys {
			byUser[k.UserID] = append(byUser[k.UserID], k.Day)
		}

		out := make(map[DayKey]domain.DailyLog, len(keys))
		for userID, days := range byUser {
			logs, err := delegate.GetLogsInRange(ctx, userID, slices.Min(days), slices.Max(days))
			if err != nil {
				return nil, err
			}
			for _, l := range logs {
				k := DayKey{UserID: userID, Day: l.Date}
				if slices.Contains(days, l.Date) {
					out[k] = l
				}
			}
		}
		return out, nil
	}
}

// GetLog reads through to the delegate.
func (r *DailyLogRepository) GetLog(ctx context.Context, id string) (domain.DailyLog, error) {
	return r.delegate.GetLog(ctx, id)
}

// GetLogByDate returns a cached log, loading it on a miss.
func (r *DailyLogRepository) GetLogByDate(ctx context.Context, userID string, day domain.EpochDay) (domain.DailyLog, error) {
	return r.cache.Get(ctx, DayKey{UserID: userID, Day: day})
}

// GetLogsInRange reads through to the delegate.
func (r *DailyLogRepository) GetLogsInRange(ctx context.Context, userID string, start, end domain.EpochDay) ([]domain.DailyLog, error) {
	return r.delegate.GetLogsInRange(ctx, userID, start, end)
}

// SaveLog writes through to the delegate and drops the cached day.
func (r *DailyLogRepository) SaveLog(ctx context.Context, log domain.DailyLog) (domain.DailyLog, error) {
	saved, err := r.delegate.SaveLog(ctx, log)
	r.cache.Invalidate(DayKey{UserID: log.UserID, Day: log.Date})
	return saved, err
}

// SaveLogs writes through to the delegate and drops every affected day.
func (r *DailyLogRepository) SaveLogs(ctx context.Context, logs []domain.DailyLog) ([]domain.DailyLog, error) {
	saved, err := r.delegate.SaveLogs(ctx, logs)
	for _, l := range logs {
		r.cache.Invalidate(DayKey{UserID: l.UserID, Day: l.Date})
	}
	return saved, err
}

// DeleteLog deletes through to the delegate and drops the cached day.
func (r *DailyLogRepository) DeleteLog(ctx context.Context, id string) error {
	existing, lookupErr := r.delegate.GetLog(ctx, id)
	err := r.delegate.DeleteLog(ctx, id)
	switch {
	case lookupErr == nil:
		r.cache.Invalidate(DayKey{UserID: existing.UserID, Day: existing.Date})
	case !errors.Is(lookupErr, domain.ErrNotFound):
		r.cache.InvalidateAll()
	}
	return err
}

// PreloadBatch caches a user's logs for the given days.
func (r *DailyLogRepository) PreloadBatch(ctx context.Context, userID string, days []domain.EpochDay) error {
	keys := make([]DayKey, len(days))
	for i, d := range days {
		keys[i] = DayKey{UserID: userID, Day: d}
	}
	return r.cache.PreloadBatch(ctx, keys)
}

// Invalidate drops one cached day.
func (r *DailyLogRepository) Invalidate(userID string, day domain.EpochDay) {
	r.cache.Invalidate(DayKey{UserID: userID, Day: day})
}

// InvalidateAll implements driving.CacheControl.
func (r *DailyLogRepository) InvalidateAll() { r.cache.InvalidateAll() }

// Stats implements driving.CacheControl.
func (r *DailyLogRepository) Stats() domain.CacheStats { return r.cache.Stats() }

// Name implements driving.CacheControl.
func (r *DailyLogRepository) Name() string { return r.cache.Name() }

// RecordChanged implements driven.ChangeListener.
func (r *DailyLogRepository) RecordChanged(record domain.Record) {
	if l, ok := record.(domain.DailyLog); ok {
		r.cache.Invalidate(DayKey{UserID: l.UserID, Day: l.Date})
	}
}
