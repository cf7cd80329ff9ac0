package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
)

// Ensure the repositories implement the interfaces.
var (
	_ driving.UserRepository     = (*UserRepository)(nil)
	_ driving.DailyLogRepository = (*DailyLogRepository)(nil)
	_ driving.SettingsRepository = (*SettingsRepository)(nil)
)

// RepositoryOption configures a repository.
type RepositoryOption func(*repositoryConfig)

type repositoryConfig struct {
	now func() time.Time
}

// WithRepositoryClock sets the clock used to stamp writes.
func WithRepositoryClock(now func() time.Time) RepositoryOption {
	return func(c *repositoryConfig) {
		c.now = now
	}
}

func newRepositoryConfig(opts []RepositoryOption) repositoryConfig {
	cfg := repositoryConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// UserRepository stores user profiles on the device.
type UserRepository struct {
	store driven.LocalStore[domain.User]
	now   func() time.Time
}

// NewUserRepository creates a user repository over the local store.
func NewUserRepository(store driven.LocalStore[domain.User], opts ...RepositoryOption) *UserRepository {
	return &UserRepository{store: store, now: newRepositoryConfig(opts).now}
}

// GetUser retrieves a user profile.
func (r *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	if id == "" {
		return domain.User{}, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	return r.store.GetByID(ctx, id)
}

// SaveUser stamps and stores a profile, queueing it for upload.
// A profile without an ID gets a new one.
func (r *UserRepository) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	now := r.now()
	if user.ID == "" {
		user.ID = uuid.NewString()
	} else if user.CreatedAt.IsZero() {
		existing, err := r.store.GetByID(ctx, user.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, err
		}
		user.CreatedAt = existing.CreatedAt
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := user.Validate(); err != nil {
		return domain.User{}, err
	}
	if err := r.store.Save(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a profile from the device.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// DailyLogRepository stores daily logs on the device.
// A user has at most one log per day.
type DailyLogRepository struct {
	store driven.DailyLogLocalStore
	now   func() time.Time
}

// NewDailyLogRepository creates a daily log repository over the local store.
func NewDailyLogRepository(store driven.DailyLogLocalStore, opts ...RepositoryOption) *DailyLogRepository {
	return &DailyLogRepository{store: store, now: newRepositoryConfig(opts).now}
}

// GetLog retrieves a log by ID.
func (r *DailyLogRepository) GetLog(ctx context.Context, id string) (domain.DailyLog, error) {
	if id == "" {
		return domain.DailyLog{}, fmt.Errorf("%w: log id required", domain.ErrInvalidInput)
	}
	return r.store.GetByID(ctx, id)
}

// GetLogByDate retrieves the user's log for a day.
func (r *DailyLogRepository) GetLogByDate(ctx context.Context, userID string, day domain.EpochDay) (domain.DailyLog, error) {
	if userID == "" {
		return domain.DailyLog{}, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	return r.store.GetByDate(ctx, userID, day)
}

// GetLogsInRange returns the user's logs between start and end inclusive.
func (r *DailyLogRepository) GetLogsInRange(ctx context.Context, userID string, start, end domain.EpochDay) ([]domain.DailyLog, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	if start > end {
		return nil, fmt.Errorf("%w: range starts %s after it ends %s", domain.ErrInvalidInput, start, end)
	}
	return r.store.GetInRange(ctx, userID, start, end)
}

// SaveLog stamps and stores a log, queueing it for upload. A log without
// an ID takes over the ID of the user's existing log for that day.
func (r *DailyLogRepository) SaveLog(ctx context.Context, log domain.DailyLog) (domain.DailyLog, error) {
	if log.UserID == "" {
		return domain.DailyLog{}, fmt.Errorf("%w: daily log has no user", domain.ErrValidation)
	}

	existing, err := r.store.GetByDate(ctx, log.UserID, log.Date)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return domain.DailyLog{}, err
	case log.ID == "" || log.ID == existing.ID:
		log.ID = existing.ID
		if log.CreatedAt.IsZero() {
			log.CreatedAt = existing.CreatedAt
		}
	default:
		return domain.DailyLog{}, fmt.Errorf("%w: user %s already has log %s for %s",
			domain.ErrValidation, log.UserID, existing.ID, log.Date)
	}

	now := r.now()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	if err := log.Validate(); err != nil {
		return domain.DailyLog{}, err
	}
	if err := r.store.Save(ctx, log); err != nil {
		return domain.DailyLog{}, fmt.Errorf("save daily log: %w", err)
	}
	return log, nil
}

// SaveLogs saves logs in order and stops at the first failure,
// returning the logs saved so far.
func (r *DailyLogRepository) SaveLogs(ctx context.Context, logs []domain.DailyLog) ([]domain.DailyLog, error) {
	saved := make([]domain.DailyLog, 0, len(logs))
	for _, l := range logs {
		s, err := r.SaveLog(ctx, l)
		if err != nil {
			return saved, fmt.Errorf("save log for %s: %w", l.Date, err)
		}
		saved = append(saved, s)
	}
	return saved, nil
}

// DeleteLog removes a log from the device.
func (r *DailyLogRepository) DeleteLog(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// SettingsRepository stores user preferences on the device.
type SettingsRepository struct {
	store driven.LocalStore[domain.UserSettings]
	now   func() time.Time
}

// NewSettingsRepository creates a settings repository over the local store.
func NewSettingsRepository(store driven.LocalStore[domain.UserSettings], opts ...RepositoryOption) *SettingsRepository {
	return &SettingsRepository{store: store, now: newRepositoryConfig(opts).now}
}

// GetSettings returns the user's settings.
func (r *SettingsRepository) GetSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	if userID == "" {
		return domain.UserSettings{}, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	return r.store.GetByID(ctx, userID)
}

// SaveSettings stamps and stores settings, queueing them for upload.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings domain.UserSettings) (domain.UserSettings, error) {
	settings.UpdatedAt = r.now()
	if err := settings.Validate(); err != nil {
		return domain.UserSettings{}, err
	}
	if err := r.store.Save(ctx, settings); err != nil {
		return domain.UserSettings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}
