package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is the number of results kept per task.
const historyRetention = 100

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerTick sets how often due tasks are checked for.
func WithSchedulerTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config    domain.SchedulerConfig
	store     driven.SchedulerStore
	syncOrch  driving.SyncOrchestrator
	conflicts driving.ConflictService
	tick      time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	syncOrch driving.SyncOrchestrator,
	conflicts driving.ConflictService,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config:    config,
		store:     store,
		syncOrch:  syncOrch,
		conflicts: conflicts,
		tick:      time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled. It returns immediately when the scheduler is
// disabled or already running.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Debug("scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: initialising tasks failed", logger.Err(err))
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	tasks := []struct {
		id, name string
	}{
		{domain.TaskIDPeriodicSync, "Periodic Sync"},
		{domain.TaskIDConflictExpiry, "Conflict Expiry"},
	}
	for _, t := range tasks {
		if err := s.ensureTask(ctx, t.id, t.name, s.config.GetTaskConfig(t.id)); err != nil {
			return fmt.Errorf("ensure task %s: %w", t.id, err)
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		if !cfg.Enabled {
			return nil
		}
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: listing tasks failed", logger.Err(err))
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDPeriodicSync:
			result.ItemsProcessed, err = s.runPeriodicSync(ctx)
		case domain.TaskIDConflictExpiry:
			result.ItemsProcessed, err = s.runConflictExpiry(ctx)
		default:
			logger.Warn("scheduler: unknown task", "task", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
			logger.Warn("scheduled task failed", "task", task.ID, logger.Err(err))
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		// Bookkeeping survives cancellation of the scheduler context.
		bg := context.WithoutCancel(ctx)
		if saveErr := s.store.SaveTask(bg, task); saveErr != nil {
			logger.Warn("scheduler: saving task failed", "task", task.ID, logger.Err(saveErr))
		}
		if recordErr := s.store.RecordResult(bg, result); recordErr != nil {
			logger.Warn("scheduler: recording result failed", "task", task.ID, logger.Err(recordErr))
		}
		if pruneErr := s.store.PruneHistory(bg, historyRetention); pruneErr != nil {
			logger.Warn("scheduler: pruning history failed", logger.Err(pruneErr))
		}
	}()
}

// runPeriodicSync runs a full pass for every configured user and returns
// the number of records moved.
func (s *Scheduler) runPeriodicSync(ctx context.Context) (int, error) {
	if s.syncOrch == nil {
		return 0, nil
	}

	var (
		items int
		errs  []error
	)
	for _, userID := range s.config.Users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := s.syncOrch.SyncUserData(ctx, userID)
		items += result.TotalOperations()
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if result.HasErrors() {
			logger.Info("periodic sync finished with record errors",
				logger.User(userID), logger.Count(len(result.Errors)))
		}
	}
	return items, errors.Join(errs...)
}

// runConflictExpiry settles expired user-guided conflicts for every
// configured user.
func (s *Scheduler) runConflictExpiry(ctx context.Context) (int, error) {
	if s.conflicts == nil {
		return 0, nil
	}

	var (
		settled int
		errs    []error
	)
	for _, userID := range s.config.Users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := s.conflicts.ExpireConflicts(ctx, userID)
		settled += n
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
		}
	}
	return settled, errors.Join(errs...)
}
