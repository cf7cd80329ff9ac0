package services

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/eunio-health/eunio-sync/internal/core/conflict"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// Ensure SyncOrchestrator implements the interfaces.
var (
	_ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)
	_ driving.ConflictService  = (*SyncOrchestrator)(nil)
)

// LocalStores groups the device-side stores reconciled by a pass.
type LocalStores struct {
	Users     driven.LocalStore[domain.User]
	DailyLogs driven.LocalStore[domain.DailyLog]
	Settings  driven.LocalStore[domain.UserSettings]
}

// RemoteStores groups the remote collections and their change feed.
type RemoteStores struct {
	Users     driven.RemoteStore[domain.User]
	DailyLogs driven.RemoteStore[domain.DailyLog]
	Settings  driven.RemoteStore[domain.UserSettings]
	Feed      driven.ChangeFeed
}

// SyncOption configures a SyncOrchestrator.
type SyncOption func(*SyncOrchestrator)

// WithChangeListeners registers listeners told about every record a
// pass writes into the local store.
func WithChangeListeners(listeners ...driven.ChangeListener) SyncOption {
	return func(o *SyncOrchestrator) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// WithSyncClock sets the clock used for markers, events and merges.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(o *SyncOrchestrator) {
		o.now = now
	}
}

// passMode selects the phases a pass runs.
type passMode int

const (
	modeFull passMode = iota
	modeUpload
	modeDownload
)

func (m passMode) String() string {
	switch m {
	case modeUpload:
		return "upload"
	case modeDownload:
		return "download"
	default:
		return "full"
	}
}

// pass is the context of one sync pass.
type pass struct {
	id       string
	userID   string
	started  time.Time
	marker   time.Time
	strategy domain.Strategy
	resolver *conflict.Resolver

	// deferred holds the records left for a decision during upload,
	// so download does not count them twice.
	deferred stdsync.Map
}

func deferredKey(entity domain.EntityType, id string) string {
	return string(entity) + "/" + id
}

// SyncOrchestrator reconciles local and remote records for a user.
type SyncOrchestrator struct {
	conflicts     driven.ConflictStore
	feed          driven.ChangeFeed
	listeners     []driven.ChangeListener
	retry         retryPolicy
	limiter       *rate.Limiter
	opTimeout     time.Duration
	workers       int
	manualTimeout time.Duration
	now           func() time.Time

	users    *entitySync[domain.User]
	logs     *entitySync[domain.DailyLog]
	settings *entitySync[domain.UserSettings]

	group     singleflight.Group
	flightsMu stdsync.Mutex
	flights   map[string]*flight
	locks     *userLocks
	hub       *statusHub

	mu       stdsync.RWMutex
	strategy domain.Strategy
	resolver *conflict.Resolver
	states   map[string]domain.SyncState
}

// NewSyncOrchestrator creates an orchestrator over the given stores.
func NewSyncOrchestrator(
	local LocalStores,
	remote RemoteStores,
	conflicts driven.ConflictStore,
	cfg domain.SyncSettings,
	opts ...SyncOption,
) (*SyncOrchestrator, error) {
	if local.Users == nil || local.DailyLogs == nil || local.Settings == nil {
		return nil, fmt.Errorf("%w: local stores not configured", domain.ErrInvalidInput)
	}
	if remote.Users == nil || remote.DailyLogs == nil || remote.Settings == nil || remote.Feed == nil {
		return nil, fmt.Errorf("%w: remote stores not configured", domain.ErrInvalidInput)
	}
	if conflicts == nil {
		return nil, fmt.Errorf("%w: conflict store not configured", domain.ErrInvalidInput)
	}
	if !cfg.Strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, cfg.Strategy)
	}

	defaults := domain.DefaultAppSettings().Sync
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	o := &SyncOrchestrator{
		conflicts:     conflicts,
		feed:          remote.Feed,
		retry:         newRetryPolicy(cfg.MaxAttempts, cfg.RetryDelay),
		limiter:       rate.NewLimiter(limit, max(1, cfg.Workers)),
		opTimeout:     cfg.OperationTimeout,
		workers:       cfg.Workers,
		manualTimeout: cfg.ManualTimeout,
		now:           time.Now,
		flights:       make(map[string]*flight),
		locks:         newUserLocks(),
		hub:           newStatusHub(),
		strategy:      cfg.Strategy,
		states:        make(map[string]domain.SyncState),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.resolver = conflict.NewResolver(conflict.NewDetector(cfg.NearWindow), conflict.WithClock(o.now))

	o.users = &entitySync[domain.User]{
		o:       o,
		entity:  domain.EntityUser,
		local:   local.Users,
		remote:  remote.Users,
		resolve: (*conflict.Resolver).ResolveUser,
		merge:   (*conflict.Resolver).MergeUser,
		touch: func(u domain.User, at time.Time) domain.User {
			u.UpdatedAt = at
			return u
		},
	}
	o.logs = &entitySync[domain.DailyLog]{
		o:       o,
		entity:  domain.EntityDailyLog,
		local:   local.DailyLogs,
		remote:  remote.DailyLogs,
		resolve: (*conflict.Resolver).ResolveDailyLog,
		merge:   (*conflict.Resolver).MergeDailyLog,
		touch: func(l domain.DailyLog, at time.Time) domain.DailyLog {
			l.UpdatedAt = at
			return l
		},
	}
	o.settings = &entitySync[domain.UserSettings]{
		o:       o,
		entity:  domain.EntitySettings,
		local:   local.Settings,
		remote:  remote.Settings,
		resolve: (*conflict.Resolver).ResolveSettings,
		merge:   (*conflict.Resolver).MergeSettings,
		touch: func(s domain.UserSettings, at time.Time) domain.UserSettings {
			s.UpdatedAt = at
			return s
		},
	}
	return o, nil
}

// SyncUserData runs upload, download and finalize for a user.
func (o *SyncOrchestrator) SyncUserData(ctx context.Context, userID string) (domain.SyncResult, error) {
	return o.run(ctx, userID, modeFull)
}

// SyncPendingChanges uploads the user's pending records.
func (o *SyncOrchestrator) SyncPendingChanges(ctx context.Context, userID string) (domain.SyncResult, error) {
	return o.run(ctx, userID, modeUpload)
}

// DownloadRemoteChanges applies remote changes and advances the marker.
func (o *SyncOrchestrator) DownloadRemoteChanges(ctx context.Context, userID string) (domain.SyncResult, error) {
	return o.run(ctx, userID, modeDownload)
}

// ObserveSyncStatus subscribes to the user's status events.
func (o *SyncOrchestrator) ObserveSyncStatus(userID string) (<-chan domain.SyncStatus, func()) {
	return o.hub.subscribe(userID)
}

// Status returns a snapshot of the user's sync activity. Users with no
// pass in this process report the remote marker as their last completion.
func (o *SyncOrchestrator) Status(ctx context.Context, userID string) (domain.SyncState, error) {
	if userID == "" {
		return domain.SyncState{}, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}

	o.mu.RLock()
	state, ok := o.states[userID]
	o.mu.RUnlock()
	if ok {
		return state, nil
	}

	marker, err := o.feed.GetLastSyncTimestamp(ctx, userID)
	if err != nil {
		return domain.SyncState{}, fmt.Errorf("get last sync timestamp: %w", err)
	}
	return domain.SyncState{UserID: userID, LastCompleted: marker}, nil
}

// Strategy returns the strategy used by new passes.
func (o *SyncOrchestrator) Strategy() domain.Strategy {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.strategy
}

// SetStrategy changes the strategy used by new passes.
// Passes already running keep the strategy they started with.
func (o *SyncOrchestrator) SetStrategy(strategy domain.Strategy) error {
	if !strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, strategy)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.strategy = strategy
	return nil
}

// SetNearWindow changes the near-simultaneous grace window.
func (o *SyncOrchestrator) SetNearWindow(window time.Duration) error {
	if window <= 0 {
		return fmt.Errorf("%w: near window must be positive", domain.ErrInvalidInput)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolver = conflict.NewResolver(conflict.NewDetector(window), conflict.WithClock(o.now))
	return nil
}

// flight is the context shared by every caller waiting on one pass.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// join registers a waiter on the flight for key. The first waiter's
// context supplies values but not cancellation.
func (o *SyncOrchestrator) join(ctx context.Context, key string) *flight {
	o.flightsMu.Lock()
	defer o.flightsMu.Unlock()
	f, ok := o.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		o.flights[key] = f
	}
	f.waiters++
	return f
}

// leave cancels the flight once its last waiter is gone.
func (o *SyncOrchestrator) leave(key string, f *flight) {
	o.flightsMu.Lock()
	defer o.flightsMu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if o.flights[key] == f {
		delete(o.flights, key)
	}
}

// run coalesces identical requests onto one pass. The pass is cancelled
// only when every caller waiting on it has given up.
func (o *SyncOrchestrator) run(ctx context.Context, userID string, mode passMode) (domain.SyncResult, error) {
	if userID == "" {
		return domain.SyncResult{}, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return domain.SyncResult{}, err
	}

	key := userID + ":" + mode.String()
	f := o.join(ctx, key)
	defer o.leave(key, f)

	ch := o.group.DoChan(key, func() (any, error) {
		return o.pass(f.ctx, userID, mode)
	})

	select {
	case <-ctx.Done():
		return domain.SyncResult{}, ctx.Err()
	case r := <-ch:
		if r.Shared {
			logger.Debug("joined in-flight sync pass", logger.User(userID), "mode", mode.String())
		}
		result, _ := r.Val.(domain.SyncResult)
		return result, r.Err
	}
}

//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) pass(ctx context.Context, userID string, mode passMode) (domain.SyncResult, error) {
	unlock, err := o.locks.acquire(ctx, userID)
	if err != nil {
		return domain.SyncResult{}, err
	}
	defer unlock()

	p := o.newPass(userID)
	log := logger.With(logger.KeyPass, p.id, logger.KeyUser, userID)
	log.Info("starting sync pass", "mode", mode.String(), logger.KeyStrategy, p.strategy)
	o.emit(p, domain.PhaseStarting, nil, nil)

	// 1. Read the marker, needed to spot remote edits during upload
	marker, err := o.lastSync(ctx, p)
	if err != nil {
		return o.fail(p, domain.SyncResult{}, err)
	}
	p.marker = marker

	// 2. Fall back to last-write-wins for conflicts nobody decided in time
	result, _, err := o.expireManualConflicts(ctx, p)
	if err != nil {
		return o.fail(p, result, err)
	}

	// 3. Upload
	if mode != modeDownload {
		o.emit(p, domain.PhaseUploading, nil, nil)
		up, err := o.upload(ctx, p)
		result = domain.Combine(result, up)
		if err != nil {
			return o.fail(p, result, err)
		}
	}

	// 4. Download and finalize
	if mode != modeUpload {
		o.emit(p, domain.PhaseDownloading, nil, nil)
		down, err := o.download(ctx, p)
		result = domain.Combine(result, down)
		if err != nil {
			return o.fail(p, result, err)
		}

		err = o.remoteOp(ctx, p, "update_marker", func(ctx context.Context) error {
			return o.feed.UpdateLastSyncTimestamp(ctx, userID, p.started)
		})
		if err != nil {
			return o.fail(p, result, fmt.Errorf("%w: update last sync timestamp: %w", domain.ErrSync, err))
		}
	}

	log.Info("sync pass complete",
		"uploaded", result.Users.Uploaded+result.DailyLogs.Uploaded+result.Settings.Uploaded,
		"downloaded", result.Users.Downloaded+result.DailyLogs.Downloaded+result.Settings.Downloaded,
		"merged", result.Users.Merged+result.DailyLogs.Merged+result.Settings.Merged,
		"deferred", result.Users.Deferred+result.DailyLogs.Deferred+result.Settings.Deferred,
		"errors", len(result.Errors))
	o.emit(p, domain.PhaseCompleted, nil, &result)
	return result, nil
}

func (o *SyncOrchestrator) newPass(userID string) *pass {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return &pass{
		id:       uuid.NewString(),
		userID:   userID,
		started:  o.now(),
		strategy: o.strategy,
		resolver: o.resolver,
	}
}

func (o *SyncOrchestrator) lastSync(ctx context.Context, p *pass) (time.Time, error) {
	var marker time.Time
	err := o.remoteOp(ctx, p, "get_marker", func(ctx context.Context) error {
		var err error
		marker, err = o.feed.GetLastSyncTimestamp(ctx, p.userID)
		return err
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: get last sync timestamp: %w", domain.ErrSync, err)
	}
	return marker, nil
}

// upload drains the pending queues, users and settings before logs.
func (o *SyncOrchestrator) upload(ctx context.Context, p *pass) (domain.SyncResult, error) {
	var result domain.SyncResult
	for _, phase := range []func(context.Context, *pass) (domain.SyncResult, error){
		o.users.upload,
		o.settings.upload,
		o.logs.upload,
	} {
		r, err := phase(ctx, p)
		result = domain.Combine(result, r)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// download applies the remote changes written since the marker.
func (o *SyncOrchestrator) download(ctx context.Context, p *pass) (domain.SyncResult, error) {
	var changes driven.ChangeSet
	err := o.remoteOp(ctx, p, "changed_since", func(ctx context.Context) error {
		var err error
		changes, err = o.feed.GetChangedSince(ctx, p.userID, p.marker)
		return err
	})
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("%w: get changed since %s: %w", domain.ErrSync, p.marker.Format(time.RFC3339), err)
	}
	logger.Debug("remote changes", logger.User(p.userID), logger.Count(changes.Len()))

	var result domain.SyncResult
	r, err := o.users.download(ctx, p, changes.Users)
	result = domain.Combine(result, r)
	if err != nil {
		return result, err
	}
	r, err = o.settings.download(ctx, p, changes.Settings)
	result = domain.Combine(result, r)
	if err != nil {
		return result, err
	}
	r, err = o.logs.download(ctx, p, changes.DailyLogs)
	return domain.Combine(result, r), err
}

// call runs one remote operation under the rate limit and its own timeout.
// A timeout of the operation itself counts as a network failure.
func (o *SyncOrchestrator) call(ctx context.Context, fn func(context.Context) error) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(ctx, o.opTimeout)
	defer cancel()

	err := fn(opCtx)
	if err != nil && ctx.Err() == nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	return err
}

// remoteOp is call with retries.
func (o *SyncOrchestrator) remoteOp(ctx context.Context, p *pass, op string, fn func(context.Context) error) error {
	return o.retry.do(ctx, func(ctx context.Context) error {
		return o.call(ctx, fn)
	}, func(attempt int, err error) {
		logger.Debug("retrying remote operation",
			logger.KeyPass, p.id, logger.User(p.userID), "op", op,
			logger.KeyAttempt, attempt, logger.Err(err))
	})
}

func (o *SyncOrchestrator) notify(record domain.Record) {
	for _, l := range o.listeners {
		l.RecordChanged(record)
	}
}

func (o *SyncOrchestrator) fail(p *pass, result domain.SyncResult, err error) (domain.SyncResult, error) {
	logger.Error("sync pass failed", logger.KeyPass, p.id, logger.User(p.userID), logger.Err(err))
	o.emit(p, domain.PhaseError, err, &result)
	return result, err
}

// emit records the phase in the user's state and publishes it.
func (o *SyncOrchestrator) emit(p *pass, phase domain.SyncPhase, err error, result *domain.SyncResult) {
	at := o.now()

	o.mu.Lock()
	state := o.states[p.userID]
	state.UserID = p.userID
	state.Phase = phase
	state.Running = !phase.IsTerminal()
	if phase.IsTerminal() {
		snapshot := *result
		state.LastResult = &snapshot
		state.LastCompleted = at
		state.LastError = ""
		if err != nil {
			state.LastError = err.Error()
		}
	}
	o.states[p.userID] = state
	o.mu.Unlock()

	o.hub.publish(domain.SyncStatus{
		UserID: p.userID,
		PassID: p.id,
		Phase:  phase,
		Err:    err,
		Result: result,
		At:     at,
	})
}
