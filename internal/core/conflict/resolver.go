package conflict

import (
	"fmt"
	"strings"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// merger holds the entity-specific rules used by resolve.
type merger[T domain.Record] interface {
	entity() domain.EntityType
	checkIdentity(local, remote T) error
	equal(local, remote T) bool
	merge(m *fieldMerge, local, remote T) T
	stamp(record T, at time.Time) T
}

// Resolver turns a local/remote pair into a Resolution.
type Resolver struct {
	detector *Detector
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used to stamp merged records.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a resolver using detector to classify pairs.
func NewResolver(detector *Detector, opts ...Option) *Resolver {
	if detector == nil {
		detector = NewDetector(DefaultNearWindow)
	}
	r := &Resolver{detector: detector, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detector returns the resolver's detector.
func (r *Resolver) Detector() *Detector {
	return r.detector
}

// ResolveUser reconciles two replicas of a user profile.
func (r *Resolver) ResolveUser(local, remote domain.User, strategy domain.Strategy) (domain.Resolution[domain.User], error) {
	return resolve[domain.User](r, userMerger{}, local, remote, strategy)
}

// ResolveDailyLog reconciles two replicas of a daily log.
func (r *Resolver) ResolveDailyLog(local, remote domain.DailyLog, strategy domain.Strategy) (domain.Resolution[domain.DailyLog], error) {
	return resolve[domain.DailyLog](r, dailyLogMerger{}, local, remote, strategy)
}

// ResolveSettings reconciles two replicas of a user's settings.
func (r *Resolver) ResolveSettings(local, remote domain.UserSettings, strategy domain.Strategy) (domain.Resolution[domain.UserSettings], error) {
	return resolve[domain.UserSettings](r, settingsMerger{}, local, remote, strategy)
}

// MergeUser applies field-level merge rules regardless of detection,
// as used when a person picks "merge" for a pending conflict.
func (r *Resolver) MergeUser(local, remote domain.User) (domain.Resolution[domain.User], error) {
	return forceMerge[domain.User](r, userMerger{}, local, remote)
}

// MergeDailyLog is MergeUser for daily logs.
func (r *Resolver) MergeDailyLog(local, remote domain.DailyLog) (domain.Resolution[domain.DailyLog], error) {
	return forceMerge[domain.DailyLog](r, dailyLogMerger{}, local, remote)
}

// MergeSettings is MergeUser for settings.
func (r *Resolver) MergeSettings(local, remote domain.UserSettings) (domain.Resolution[domain.UserSettings], error) {
	return forceMerge[domain.UserSettings](r, settingsMerger{}, local, remote)
}

func resolve[T domain.Record](r *Resolver, mg merger[T], local, remote T, strategy domain.Strategy) (domain.Resolution[T], error) {
	if err := mg.checkIdentity(local, remote); err != nil {
		return domain.Resolution[T]{}, err
	}

	res := domain.Resolution[T]{
		Local:     local,
		Remote:    remote,
		Strategy:  strategy,
		Automatic: true,
		Detection: r.detector.Detect(local.Modified(), remote.Modified(), mg.equal(local, remote)),
	}

	if res.Detection == domain.NoConflict {
		res.Kind = domain.ResolutionUseRemote
		res.Record = remote
		return res, nil
	}

	switch strategy {
	case domain.StrategyLastWriteWins:
		switch newerSide(local.Modified(), remote.Modified()) {
		case sideLocal:
			res.Kind = domain.ResolutionUseLocal
			res.Record = local
			return res, nil
		case sideRemote:
			res.Kind = domain.ResolutionUseRemote
			res.Record = remote
			return res, nil
		case sideNone:
			// Exact tie falls through to a field merge.
			return mergePair(r, mg, res, false)
		}
	case domain.StrategyFieldLevelMerge:
		return mergePair(r, mg, res, false)
	case domain.StrategyUserGuided:
		res.Kind = domain.ResolutionManual
		res.Automatic = false
		res.Reason = "awaiting user decision"
		return res, nil
	}

	return domain.Resolution[T]{}, fmt.Errorf("%w: unknown strategy %q", domain.ErrConflictResolution, strategy)
}

func forceMerge[T domain.Record](r *Resolver, mg merger[T], local, remote T) (domain.Resolution[T], error) {
	if err := mg.checkIdentity(local, remote); err != nil {
		return domain.Resolution[T]{}, err
	}
	res := domain.Resolution[T]{
		Local:     local,
		Remote:    remote,
		Strategy:  domain.StrategyFieldLevelMerge,
		Automatic: true,
		Detection: r.detector.Detect(local.Modified(), remote.Modified(), mg.equal(local, remote)),
	}
	return mergePair(r, mg, res, true)
}

func mergePair[T domain.Record](r *Resolver, mg merger[T], res domain.Resolution[T], tiesToLocal bool) (domain.Resolution[T], error) {
	fm := &fieldMerge{
		newer:       newerSide(res.Local.Modified(), res.Remote.Modified()),
		tiesToLocal: tiesToLocal,
	}
	merged := mg.merge(fm, res.Local, res.Remote)
	if len(fm.unresolved) > 0 {
		res.Kind = domain.ResolutionManual
		res.Automatic = false
		res.Reason = "ambiguous fields: " + strings.Join(fm.unresolved, ", ")
		return res, nil
	}

	merged = mg.stamp(merged, r.now())
	if err := merged.Validate(); err != nil {
		return domain.Resolution[T]{}, fmt.Errorf("%w: merged %s %s: %v",
			domain.ErrConflictResolution, mg.entity(), merged.RecordID(), err)
	}

	res.Kind = domain.ResolutionMerge
	res.Record = merged
	return res, nil
}
