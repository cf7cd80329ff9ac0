package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eunio-health/eunio-sync/internal/core/conflict"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// Protocol steps reported in RecordError.Op.
const (
	opUpload   = "upload"
	opDownload = "download"
	opExpire   = "expire"
)

// entitySync runs the sync protocol for one entity type.
type entitySync[T domain.Record] struct {
	o       *SyncOrchestrator
	entity  domain.EntityType
	local   driven.LocalStore[T]
	remote  driven.RemoteStore[T]
	resolve func(*conflict.Resolver, T, T, domain.Strategy) (domain.Resolution[T], error)
	merge   func(*conflict.Resolver, T, T) (domain.Resolution[T], error)
	touch   func(T, time.Time) T
}

// upload pushes every pending record of the user.
func (e *entitySync[T]) upload(ctx context.Context, p *pass) (domain.SyncResult, error) {
	pending, err := e.local.GetPendingSync(ctx, p.userID)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("%w: list pending %s: %w", domain.ErrSync, e.entity, err)
	}
	if len(pending) > 0 {
		logger.Debug("uploading pending records", logger.User(p.userID), logger.KeyEntity, e.entity, logger.Count(len(pending)))
	}
	return e.each(ctx, pending, func(ctx context.Context, record T) domain.SyncResult {
		counts, err := e.uploadOne(ctx, p, record)
		return e.outcome(opUpload, record.RecordID(), counts, err)
	})
}

// download applies the remote records changed since the marker.
func (e *entitySync[T]) download(ctx context.Context, p *pass, changed []T) (domain.SyncResult, error) {
	return e.each(ctx, changed, func(ctx context.Context, record T) domain.SyncResult {
		counts, err := e.downloadOne(ctx, p, record)
		return e.outcome(opDownload, record.RecordID(), counts, err)
	})
}

// each runs fn for every record on a bounded worker pool. Records not yet
// started when ctx is cancelled are skipped and ctx's error is returned.
func (e *entitySync[T]) each(ctx context.Context, records []T, fn func(context.Context, T) domain.SyncResult) (domain.SyncResult, error) {
	results := make([]domain.SyncResult, len(records))

	var g errgroup.Group
	g.SetLimit(e.o.workers)
	for i, record := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = fn(ctx, record)
			return nil
		})
	}
	_ = g.Wait()

	return domain.CombineAll(results...), ctx.Err()
}

func (e *entitySync[T]) outcome(op, recordID string, counts domain.EntityCounts, err error) domain.SyncResult {
	if err != nil {
		logger.Warn("record sync failed", logger.KeyEntity, e.entity, logger.KeyRecord, recordID, "op", op, logger.Err(err))
		return domain.ErrorResult(domain.RecordError{Entity: e.entity, RecordID: recordID, Op: op, Err: err})
	}
	return domain.CountResult(e.entity, counts)
}

// uploadOne pushes a pending record. A remote copy written by another
// device since the last pass, or one already awaiting a decision, is
// resolved instead of overwritten.
func (e *entitySync[T]) uploadOne(ctx context.Context, p *pass, local T) (domain.EntityCounts, error) {
	if err := local.Validate(); err != nil {
		return domain.EntityCounts{}, err
	}
	id := local.RecordID()

	waiting, err := e.hasConflict(ctx, id)
	if err != nil {
		return domain.EntityCounts{}, err
	}

	remote, found, err := e.fetchRemote(ctx, p, id)
	if err != nil {
		return domain.EntityCounts{}, err
	}

	// Once the first write starts the record is finished even if the pass
	// is cancelled.
	wctx := context.WithoutCancel(ctx)

	if !found {
		err := e.o.remoteOp(wctx, p, "save", func(ctx context.Context) error {
			return e.remote.Save(ctx, local)
		})
		if err != nil {
			return domain.EntityCounts{}, err
		}
		if err := e.local.MarkSynced(wctx, id); err != nil {
			return domain.EntityCounts{}, err
		}
		return domain.EntityCounts{Uploaded: 1}, nil
	}

	if waiting || remote.Modified().After(p.marker) {
		res, err := e.resolve(p.resolver, local, remote, p.strategy)
		if err != nil {
			return domain.EntityCounts{}, err
		}
		if res.Detection != domain.NoConflict {
			return e.apply(wctx, p, res)
		}
	}

	err = e.o.remoteOp(wctx, p, "update", func(ctx context.Context) error {
		return e.remote.Update(ctx, local)
	})
	if err != nil {
		return domain.EntityCounts{}, err
	}
	if err := e.local.MarkSynced(wctx, id); err != nil {
		return domain.EntityCounts{}, err
	}
	return domain.EntityCounts{Uploaded: 1}, nil
}

// downloadOne reconciles one changed remote record with its local replica.
func (e *entitySync[T]) downloadOne(ctx context.Context, p *pass, remote T) (domain.EntityCounts, error) {
	if err := remote.Validate(); err != nil {
		return domain.EntityCounts{}, err
	}

	if _, ok := p.deferred.Load(deferredKey(e.entity, remote.RecordID())); ok {
		return domain.EntityCounts{}, nil
	}

	local, err := e.local.GetByID(ctx, remote.RecordID())
	if errors.Is(err, domain.ErrNotFound) {
		if err := e.writeLocal(context.WithoutCancel(ctx), remote); err != nil {
			return domain.EntityCounts{}, err
		}
		return domain.EntityCounts{Downloaded: 1}, nil
	}
	if err != nil {
		return domain.EntityCounts{}, err
	}

	res, err := e.resolve(p.resolver, local, remote, p.strategy)
	if err != nil {
		return domain.EntityCounts{}, err
	}
	if res.Detection == domain.NoConflict {
		return domain.EntityCounts{}, nil
	}
	return e.apply(context.WithoutCancel(ctx), p, res)
}

// apply writes a resolution to the stores that need it.
func (e *entitySync[T]) apply(ctx context.Context, p *pass, res domain.Resolution[T]) (domain.EntityCounts, error) {
	logger.Debug("resolved conflict",
		logger.KeyEntity, e.entity, logger.KeyRecord, res.Local.RecordID(),
		logger.KeyDetection, res.Detection, logger.KeyStrategy, res.Strategy, "kind", res.Kind)

	if res.Kind != domain.ResolutionManual {
		if err := e.clearConflict(ctx, res.Local.RecordID()); err != nil {
			return domain.EntityCounts{}, err
		}
	}

	switch res.Kind {
	case domain.ResolutionUseRemote:
		if err := e.writeLocal(ctx, res.Record); err != nil {
			return domain.EntityCounts{}, err
		}
		return domain.EntityCounts{Downloaded: 1}, nil

	case domain.ResolutionUseLocal:
		if err := e.writeRemote(ctx, p, res.Record); err != nil {
			return domain.EntityCounts{}, err
		}
		if err := e.local.MarkSynced(ctx, res.Record.RecordID()); err != nil {
			return domain.EntityCounts{}, err
		}
		return domain.EntityCounts{Uploaded: 1}, nil

	case domain.ResolutionMerge:
		if err := e.writeRemote(ctx, p, res.Record); err != nil {
			return domain.EntityCounts{}, err
		}
		if err := e.writeLocal(ctx, res.Record); err != nil {
			return domain.EntityCounts{}, err
		}
		return domain.EntityCounts{Merged: 1}, nil

	case domain.ResolutionManual:
		if err := e.deferConflict(ctx, p, res); err != nil {
			return domain.EntityCounts{}, err
		}
		return domain.EntityCounts{Deferred: 1}, nil
	}
	return domain.EntityCounts{}, fmt.Errorf("%w: unknown resolution %q", domain.ErrConflictResolution, res.Kind)
}

func (e *entitySync[T]) hasConflict(ctx context.Context, recordID string) (bool, error) {
	_, err := e.o.conflicts.FindByRecord(ctx, e.entity, recordID)
	if errors.Is(err, domain.ErrConflictNotFound) {
		return false, nil
	}
	return err == nil, err
}

// clearConflict drops a pending conflict settled by an automatic resolution.
func (e *entitySync[T]) clearConflict(ctx context.Context, recordID string) error {
	pc, err := e.o.conflicts.FindByRecord(ctx, e.entity, recordID)
	if errors.Is(err, domain.ErrConflictNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.o.conflicts.Delete(ctx, pc.ID)
}

func (e *entitySync[T]) fetchRemote(ctx context.Context, p *pass, id string) (T, bool, error) {
	var remote T
	err := e.o.remoteOp(ctx, p, "get", func(ctx context.Context) error {
		var err error
		remote, err = e.remote.Get(ctx, id)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return remote, false, nil
	}
	return remote, err == nil, err
}

// writeRemote updates the remote copy, creating it if it vanished.
func (e *entitySync[T]) writeRemote(ctx context.Context, p *pass, record T) error {
	err := e.o.remoteOp(ctx, p, "update", func(ctx context.Context) error {
		return e.remote.Update(ctx, record)
	})
	if errors.Is(err, domain.ErrNotFound) {
		err = e.o.remoteOp(ctx, p, "save", func(ctx context.Context) error {
			return e.remote.Save(ctx, record)
		})
	}
	return err
}

// writeLocal stores a record that already matches the remote copy.
func (e *entitySync[T]) writeLocal(ctx context.Context, record T) error {
	if err := e.local.Save(ctx, record); err != nil {
		return err
	}
	if err := e.local.MarkSynced(ctx, record.RecordID()); err != nil {
		return err
	}
	e.o.notify(record)
	return nil
}

// deferConflict records a resolution awaiting a human decision. A record
// already waiting keeps its conflict ID and detection time.
func (e *entitySync[T]) deferConflict(ctx context.Context, p *pass, res domain.Resolution[T]) error {
	local, err := json.Marshal(res.Local)
	if err != nil {
		return fmt.Errorf("encode local snapshot: %w", err)
	}
	remote, err := json.Marshal(res.Remote)
	if err != nil {
		return fmt.Errorf("encode remote snapshot: %w", err)
	}

	reason := res.Reason
	if reason == "" {
		reason = res.Strategy.Description()
	}
	pc := domain.PendingConflict{
		ID:         uuid.NewString(),
		UserID:     p.userID,
		Entity:     e.entity,
		RecordID:   res.Local.RecordID(),
		Detection:  res.Detection,
		Local:      local,
		Remote:     remote,
		Reason:     reason,
		DetectedAt: e.o.now(),
	}

	existing, err := e.o.conflicts.FindByRecord(ctx, e.entity, pc.RecordID)
	switch {
	case err == nil:
		pc.ID = existing.ID
		pc.DetectedAt = existing.DetectedAt
	case !errors.Is(err, domain.ErrConflictNotFound):
		return err
	}
	if err := e.o.conflicts.Save(ctx, pc); err != nil {
		return err
	}
	p.deferred.Store(deferredKey(e.entity, pc.RecordID), struct{}{})
	return nil
}

// current returns the live replicas of a pending conflict, falling back
// to its snapshots for a side that no longer exists.
func (e *entitySync[T]) current(ctx context.Context, p *pass, pc domain.PendingConflict) (local, remote T, err error) {
	local, err = e.local.GetByID(ctx, pc.RecordID)
	if errors.Is(err, domain.ErrNotFound) {
		err = json.Unmarshal(pc.Local, &local)
	}
	if err != nil {
		return local, remote, fmt.Errorf("load local %s %s: %w", e.entity, pc.RecordID, err)
	}

	remote, found, err := e.fetchRemote(ctx, p, pc.RecordID)
	if err != nil {
		return local, remote, err
	}
	if !found {
		if err := json.Unmarshal(pc.Remote, &remote); err != nil {
			return local, remote, fmt.Errorf("decode remote snapshot: %w", err)
		}
	}
	return local, remote, nil
}

// expire settles a pending conflict with last-write-wins. It reports
// false when the pair is still ambiguous and the conflict stays pending.
func (e *entitySync[T]) expire(ctx context.Context, p *pass, pc domain.PendingConflict) (domain.EntityCounts, bool, error) {
	local, remote, err := e.current(ctx, p, pc)
	if err != nil {
		return domain.EntityCounts{}, false, err
	}
	res, err := e.resolve(p.resolver, local, remote, domain.StrategyLastWriteWins)
	if err != nil {
		return domain.EntityCounts{}, false, err
	}
	if res.Kind == domain.ResolutionManual {
		return domain.EntityCounts{}, false, nil
	}

	var counts domain.EntityCounts
	if res.Detection != domain.NoConflict {
		if counts, err = e.apply(ctx, p, res); err != nil {
			return domain.EntityCounts{}, false, err
		}
	} else if err := e.local.MarkSynced(ctx, pc.RecordID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.EntityCounts{}, false, err
	}
	if err := e.o.conflicts.Delete(ctx, pc.ID); err != nil {
		return counts, false, err
	}
	return counts, true, nil
}

// confirm applies a human decision to both stores.
func (e *entitySync[T]) confirm(ctx context.Context, p *pass, pc domain.PendingConflict, decision domain.Decision) error {
	local, remote, err := e.current(ctx, p, pc)
	if err != nil {
		return err
	}

	switch decision {
	case domain.DecisionKeepLocal:
		record := e.touch(local, e.o.now())
		if err := e.writeRemote(ctx, p, record); err != nil {
			return err
		}
		if err := e.writeLocal(ctx, record); err != nil {
			return err
		}
	case domain.DecisionKeepRemote:
		if err := e.writeLocal(ctx, remote); err != nil {
			return err
		}
	case domain.DecisionMerge:
		res, err := e.merge(p.resolver, local, remote)
		if err != nil {
			return err
		}
		if err := e.writeRemote(ctx, p, res.Record); err != nil {
			return err
		}
		if err := e.writeLocal(ctx, res.Record); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidInput, decision)
	}
	return e.o.conflicts.Delete(ctx, pc.ID)
}
