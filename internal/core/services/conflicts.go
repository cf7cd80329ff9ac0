package services

import (
	"context"
	"fmt"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// PendingConflicts lists the user's conflicts awaiting a decision.
func (o *SyncOrchestrator) PendingConflicts(ctx context.Context, userID string) ([]domain.PendingConflict, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	conflicts, err := o.conflicts.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending conflicts: %w", err)
	}
	return conflicts, nil
}

// ConfirmResolution applies a human decision to both stores. It waits for
// any pass of the conflict's user to finish first.
func (o *SyncOrchestrator) ConfirmResolution(ctx context.Context, conflictID string, decision domain.Decision) error {
	if !decision.IsValid() {
		return fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidInput, decision)
	}
	pc, err := o.conflicts.Get(ctx, conflictID)
	if err != nil {
		return err
	}

	unlock, err := o.locks.acquire(ctx, pc.UserID)
	if err != nil {
		return err
	}
	defer unlock()

	// Re-read under the lock; a pass may have settled it meanwhile.
	if pc, err = o.conflicts.Get(ctx, conflictID); err != nil {
		return err
	}

	p := o.newPass(pc.UserID)
	logger.Info("confirming conflict resolution",
		logger.User(pc.UserID), logger.KeyEntity, pc.Entity, logger.KeyRecord, pc.RecordID, "decision", decision)

	switch pc.Entity {
	case domain.EntityUser:
		err = o.users.confirm(ctx, p, pc, decision)
	case domain.EntityDailyLog:
		err = o.logs.confirm(ctx, p, pc, decision)
	case domain.EntitySettings:
		err = o.settings.confirm(ctx, p, pc, decision)
	default:
		err = fmt.Errorf("%w: unknown entity %q", domain.ErrValidation, pc.Entity)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrConflictResolution, pc.Entity, pc.RecordID, err)
	}
	return nil
}

// ExpireConflicts settles the user's conflicts older than the manual
// timeout with last-write-wins.
func (o *SyncOrchestrator) ExpireConflicts(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	unlock, err := o.locks.acquire(ctx, userID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	p := o.newPass(userID)
	if p.marker, err = o.lastSync(ctx, p); err != nil {
		return 0, err
	}
	result, settled, err := o.expireManualConflicts(ctx, p)
	if err != nil {
		return settled, err
	}
	if result.HasErrors() {
		return settled, fmt.Errorf("expire conflicts: %w", &result.Errors[0])
	}
	return settled, nil
}

// expireManualConflicts runs at the start of a pass and returns the
// number of conflicts settled. Failures are recorded per record and the
// conflict stays pending.
func (o *SyncOrchestrator) expireManualConflicts(ctx context.Context, p *pass) (domain.SyncResult, int, error) {
	if o.manualTimeout <= 0 {
		return domain.SyncResult{}, 0, nil
	}
	pending, err := o.conflicts.List(ctx, p.userID)
	if err != nil {
		return domain.SyncResult{}, 0, fmt.Errorf("%w: list pending conflicts: %w", domain.ErrSync, err)
	}

	var (
		result  domain.SyncResult
		settled int
	)
	for _, pc := range pending {
		if !pc.Expired(p.started, o.manualTimeout) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, settled, err
		}

		var (
			counts domain.EntityCounts
			done   bool
		)
		switch pc.Entity {
		case domain.EntityUser:
			counts, done, err = o.users.expire(ctx, p, pc)
		case domain.EntityDailyLog:
			counts, done, err = o.logs.expire(ctx, p, pc)
		case domain.EntitySettings:
			counts, done, err = o.settings.expire(ctx, p, pc)
		default:
			err = fmt.Errorf("%w: unknown entity %q", domain.ErrValidation, pc.Entity)
		}
		if err != nil {
			logger.Warn("expiring conflict failed", logger.User(p.userID), logger.KeyRecord, pc.RecordID, logger.Err(err))
			result = domain.Combine(result, domain.ErrorResult(domain.RecordError{
				Entity: pc.Entity, RecordID: pc.RecordID, Op: opExpire, Err: err,
			}))
			continue
		}
		if !done {
			continue
		}
		settled++
		logger.Info("expired manual conflict", logger.User(p.userID), logger.KeyEntity, pc.Entity, logger.KeyRecord, pc.RecordID)
		result = domain.Combine(result, domain.CountResult(pc.Entity, counts))
	}
	return result, settled, nil
}
