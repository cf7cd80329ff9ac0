package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
)

// conflictStore implements driven.ConflictStore.
type conflictStore struct {
	store *Store
}

var _ driven.ConflictStore = (*conflictStore)(nil)

const conflictColumns = `id, user_id, entity, record_id, detection,
	local_snapshot, remote_snapshot, reason, detected_at`

// Save stores a pending conflict, replacing any with the same ID.
func (s *conflictStore) Save(ctx context.Context, c domain.PendingConflict) error {
	if c.ID == "" {
		return fmt.Errorf("%w: conflict id required", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO pending_conflicts (`+conflictColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			entity = excluded.entity,
			record_id = excluded.record_id,
			detection = excluded.detection,
			local_snapshot = excluded.local_snapshot,
			remote_snapshot = excluded.remote_snapshot,
			reason = excluded.reason,
			detected_at = excluded.detected_at
	`, c.ID, c.UserID, string(c.Entity), c.RecordID, string(c.Detection),
		nullString(string(c.Local)), nullString(string(c.Remote)),
		nullString(c.Reason), unixNano(c.DetectedAt))
	if err != nil {
		return fmt.Errorf("%w: saving pending conflict: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Get retrieves a conflict by ID.
func (s *conflictStore) Get(ctx context.Context, id string) (domain.PendingConflict, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+conflictColumns+" FROM pending_conflicts WHERE id = ?", id)
	return scanConflict(row)
}

// FindByRecord returns the pending conflict for a record.
func (s *conflictStore) FindByRecord(ctx context.Context, entity domain.EntityType, recordID string) (domain.PendingConflict, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+conflictColumns+" FROM pending_conflicts WHERE entity = ? AND record_id = ?",
		string(entity), recordID)
	return scanConflict(row)
}

// List returns the user's pending conflicts, oldest first.
func (s *conflictStore) List(ctx context.Context, userID string) ([]domain.PendingConflict, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+conflictColumns+" FROM pending_conflicts WHERE user_id = ? ORDER BY detected_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying pending conflicts: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var conflicts []domain.PendingConflict //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating pending conflicts: %v", domain.ErrPersistence, err)
	}
	return conflicts, nil
}

// Delete removes a conflict. Deleting a missing conflict is not an error.
func (s *conflictStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM pending_conflicts WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: deleting pending conflict: %v", domain.ErrPersistence, err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConflict(row rowScanner) (domain.PendingConflict, error) {
	var (
		c                     domain.PendingConflict
		entity, detection     string
		local, remote, reason sql.NullString
		detectedAt            int64
	)
	err := row.Scan(&c.ID, &c.UserID, &entity, &c.RecordID, &detection,
		&local, &remote, &reason, &detectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PendingConflict{}, domain.ErrConflictNotFound
	}
	if err != nil {
		return domain.PendingConflict{}, fmt.Errorf("%w: scanning pending conflict: %v", domain.ErrPersistence, err)
	}

	c.Entity = domain.EntityType(entity)
	c.Detection = domain.ConflictDetection(detection)
	if local.Valid {
		c.Local = json.RawMessage(local.String)
	}
	if remote.Valid {
		c.Remote = json.RawMessage(remote.String)
	}
	c.Reason = reason.String
	c.DetectedAt = fromUnixNano(detectedAt)
	return c, nil
}
