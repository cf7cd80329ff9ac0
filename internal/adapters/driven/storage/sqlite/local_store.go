package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eunio-health/eunio-sync/internal/adapters/driven/schema"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
)

var (
	_ driven.LocalStore[domain.User]         = (*localStore[domain.User])(nil)
	_ driven.LocalStore[domain.UserSettings] = (*localStore[domain.UserSettings])(nil)
	_ driven.DailyLogLocalStore              = (*dailyLogStore)(nil)
)

// localStore implements driven.LocalStore for one collection of
// local_records.
type localStore[T domain.Record] struct {
	store *Store
	codec schema.Codec[T]
	day   func(T) sql.NullInt64
}

func newLocalStore[T domain.Record](s *Store, codec schema.Codec[T], day func(T) sql.NullInt64) *localStore[T] {
	return &localStore[T]{store: s, codec: codec, day: day}
}

func noDay[T domain.Record](T) sql.NullInt64 { return sql.NullInt64{} }

func logDay(l domain.DailyLog) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(l.Date), Valid: true}
}

// GetByID retrieves a record. Returns domain.ErrNotFound if absent.
func (s *localStore[T]) GetByID(ctx context.Context, id string) (T, error) {
	var body string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT body FROM local_records WHERE collection = ? AND id = ?",
		s.codec.Collection(), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, domain.ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: reading %s %s: %v", domain.ErrPersistence, s.codec.Collection(), id, err)
	}
	return s.decode(body)
}

// Save inserts or replaces a record and marks it pending.
func (s *localStore[T]) Save(ctx context.Context, record T) error {
	body, err := s.codec.Encode(record)
	if err != nil {
		return err
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO local_records (collection, id, user_id, day, body, pending)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(collection, id) DO UPDATE SET
			user_id = excluded.user_id,
			day = excluded.day,
			body = excluded.body,
			pending = 1
	`, s.codec.Collection(), record.RecordID(), record.OwnerID(), s.day(record), string(body))
	if err != nil {
		return fmt.Errorf("%w: saving %s %s: %v", domain.ErrPersistence, s.codec.Collection(), record.RecordID(), err)
	}
	return nil
}

// Update replaces an existing record and marks it pending.
func (s *localStore[T]) Update(ctx context.Context, record T) error {
	body, err := s.codec.Encode(record)
	if err != nil {
		return err
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE local_records SET user_id = ?, day = ?, body = ?, pending = 1
		WHERE collection = ? AND id = ?
	`, record.OwnerID(), s.day(record), string(body), s.codec.Collection(), record.RecordID())
	if err != nil {
		return fmt.Errorf("%w: updating %s %s: %v", domain.ErrPersistence, s.codec.Collection(), record.RecordID(), err)
	}
	return requireAffected(res)
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *localStore[T]) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM local_records WHERE collection = ? AND id = ?", s.codec.Collection(), id)
	if err != nil {
		return fmt.Errorf("%w: deleting %s %s: %v", domain.ErrPersistence, s.codec.Collection(), id, err)
	}
	return nil
}

// GetPendingSync returns the user's pending records ordered by ID.
func (s *localStore[T]) GetPendingSync(ctx context.Context, userID string) ([]T, error) {
	return s.query(ctx, `
		SELECT body FROM local_records
		WHERE collection = ? AND user_id = ? AND pending = 1
		ORDER BY id
	`, s.codec.Collection(), userID)
}

// MarkSynced clears the pending flag of a record.
func (s *localStore[T]) MarkSynced(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE local_records SET pending = 0 WHERE collection = ? AND id = ?", s.codec.Collection(), id)
	if err != nil {
		return fmt.Errorf("%w: marking %s %s synced: %v", domain.ErrPersistence, s.codec.Collection(), id, err)
	}
	return requireAffected(res)
}

func (s *localStore[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", domain.ErrPersistence, s.codec.Collection(), err)
	}
	defer rows.Close()

	var out []T //nolint:prealloc // size unknown from query
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %v", domain.ErrPersistence, s.codec.Collection(), err)
		}
		rec, err := s.decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s: %v", domain.ErrPersistence, s.codec.Collection(), err)
	}
	return out, nil
}

func (s *localStore[T]) decode(body string) (T, error) {
	rec, err := s.codec.Decode([]byte(body))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return rec, nil
}

// dailyLogStore adds calendar lookups over the indexed day column.
type dailyLogStore struct {
	*localStore[domain.DailyLog]
}

// GetByDate returns the user's log for a day, or domain.ErrNotFound.
func (s *dailyLogStore) GetByDate(ctx context.Context, userID string, day domain.EpochDay) (domain.DailyLog, error) {
	logs, err := s.query(ctx, `
		SELECT body FROM local_records
		WHERE collection = ? AND user_id = ? AND day = ?
		ORDER BY id LIMIT 1
	`, s.codec.Collection(), userID, int64(day))
	if err != nil {
		return domain.DailyLog{}, err
	}
	if len(logs) == 0 {
		return domain.DailyLog{}, domain.ErrNotFound
	}
	return logs[0], nil
}

// GetInRange returns the user's logs with start <= Date <= end, ordered by date.
func (s *dailyLogStore) GetInRange(ctx context.Context, userID string, start, end domain.EpochDay) ([]domain.DailyLog, error) {
	return s.query(ctx, `
		SELECT body FROM local_records
		WHERE collection = ? AND user_id = ? AND day BETWEEN ? AND ?
		ORDER BY day, id
	`, s.codec.Collection(), userID, int64(start), int64(end))
}

// requireAffected maps an update that matched no row to domain.ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
