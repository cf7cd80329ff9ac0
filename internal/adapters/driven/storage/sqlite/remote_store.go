package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eunio-health/eunio-sync/internal/adapters/driven/schema"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
)

var (
	_ driven.ChangeFeed                       = (*RemoteStore)(nil)
	_ driven.RemoteStore[domain.User]         = (*remoteCollection[domain.User])(nil)
	_ driven.RemoteStore[domain.DailyLog]     = (*remoteCollection[domain.DailyLog])(nil)
	_ driven.RemoteStore[domain.UserSettings] = (*remoteCollection[domain.UserSettings])(nil)
)

// RemoteStore is a document store in its own SQLite database, standing
// in for the cloud backend. Documents are versioned JSON decoded through
// the schema registry, and every write is stamped with the store clock
// for the changed-since feed.
//
// Database failures are reported as domain.ErrNetwork, the way a remote
// transport would report them, so the orchestrator retries them.
type RemoteStore struct {
	*Store
}

// NewRemoteStore opens the remote database in dataDir.
// If dataDir is empty, defaults to ~/.eunio/data.
func NewRemoteStore(dataDir string, opts ...Option) (*RemoteStore, error) {
	s, err := open(dataDir, RemoteDBName, opts)
	if err != nil {
		return nil, err
	}
	return &RemoteStore{Store: s}, nil
}

// Users returns the remote user profile collection.
func (s *RemoteStore) Users() driven.RemoteStore[domain.User] {
	return &remoteCollection[domain.User]{store: s.Store, codec: schema.UserCodec(s.registry)}
}

// DailyLogs returns the remote daily log collection.
func (s *RemoteStore) DailyLogs() driven.RemoteStore[domain.DailyLog] {
	return &remoteCollection[domain.DailyLog]{store: s.Store, codec: schema.DailyLogCodec(s.registry)}
}

// Settings returns the remote settings collection.
func (s *RemoteStore) Settings() driven.RemoteStore[domain.UserSettings] {
	return &remoteCollection[domain.UserSettings]{store: s.Store, codec: schema.SettingsCodec(s.registry)}
}

// GetChangedSince returns the user's records written after since.
func (s *RemoteStore) GetChangedSince(ctx context.Context, userID string, since time.Time) (driven.ChangeSet, error) {
	var (
		set driven.ChangeSet
		err error
	)
	if set.Users, err = changedSince(ctx, s.Store, schema.UserCodec(s.registry), userID, since); err != nil {
		return driven.ChangeSet{}, err
	}
	if set.DailyLogs, err = changedSince(ctx, s.Store, schema.DailyLogCodec(s.registry), userID, since); err != nil {
		return driven.ChangeSet{}, err
	}
	if set.Settings, err = changedSince(ctx, s.Store, schema.SettingsCodec(s.registry), userID, since); err != nil {
		return driven.ChangeSet{}, err
	}
	return set, nil
}

// GetLastSyncTimestamp returns the user's marker, or the zero time.
func (s *RemoteStore) GetLastSyncTimestamp(ctx context.Context, userID string) (time.Time, error) {
	var at int64
	err := s.db.QueryRowContext(ctx, "SELECT synced_at FROM sync_markers WHERE user_id = ?", userID).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: reading sync marker: %v", domain.ErrNetwork, err)
	}
	return fromUnixNano(at), nil
}

// UpdateLastSyncTimestamp stores the user's marker.
func (s *RemoteStore) UpdateLastSyncTimestamp(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_markers (user_id, synced_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET synced_at = excluded.synced_at
	`, userID, unixNano(at))
	if err != nil {
		return fmt.Errorf("%w: updating sync marker: %v", domain.ErrNetwork, err)
	}
	return nil
}

func changedSince[T domain.Record](ctx context.Context, s *Store, codec schema.Codec[T], userID string, since time.Time) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM remote_documents
		WHERE collection = ? AND user_id = ? AND written_at > ?
		ORDER BY id
	`, codec.Collection(), userID, unixNano(since))
	if err != nil {
		return nil, fmt.Errorf("%w: querying changed %s: %v", domain.ErrNetwork, codec.Collection(), err)
	}
	defer rows.Close()

	var out []T //nolint:prealloc // size unknown from query
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %v", domain.ErrNetwork, codec.Collection(), err)
		}
		rec, err := codec.Decode([]byte(body))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s: %v", domain.ErrNetwork, codec.Collection(), err)
	}
	return out, nil
}

// remoteCollection implements driven.RemoteStore for one collection.
type remoteCollection[T domain.Record] struct {
	store *Store
	codec schema.Codec[T]
}

// Get retrieves a record. Returns domain.ErrNotFound if absent.
func (c *remoteCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var (
		zero T
		body string
	)
	err := c.store.db.QueryRowContext(ctx,
		"SELECT body FROM remote_documents WHERE collection = ? AND id = ?",
		c.codec.Collection(), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, domain.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("%w: reading %s %s: %v", domain.ErrNetwork, c.codec.Collection(), id, err)
	}
	return c.codec.Decode([]byte(body))
}

// Save creates or replaces a record.
func (c *remoteCollection[T]) Save(ctx context.Context, record T) error {
	body, err := c.codec.Encode(record)
	if err != nil {
		return err
	}
	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO remote_documents (collection, id, user_id, schema_version, body, written_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			user_id = excluded.user_id,
			schema_version = excluded.schema_version,
			body = excluded.body,
			written_at = excluded.written_at
	`, c.codec.Collection(), record.RecordID(), record.OwnerID(),
		c.store.registry.Current(c.codec.Collection()), string(body), unixNano(c.store.now()))
	if err != nil {
		return fmt.Errorf("%w: saving %s %s: %v", domain.ErrNetwork, c.codec.Collection(), record.RecordID(), err)
	}
	return nil
}

// Update replaces an existing record. Returns domain.ErrNotFound if absent.
func (c *remoteCollection[T]) Update(ctx context.Context, record T) error {
	body, err := c.codec.Encode(record)
	if err != nil {
		return err
	}
	res, err := c.store.db.ExecContext(ctx, `
		UPDATE remote_documents
		SET user_id = ?, schema_version = ?, body = ?, written_at = ?
		WHERE collection = ? AND id = ?
	`, record.OwnerID(), c.store.registry.Current(c.codec.Collection()), string(body),
		unixNano(c.store.now()), c.codec.Collection(), record.RecordID())
	if err != nil {
		return fmt.Errorf("%w: updating %s %s: %v", domain.ErrNetwork, c.codec.Collection(), record.RecordID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
