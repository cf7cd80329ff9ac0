package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// setupTestStore creates a local store in a temporary directory.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	return store, func() {
		assert.NoError(t, store.Close())
	}
}

func testUser(id string, updated time.Time) domain.User {
	return domain.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "User " + id,
		CreatedAt: baseTime.Add(-24 * time.Hour),
		UpdatedAt: updated,
	}
}

func testLog(id, userID string, day domain.EpochDay) domain.DailyLog {
	bbt := 36.6
	return domain.DailyLog{
		ID:        id,
		UserID:    userID,
		Date:      day,
		Mood:      domain.MoodCalm,
		Symptoms:  []domain.Symptom{domain.SymptomCramps},
		BBT:       &bbt,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

// ==================== Store Tests ====================

func TestNewStore_MigratesOnce(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Users().Save(context.Background(), testUser("u1", baseTime)))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	got, err := second.Users().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.Contains(t, second.Path(), LocalDBName)
}

// ==================== Local Store Tests ====================

func TestLocalStore_SaveGetAndPending(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	users := store.Users()

	_, err := users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	user := testUser("u1", baseTime)
	require.NoError(t, users.Save(ctx, user))

	got, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	pending, err := users.GetPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, users.MarkSynced(ctx, "u1"))
	pending, err = users.GetPendingSync(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Save marks the record pending again.
	user.Name = "Renamed"
	require.NoError(t, users.Save(ctx, user))
	pending, err = users.GetPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Renamed", pending[0].Name)
}

func TestLocalStore_UpdateAndMarkSynced_Missing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	settings := store.Settings()

	err := settings.Update(ctx, domain.DefaultUserSettings("u1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = settings.MarkSynced(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalStore_Update(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	settings := store.Settings()

	s := domain.DefaultUserSettings("u1")
	require.NoError(t, settings.Save(ctx, s))
	require.NoError(t, settings.MarkSynced(ctx, "u1"))

	s.Language = "fr"
	require.NoError(t, settings.Update(ctx, s))

	got, err := settings.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "fr", got.Language)

	pending, err := settings.GetPendingSync(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestLocalStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	users := store.Users()

	require.NoError(t, users.Save(ctx, testUser("u1", baseTime)))
	require.NoError(t, users.Delete(ctx, "u1"))
	require.NoError(t, users.Delete(ctx, "u1"), "deleting a missing record is not an error")

	_, err := users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalStore_PendingScopedByUserAndCollection(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	logs := store.DailyLogs()

	require.NoError(t, logs.Save(ctx, testLog("log-b", "u1", 100)))
	require.NoError(t, logs.Save(ctx, testLog("log-a", "u1", 101)))
	require.NoError(t, logs.Save(ctx, testLog("log-c", "u2", 100)))
	require.NoError(t, store.Users().Save(ctx, testUser("u1", baseTime)))

	pending, err := logs.GetPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "log-a", pending[0].ID)
	assert.Equal(t, "log-b", pending[1].ID)
}

func TestDailyLogStore_GetByDate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	logs := store.DailyLogs()

	log := testLog("log-1", "u1", 19783)
	require.NoError(t, logs.Save(ctx, log))

	got, err := logs.GetByDate(ctx, "u1", 19783)
	require.NoError(t, err)
	assert.Equal(t, log, got)

	_, err = logs.GetByDate(ctx, "u1", 19784)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = logs.GetByDate(ctx, "u2", 19783)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDailyLogStore_GetInRange(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	logs := store.DailyLogs()

	for i, day := range []domain.EpochDay{105, 100, 103, 110} {
		require.NoError(t, logs.Save(ctx, testLog(string(rune('a'+i)), "u1", day)))
	}

	got, err := logs.GetInRange(ctx, "u1", 100, 105)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.EpochDay(100), got[0].Date)
	assert.Equal(t, domain.EpochDay(103), got[1].Date)
	assert.Equal(t, domain.EpochDay(105), got[2].Date)

	got, err = logs.GetInRange(ctx, "u1", 106, 109)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalStore_CorruptDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.db.Exec(
		"INSERT INTO local_records (collection, id, user_id, body) VALUES ('users', 'bad', 'bad', '{not json')")
	require.NoError(t, err)

	_, err = store.Users().GetByID(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

// ==================== Conflict Store Tests ====================

func testConflict(id, userID, recordID string, detected time.Time) domain.PendingConflict {
	return domain.PendingConflict{
		ID:         id,
		UserID:     userID,
		Entity:     domain.EntityDailyLog,
		RecordID:   recordID,
		Detection:  domain.TimestampConflict,
		Local:      json.RawMessage(`{"id":"` + recordID + `","mood":"calm"}`),
		Remote:     json.RawMessage(`{"id":"` + recordID + `","mood":"sad"}`),
		Reason:     "user guided",
		DetectedAt: detected,
	}
}

func TestConflictStore_SaveGetFind(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	conflicts := store.ConflictStore()

	_, err := conflicts.Get(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrConflictNotFound)

	c := testConflict("c1", "u1", "log-1", baseTime)
	require.NoError(t, conflicts.Save(ctx, c))

	got, err := conflicts.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.RecordID, got.RecordID)
	assert.Equal(t, c.Detection, got.Detection)
	assert.JSONEq(t, string(c.Local), string(got.Local))
	assert.JSONEq(t, string(c.Remote), string(got.Remote))
	assert.True(t, c.DetectedAt.Equal(got.DetectedAt))

	found, err := conflicts.FindByRecord(ctx, domain.EntityDailyLog, "log-1")
	require.NoError(t, err)
	assert.Equal(t, "c1", found.ID)

	_, err = conflicts.FindByRecord(ctx, domain.EntityUser, "log-1")
	assert.ErrorIs(t, err, domain.ErrConflictNotFound)
}

func TestConflictStore_SaveReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	conflicts := store.ConflictStore()

	c := testConflict("c1", "u1", "log-1", baseTime)
	require.NoError(t, conflicts.Save(ctx, c))
	c.Reason = "updated"
	require.NoError(t, conflicts.Save(ctx, c))

	got, err := conflicts.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Reason)

	assert.ErrorIs(t, conflicts.Save(ctx, domain.PendingConflict{}), domain.ErrInvalidInput)
}

func TestConflictStore_ListAndDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	conflicts := store.ConflictStore()

	require.NoError(t, conflicts.Save(ctx, testConflict("c2", "u1", "log-2", baseTime.Add(time.Minute))))
	require.NoError(t, conflicts.Save(ctx, testConflict("c1", "u1", "log-1", baseTime)))
	require.NoError(t, conflicts.Save(ctx, testConflict("c3", "u2", "log-3", baseTime)))

	list, err := conflicts.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ID, "oldest first")
	assert.Equal(t, "c2", list[1].ID)

	require.NoError(t, conflicts.Delete(ctx, "c1"))
	require.NoError(t, conflicts.Delete(ctx, "c1"))

	list, err = conflicts.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// ==================== Helper Function Tests ====================

func TestUnixNano_ZeroTime(t *testing.T) {
	assert.Zero(t, unixNano(time.Time{}))
	assert.True(t, fromUnixNano(0).IsZero())

	now := time.Date(2024, 3, 1, 9, 0, 0, 123, time.UTC)
	assert.True(t, now.Equal(fromUnixNano(unixNano(now))))
}
