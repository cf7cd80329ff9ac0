package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func testUser(id string) domain.User {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.User{ID: id, Email: id + "@example.com", CreatedAt: now, UpdatedAt: now}
}

func testLog(id, userID string, day domain.EpochDay) domain.DailyLog {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.DailyLog{ID: id, UserID: userID, Date: day, CreatedAt: now, UpdatedAt: now}
}

func TestLocalStore_SaveMarksPending(t *testing.T) {
	store := NewLocalStore[domain.User]()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testUser("u1")))

	got, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.True(t, store.IsPending("u1"))
	assert.Equal(t, 1, store.Len())
}

func TestLocalStore_GetMissing(t *testing.T) {
	store := NewLocalStore[domain.User]()

	_, err := store.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalStore_UpdateRequiresExisting(t *testing.T) {
	store := NewLocalStore[domain.User]()
	ctx := context.Background()

	err := store.Update(ctx, testUser("u1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, testUser("u1")))
	require.NoError(t, store.MarkSynced(ctx, "u1"))
	assert.False(t, store.IsPending("u1"))

	u := testUser("u1")
	u.Name = "Ada"
	require.NoError(t, store.Update(ctx, u))
	assert.True(t, store.IsPending("u1"))
}

func TestLocalStore_GetPendingSync(t *testing.T) {
	store := NewLocalStore[domain.User]()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(ctx, testUser(id)))
	}
	require.NoError(t, store.MarkSynced(ctx, "b"))

	pending, err := store.GetPendingSync(ctx, "a")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].ID)

	pending, err = store.GetPendingSync(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLocalStore_MarkSyncedMissing(t *testing.T) {
	store := NewLocalStore[domain.User]()

	err := store.MarkSynced(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalStore_Delete(t *testing.T) {
	store := NewLocalStore[domain.User]()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testUser("u1")))

	require.NoError(t, store.Delete(ctx, "u1"))
	require.NoError(t, store.Delete(ctx, "u1"))

	_, err := store.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, store.IsPending("u1"))
}

func TestDailyLogStore_GetByDate(t *testing.T) {
	store := NewDailyLogStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testLog("l1", "u1", 19800)))
	require.NoError(t, store.Save(ctx, testLog("l2", "u2", 19800)))

	got, err := store.GetByDate(ctx, "u2", 19800)
	require.NoError(t, err)
	assert.Equal(t, "l2", got.ID)

	_, err = store.GetByDate(ctx, "u1", 19801)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDailyLogStore_GetInRange(t *testing.T) {
	store := NewDailyLogStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testLog("l3", "u1", 19803)))
	require.NoError(t, store.Save(ctx, testLog("l1", "u1", 19801)))
	require.NoError(t, store.Save(ctx, testLog("l2", "u1", 19802)))
	require.NoError(t, store.Save(ctx, testLog("l9", "u1", 19809)))
	require.NoError(t, store.Save(ctx, testLog("x1", "u2", 19802)))

	logs, err := store.GetInRange(ctx, "u1", 19801, 19803)
	require.NoError(t, err)

	ids := make([]string, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"l1", "l2", "l3"}, ids)
}
