package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"sync.strategy": "last_write_wins"})

	assert.Equal(t, "last_write_wins", store.GetString("sync.strategy"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("sync.workers", 4))
	require.NoError(t, store.Set("sync.max_attempts", int64(5)))
	require.NoError(t, store.Set("sync.rate_per_second", 2.5))
	require.NoError(t, store.Set("scheduler.enabled", true))
	require.NoError(t, store.Set("scheduler.users", []any{"u1", 7, "u2"}))

	assert.Equal(t, 4, store.GetInt("sync.workers"))
	assert.Equal(t, 5, store.GetInt("sync.max_attempts"))
	assert.Equal(t, 2, store.GetInt("sync.rate_per_second"))
	assert.InDelta(t, 2.5, store.GetFloat("sync.rate_per_second"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("sync.workers"), 1e-9)
	assert.True(t, store.GetBool("scheduler.enabled"))
	assert.Equal(t, []string{"u1", "u2"}, store.GetStringSlice("scheduler.users"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore(map[string]any{"sync.strategy": 12})

	assert.Empty(t, store.GetString("sync.strategy"))
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("sync.strategy_name"))
	assert.False(t, store.GetBool("sync.strategy"))
	assert.Nil(t, store.GetStringSlice("sync.strategy"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_SaveLoadNoop(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_Concurrent(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("sync.workers", i)
			_ = store.GetInt("sync.workers")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("sync.workers")
	assert.True(t, ok)
}
