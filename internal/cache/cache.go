package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// LoadFunc fetches one value from the slow delegate.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// BatchLoadFunc fetches many values in one delegate round-trip.
// Keys missing from the returned map are left uncached.
type BatchLoadFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type entry[V any] struct {
	value V

	// expiresAt is zero when the cache has no TTL.
	expiresAt time.Time
}

// Cache is a bounded key-value cache in front of a LoadFunc.
// A single mutex guards all bookkeeping; loads run outside it.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   *simplelru.LRU[K, entry[V]]
	capacity  int
	load      LoadFunc[K, V]
	loadBatch BatchLoadFunc[K, V]
	cfg       config
	loads     singleflight.Group

	// generation changes on every invalidation so loads that started
	// earlier do not store what they fetched.
	generation uint64

	hits      uint64
	misses    uint64
	evictions uint64
}

type config struct {
	name          string
	ttl           time.Duration
	tolerateStale bool
	now           func() time.Time
}

// Option configures a Cache.
type Option func(*config)

// WithTTL expires entries d after they were stored. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		c.ttl = d
	}
}

// WithTolerateStale serves an expired value when refreshing it fails.
func WithTolerateStale() Option {
	return func(c *config) {
		c.tolerateStale = true
	}
}

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithName labels the cache in logs and statistics output.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// New creates a cache holding at most capacity entries.
func New[K comparable, V any](capacity int, load LoadFunc[K, V], opts ...Option) (*Cache[K, V], error) {
	return NewWithBatch(capacity, load, nil, opts...)
}

// NewWithBatch creates a cache whose PreloadBatch uses loadBatch.
func NewWithBatch[K comparable, V any](capacity int, load LoadFunc[K, V], loadBatch BatchLoadFunc[K, V], opts ...Option) (*Cache[K, V], error) {
	if load == nil {
		return nil, errors.New("cache: load function is required")
	}
	entries, err := simplelru.NewLRU[K, entry[V]](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	cfg := config{name: "cache", now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Cache[K, V]{
		entries:   entries,
		capacity:  capacity,
		load:      load,
		loadBatch: loadBatch,
		cfg:       cfg,
	}, nil
}

// Name returns the cache label.
func (c *Cache[K, V]) Name() string {
	return c.cfg.name
}

// Get returns the cached value for key, loading it on a miss.
// Delegate errors are returned unchanged and nothing is cached.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	cached, found, fresh := c.lookup(key)
	if fresh {
		c.hits++
		c.mu.Unlock()
		return cached.value, nil
	}
	c.misses++
	gen := c.generation
	c.mu.Unlock()

	// Concurrent misses share one delegate call. The generation is part
	// of the flight key so a Get issued after an invalidation never joins
	// a load that started before it.
	ch := c.loads.DoChan(fmt.Sprintf("%d/%#v", gen, key), func() (any, error) {
		value, err := c.load(ctx, key)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if gen == c.generation {
			c.store(key, value)
		}
		c.mu.Unlock()
		return value, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		if found && c.cfg.tolerateStale {
			logger.Debug("serving stale cache entry", "cache", c.cfg.name, logger.Err(res.Err))
			return cached.value, nil
		}
		var zero V
		return zero, res.Err
	}
	if res.Shared {
		logger.Debug("joined in-flight cache load", "cache", c.cfg.name)
	}
	value, _ := res.Val.(V)
	return value, nil
}

// Contains reports whether key holds a fresh entry. It does not affect
// recency or statistics.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key)
	return ok && !c.expired(e)
}

// Invalidate drops key. The next Get for it is a miss.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(key)
	c.generation++
}

// InvalidateAll drops every entry.
func (c *Cache[K, V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.generation++
}

// PreloadBatch caches every key in keys. It leaves the cache in the same
// state as calling Get for each key in order, but fetches all misses in
// one delegate call when a batch loader is configured.
func (c *Cache[K, V]) PreloadBatch(ctx context.Context, keys []K) error {
	c.mu.Lock()
	var missing []K
	seen := make(map[K]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			// Repeated keys are hits once the first occurrence is loaded.
			c.hits++
			continue
		}
		seen[k] = true
		if _, _, fresh := c.lookup(k); fresh {
			c.hits++
			continue
		}
		c.misses++
		missing = append(missing, k)
	}
	gen := c.generation
	c.mu.Unlock()

	if len(missing) == 0 {
		return nil
	}

	loaded, err := c.fetchMany(ctx, missing)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return err
	}
	for _, k := range keys {
		if v, ok := loaded[k]; ok {
			c.store(k, v)
			delete(loaded, k)
			continue
		}
		// Touch hits again so recency matches sequential Gets.
		c.entries.Get(k)
	}
	return err
}

// Stats returns a snapshot of the cache. It never mutates state.
func (c *Cache[K, V]) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheStats{
		Entries:   c.entries.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *Cache[K, V]) fetchMany(ctx context.Context, keys []K) (map[K]V, error) {
	if c.loadBatch != nil {
		values, err := c.loadBatch(ctx, keys)
		if err != nil {
			return nil, err
		}
		return values, nil
	}

	values := make(map[K]V, len(keys))
	var errs []error
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		v, err := c.load(ctx, k)
		if err != nil {
			errs = append(errs, fmt.Errorf("preload %v: %w", k, err))
			continue
		}
		values[k] = v
	}
	return values, errors.Join(errs...)
}

// lookup must be called with mu held. It reports a fresh hit, or returns
// the expired entry so a failed refresh can fall back to it. Expired
// entries are removed unless stale values are tolerated.
func (c *Cache[K, V]) lookup(key K) (entry[V], bool, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return e, false, false
	}
	if !c.expired(e) {
		return e, true, true
	}
	if !c.cfg.tolerateStale {
		c.entries.Remove(key)
	}
	return e, true, false
}

// store must be called with mu held.
func (c *Cache[K, V]) store(key K, value V) {
	e := entry[V]{value: value}
	if c.cfg.ttl > 0 {
		e.expiresAt = c.cfg.now().Add(c.cfg.ttl)
	}
	if c.entries.Add(key, e) {
		c.evictions++
		logger.Debug("cache eviction", "cache", c.cfg.name)
	}
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && !c.cfg.now().Before(e.expiresAt)
}
