// Package cache provides a bounded, generic read cache and the caching
// decorators that front the repositories.
//
// Cache evicts the least recently used entry once full and expires entries
// lazily on read when a TTL is set. Failed loads are never cached. The
// decorators expose the same methods as the repository they wrap, plus
// invalidation, batch preloading and statistics.
package cache
