package domain

// CacheStats is a read-only snapshot of a cache.
type CacheStats struct {
	// Entries is the number of stored entries, including expired ones
	// that have not been read since expiring.
	Entries int

	// Capacity is the configured maximum number of entries.
	Capacity int

	// Hits and Misses count reads served from and past the cache.
	Hits   uint64
	Misses uint64

	// Evictions counts entries dropped to make room.
	Evictions uint64
}

// Utilization is Entries divided by Capacity.
func (s CacheStats) Utilization() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.Entries) / float64(s.Capacity)
}

// HitRatio is the fraction of reads served from the cache.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
