package cache

import (
	"context"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
)

var (
	_ driven.UnitFormatter = (*UnitFormatter)(nil)
	_ driving.CacheControl = (*UnitFormatter)(nil)
)

type formatKey struct {
	celsius float64
	unit    domain.TemperatureUnit
}

// UnitFormatter caches formatted measurements.
type UnitFormatter struct {
	cache *Cache[formatKey, string]
}

// NewUnitFormatter wraps delegate with a cache of the given capacity.
func NewUnitFormatter(delegate driven.UnitFormatter, capacity int, opts ...Option) (*UnitFormatter, error) {
	load := func(ctx context.Context, k formatKey) (string, error) {
		return delegate.FormatTemperature(ctx, k.celsius, k.unit)
	}
	c, err := New[formatKey, string](capacity, load, append([]Option{WithName("units")}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &UnitFormatter{cache: c}, nil
}

// FormatTemperature implements driven.UnitFormatter.
func (f *UnitFormatter) FormatTemperature(ctx context.Context, celsius float64, unit domain.TemperatureUnit) (string, error) {
	return f.cache.Get(ctx, formatKey{celsius: celsius, unit: unit})
}

// InvalidateAll drops every cached string, for example after a locale change.
func (f *UnitFormatter) InvalidateAll() { f.cache.InvalidateAll() }

// Stats implements driving.CacheControl.
func (f *UnitFormatter) Stats() domain.CacheStats { return f.cache.Stats() }

// Name implements driving.CacheControl.
func (f *UnitFormatter) Name() string { return f.cache.Name() }
