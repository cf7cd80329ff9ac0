package driven

import (
	"context"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// UnitFormatter renders measurements for display.
type UnitFormatter interface {
	// FormatTemperature renders a Celsius reading in the given unit.
	FormatTemperature(ctx context.Context, celsius float64, unit domain.TemperatureUnit) (string, error)
}
