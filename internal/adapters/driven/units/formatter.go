// Package units renders body measurements for display.
package units

import (
	"context"
	"fmt"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driven"
)

var _ driven.UnitFormatter = Formatter{}

// Formatter formats readings with two decimal places and the unit symbol.
type Formatter struct{}

// FormatTemperature implements driven.UnitFormatter. An empty unit means Celsius.
func (Formatter) FormatTemperature(ctx context.Context, celsius float64, unit domain.TemperatureUnit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch unit {
	case domain.Celsius, "":
		return fmt.Sprintf("%.2f °C", celsius), nil
	case domain.Fahrenheit:
		return fmt.Sprintf("%.2f °F", celsius*9/5+32), nil
	default:
		return "", fmt.Errorf("%w: unknown temperature unit %q", domain.ErrInvalidInput, unit)
	}
}
