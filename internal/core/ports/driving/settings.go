package driving

import (
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// SettingsService manages engine settings.
type SettingsService interface {
	// Get retrieves current settings, filling gaps with defaults.
	Get() (*domain.AppSettings, error)

	// Save persists settings.
	Save(settings *domain.AppSettings) error

	// SetStrategy updates the conflict resolution strategy.
	SetStrategy(strategy domain.Strategy) error

	// SetNearWindow updates the near-simultaneous grace window.
	SetNearWindow(window time.Duration) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
