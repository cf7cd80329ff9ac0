package conflict

import (
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// DefaultNearWindow is the largest gap classified as a near-simultaneous edit.
const DefaultNearWindow = 15 * time.Minute

// Detector classifies a pair of replicas.
type Detector struct {
	nearWindow time.Duration
}

// NewDetector creates a detector. A non-positive window uses DefaultNearWindow.
func NewDetector(nearWindow time.Duration) *Detector {
	if nearWindow <= 0 {
		nearWindow = DefaultNearWindow
	}
	return &Detector{nearWindow: nearWindow}
}

// NearWindow returns the configured grace window.
func (d *Detector) NearWindow() time.Duration {
	return d.nearWindow
}

// Detect classifies two replicas from their timestamps and whether
// their payloads are equal. Equal payloads never conflict.
func (d *Detector) Detect(local, remote time.Time, payloadsEqual bool) domain.ConflictDetection {
	if payloadsEqual {
		return domain.NoConflict
	}
	if local.Equal(remote) {
		return domain.SimultaneousEdit
	}
	gap := local.Sub(remote)
	if gap < 0 {
		gap = -gap
	}
	if gap <= d.nearWindow {
		return domain.NearSimultaneousEdit
	}
	return domain.TimestampConflict
}
