package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

func TestDetector_Detect(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(DefaultNearWindow)

	tests := []struct {
		name   string
		local  time.Time
		remote time.Time
		equal  bool
		want   domain.ConflictDetection
	}{
		{"equal payloads same time", now, now, true, domain.NoConflict},
		{"equal payloads far apart", now, now.Add(-48 * time.Hour), true, domain.NoConflict},
		{"same time", now, now, false, domain.SimultaneousEdit},
		{"five minutes", now, now.Add(-5 * time.Minute), false, domain.NearSimultaneousEdit},
		{"five minutes remote newer", now.Add(-5 * time.Minute), now, false, domain.NearSimultaneousEdit},
		{"window boundary", now, now.Add(-DefaultNearWindow), false, domain.NearSimultaneousEdit},
		{"just past window", now, now.Add(-DefaultNearWindow - time.Second), false, domain.TimestampConflict},
		{"thirty minutes", now, now.Add(-30 * time.Minute), false, domain.TimestampConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.local, tt.remote, tt.equal))
		})
	}
}

func TestNewDetector_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultNearWindow, NewDetector(0).NearWindow())
	assert.Equal(t, DefaultNearWindow, NewDetector(-time.Minute).NearWindow())
	assert.Equal(t, time.Minute, NewDetector(time.Minute).NearWindow())
}

func TestDetector_CustomWindow(t *testing.T) {
	now := time.Now()
	d := NewDetector(time.Minute)

	assert.Equal(t, domain.TimestampConflict, d.Detect(now, now.Add(-5*time.Minute), false))
}

func TestDiff(t *testing.T) {
	a := domain.User{ID: "u1", Email: "a@example.com", UpdatedAt: time.Now()}
	b := a
	b.UpdatedAt = b.UpdatedAt.Add(time.Hour)

	assert.Empty(t, Diff(a, b))

	b.Name = "Jane"
	assert.Contains(t, Diff(a, b), "Jane")
}
