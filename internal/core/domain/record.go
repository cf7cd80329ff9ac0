package domain

import "time"

// EntityType identifies a kind of replicated record.
type EntityType string

// Replicated entity types.
const (
	EntityUser     EntityType = "user"
	EntityDailyLog EntityType = "daily_log"
	EntitySettings EntityType = "settings"
)

// IsValid returns true if the entity type is recognised.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityUser, EntityDailyLog, EntitySettings:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (e EntityType) String() string {
	return string(e)
}

// Record is implemented by every entity that takes part in sync.
type Record interface {
	// RecordID is the store key of the record.
	RecordID() string

	// OwnerID is the user the record belongs to.
	OwnerID() string

	// Modified is the last modification time of this replica.
	Modified() time.Time

	// Validate checks the entity's own invariants.
	Validate() error
}

// EpochDay is a calendar date expressed as days since 1970-01-01 UTC.
type EpochDay int64

// EpochDayOf returns the calendar day t falls on in UTC.
func EpochDayOf(t time.Time) EpochDay {
	y, m, d := t.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return EpochDay(midnight.Unix() / secondsPerDay)
}

// Time returns midnight UTC of the day.
func (d EpochDay) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// String formats the day as YYYY-MM-DD.
func (d EpochDay) String() string {
	return d.Time().Format(time.DateOnly)
}

// ParseEpochDay parses a YYYY-MM-DD date.
func ParseEpochDay(s string) (EpochDay, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, err
	}
	return EpochDayOf(t), nil
}

const secondsPerDay = 24 * 60 * 60
