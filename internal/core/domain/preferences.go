package domain

import (
	"fmt"
	"time"
)

// TemperatureUnit is the unit body temperature is displayed in.
type TemperatureUnit string

// Temperature units.
const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

// IsValid returns true if the unit is recognised.
func (u TemperatureUnit) IsValid() bool {
	return u == Celsius || u == Fahrenheit
}

// WeightUnit is the unit body weight is displayed in.
type WeightUnit string

// Weight units.
const (
	Kilograms WeightUnit = "kg"
	Pounds    WeightUnit = "lb"
)

// UnitPreferences holds display units.
type UnitPreferences struct {
	Temperature TemperatureUnit
	Weight      WeightUnit
}

// NotificationPreferences holds reminder settings.
type NotificationPreferences struct {
	DailyReminder bool

	// ReminderTime is "HH:MM" local time, empty when unset.
	ReminderTime string

	PeriodPrediction  bool
	OvulationReminder bool
}

// CyclePreferences holds user-supplied cycle hints.
// Nil means the user has not provided a value.
type CyclePreferences struct {
	AverageCycleLength  *int
	AveragePeriodLength *int
}

// PrivacyPreferences holds data sharing choices.
type PrivacyPreferences struct {
	ShareAnalytics bool
	ShareResearch  bool
}

// UserSettings is a user's preferences. There is exactly one per user.
type UserSettings struct {
	// UserID owns the settings and is also the record key.
	UserID string

	Units         UnitPreferences
	Notifications NotificationPreferences
	Cycle         CyclePreferences
	Privacy       PrivacyPreferences

	// Language is a BCP 47 tag, empty for the device default.
	Language string

	UpdatedAt time.Time
}

// RecordID implements Record.
func (s UserSettings) RecordID() string { return s.UserID }

// OwnerID implements Record.
func (s UserSettings) OwnerID() string { return s.UserID }

// Modified implements Record.
func (s UserSettings) Modified() time.Time { return s.UpdatedAt }

// Validate checks the settings are attached to a user and use known units.
func (s UserSettings) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("%w: settings have no user", ErrValidation)
	}
	if s.Units.Temperature != "" && !s.Units.Temperature.IsValid() {
		return fmt.Errorf("%w: unknown temperature unit %q", ErrValidation, s.Units.Temperature)
	}
	return nil
}

// DefaultUserSettings returns the settings a new user starts with.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID: userID,
		Units: UnitPreferences{
			Temperature: Celsius,
			Weight:      Kilograms,
		},
		Notifications: NotificationPreferences{
			DailyReminder:    true,
			ReminderTime:     "20:00",
			PeriodPrediction: true,
		},
	}
}
