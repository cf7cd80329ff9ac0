package domain

import (
	"fmt"
	"slices"
	"time"
)

// PeriodFlow is the recorded menstrual flow intensity.
type PeriodFlow string

// Period flow levels.
const (
	FlowSpotting PeriodFlow = "spotting"
	FlowLight    PeriodFlow = "light"
	FlowMedium   PeriodFlow = "medium"
	FlowHeavy    PeriodFlow = "heavy"
)

// Mood is the recorded mood for the day.
type Mood string

// Moods.
const (
	MoodHappy     Mood = "happy"
	MoodCalm      Mood = "calm"
	MoodSad       Mood = "sad"
	MoodAnxious   Mood = "anxious"
	MoodIrritable Mood = "irritable"
	MoodTired     Mood = "tired"
)

// Symptom is a tag for a physical symptom.
type Symptom string

// Symptoms.
const (
	SymptomCramps           Symptom = "cramps"
	SymptomBloating         Symptom = "bloating"
	SymptomHeadache         Symptom = "headache"
	SymptomBreastTenderness Symptom = "breast_tenderness"
	SymptomAcne             Symptom = "acne"
	SymptomFatigue          Symptom = "fatigue"
	SymptomNausea           Symptom = "nausea"
)

// CervicalMucus is the observed cervical mucus type.
type CervicalMucus string

// Cervical mucus types.
const (
	MucusDry      CervicalMucus = "dry"
	MucusSticky   CervicalMucus = "sticky"
	MucusCreamy   CervicalMucus = "creamy"
	MucusWatery   CervicalMucus = "watery"
	MucusEggWhite CervicalMucus = "egg_white"
)

// OvulationTest is the result of an ovulation predictor test.
type OvulationTest string

// Ovulation test results.
const (
	OvulationNegative OvulationTest = "negative"
	OvulationPositive OvulationTest = "positive"
	OvulationPeak     OvulationTest = "peak"
)

// DailyLog is one user's health entries for one calendar day.
// Empty enum values and a nil BBT mean "not recorded".
type DailyLog struct {
	// ID is the unique identifier.
	ID string

	// UserID owns the log.
	UserID string

	// Date is the calendar day the log refers to.
	Date EpochDay

	PeriodFlow    PeriodFlow
	Symptoms      []Symptom
	Mood          Mood
	BBT           *float64
	CervicalMucus CervicalMucus
	OvulationTest OvulationTest

	// Notes is free text.
	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordID implements Record.
func (l DailyLog) RecordID() string { return l.ID }

// OwnerID implements Record.
func (l DailyLog) OwnerID() string { return l.UserID }

// Modified implements Record.
func (l DailyLog) Modified() time.Time { return l.UpdatedAt }

// Validate checks that the log is attached to a user.
func (l DailyLog) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: daily log id is required", ErrValidation)
	}
	if l.UserID == "" {
		return fmt.Errorf("%w: daily log %s has no user", ErrValidation, l.ID)
	}
	return nil
}

// HasSymptom reports whether s was recorded.
func (l DailyLog) HasSymptom(s Symptom) bool {
	return slices.Contains(l.Symptoms, s)
}
