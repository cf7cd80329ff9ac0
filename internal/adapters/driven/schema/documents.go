package schema

import (
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// Collection names.
const (
	CollectionUsers     = "users"
	CollectionDailyLogs = "daily_logs"
	CollectionSettings  = "user_settings"
)

// Codec converts one record type to and from stored documents.
type Codec[T domain.Record] struct {
	collection string
	encode     func(T) ([]byte, error)
	decode     func([]byte) (T, error)
}

// Collection returns the collection the codec reads and writes.
func (c Codec[T]) Collection() string { return c.collection }

// Encode returns the current-version document for rec.
func (c Codec[T]) Encode(rec T) ([]byte, error) { return c.encode(rec) }

// Decode reads a document of any known version.
func (c Codec[T]) Decode(data []byte) (T, error) { return c.decode(data) }

func newCodec[T domain.Record, D any](r *Registry, collection string, to func(T) D, from func(D) T) Codec[T] {
	return Codec[T]{
		collection: collection,
		encode: func(rec T) ([]byte, error) {
			return r.Encode(collection, to(rec))
		},
		decode: func(data []byte) (T, error) {
			var doc D
			if err := r.Decode(collection, data, &doc); err != nil {
				var zero T
				return zero, err
			}
			return from(doc), nil
		},
	}
}

// UserCodec returns the codec for user profiles.
func UserCodec(r *Registry) Codec[domain.User] {
	return newCodec(r, CollectionUsers, toUserDoc, userDoc.record)
}

// DailyLogCodec returns the codec for daily logs.
func DailyLogCodec(r *Registry) Codec[domain.DailyLog] {
	return newCodec(r, CollectionDailyLogs, toDailyLogDoc, dailyLogDoc.record)
}

// SettingsCodec returns the codec for user settings.
func SettingsCodec(r *Registry) Codec[domain.UserSettings] {
	return newCodec(r, CollectionSettings, toSettingsDoc, settingsDoc.record)
}

// Default returns a registry holding the schema history of every
// replicated collection.
func Default() *Registry {
	r := NewRegistry()
	for _, c := range []struct {
		name     string
		versions []Version
	}{
		{CollectionUsers, userVersions},
		{CollectionDailyLogs, dailyLogVersions},
		{CollectionSettings, settingsVersions},
	} {
		for _, v := range c.versions {
			if err := r.Register(c.name, v); err != nil {
				panic(err)
			}
		}
	}
	return r
}

// ==================== Users ====================

type userDoc struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	PrimaryGoal        string    `json:"primary_goal"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toUserDoc(u domain.User) userDoc {
	return userDoc{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		OnboardingComplete: u.OnboardingComplete,
		PrimaryGoal:        string(u.PrimaryGoal),
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (d userDoc) record() domain.User {
	return domain.User{
		ID:                 d.ID,
		Email:              d.Email,
		Name:               d.Name,
		OnboardingComplete: d.OnboardingComplete,
		PrimaryGoal:        domain.HealthGoal(d.PrimaryGoal),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

var userVersions = []Version{
	{Number: 1},
	{
		// v2 renamed display_name to name.
		Number:   2,
		Defaults: map[string]any{"name": "", "onboarding_complete": false},
		Upgrade:  rename("display_name", "name"),
	},
}

// ==================== Daily logs ====================

type dailyLogDoc struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Day           int64     `json:"day"`
	PeriodFlow    string    `json:"period_flow"`
	Symptoms      []string  `json:"symptoms"`
	Mood          string    `json:"mood"`
	BBT           *float64  `json:"bbt"`
	CervicalMucus string    `json:"cervical_mucus"`
	OvulationTest string    `json:"ovulation_test"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toDailyLogDoc(l domain.DailyLog) dailyLogDoc {
	var symptoms []string
	if l.Symptoms != nil {
		symptoms = make([]string, len(l.Symptoms))
		for i, s := range l.Symptoms {
			symptoms[i] = string(s)
		}
	}
	return dailyLogDoc{
		ID:            l.ID,
		UserID:        l.UserID,
		Day:           int64(l.Date),
		PeriodFlow:    string(l.PeriodFlow),
		Symptoms:      symptoms,
		Mood:          string(l.Mood),
		BBT:           l.BBT,
		CervicalMucus: string(l.CervicalMucus),
		OvulationTest: string(l.OvulationTest),
		Notes:         l.Notes,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func (d dailyLogDoc) record() domain.DailyLog {
	var symptoms []domain.Symptom
	if d.Symptoms != nil {
		symptoms = make([]domain.Symptom, len(d.Symptoms))
		for i, s := range d.Symptoms {
			symptoms[i] = domain.Symptom(s)
		}
	}
	return domain.DailyLog{
		ID:            d.ID,
		UserID:        d.UserID,
		Date:          domain.EpochDay(d.Day),
		PeriodFlow:    domain.PeriodFlow(d.PeriodFlow),
		Symptoms:      symptoms,
		Mood:          domain.Mood(d.Mood),
		BBT:           d.BBT,
		CervicalMucus: domain.CervicalMucus(d.CervicalMucus),
		OvulationTest: domain.OvulationTest(d.OvulationTest),
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

var dailyLogVersions = []Version{
	{Number: 1},
	{
		// v2 keys logs by epoch day instead of a YYYY-MM-DD date string.
		Number:   2,
		Defaults: map[string]any{"notes": ""},
		Upgrade: func(doc map[string]any) map[string]any {
			date, ok := doc["date"].(string)
			if !ok {
				return doc
			}
			if day, err := domain.ParseEpochDay(date); err == nil {
				doc["day"] = int64(day)
			}
			delete(doc, "date")
			return doc
		},
	},
}

// ==================== Settings ====================

type unitsDoc struct {
	Temperature string `json:"temperature"`
	Weight      string `json:"weight"`
}

type notificationsDoc struct {
	DailyReminder     bool   `json:"daily_reminder"`
	ReminderTime      string `json:"reminder_time"`
	PeriodPrediction  bool   `json:"period_prediction"`
	OvulationReminder bool   `json:"ovulation_reminder"`
}

type cycleDoc struct {
	AverageCycleLength  *int `json:"average_cycle_length"`
	AveragePeriodLength *int `json:"average_period_length"`
}

type privacyDoc struct {
	ShareAnalytics bool `json:"share_analytics"`
	ShareResearch  bool `json:"share_research"`
}

type settingsDoc struct {
	UserID        string           `json:"user_id"`
	Units         unitsDoc         `json:"units"`
	Notifications notificationsDoc `json:"notifications"`
	Cycle         cycleDoc         `json:"cycle"`
	Privacy       privacyDoc       `json:"privacy"`
	Language      string           `json:"language"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toSettingsDoc(s domain.UserSettings) settingsDoc {
	return settingsDoc{
		UserID: s.UserID,
		Units: unitsDoc{
			Temperature: string(s.Units.Temperature),
			Weight:      string(s.Units.Weight),
		},
		Notifications: notificationsDoc(s.Notifications),
		Cycle:         cycleDoc(s.Cycle),
		Privacy:       privacyDoc(s.Privacy),
		Language:      s.Language,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (d settingsDoc) record() domain.UserSettings {
	return domain.UserSettings{
		UserID: d.UserID,
		Units: domain.UnitPreferences{
			Temperature: domain.TemperatureUnit(d.Units.Temperature),
			Weight:      domain.WeightUnit(d.Units.Weight),
		},
		Notifications: domain.NotificationPreferences(d.Notifications),
		Cycle:         domain.CyclePreferences(d.Cycle),
		Privacy:       domain.PrivacyPreferences(d.Privacy),
		Language:      d.Language,
		UpdatedAt:     d.UpdatedAt,
	}
}

var settingsVersions = []Version{
	{Number: 1},
	{
		// v2 nests the flat unit fields and states the defaults of a new user.
		Number: 2,
		Defaults: map[string]any{
			"units": map[string]any{
				"temperature": string(domain.Celsius),
				"weight":      string(domain.Kilograms),
			},
			"notifications": map[string]any{
				"daily_reminder":    true,
				"reminder_time":     "20:00",
				"period_prediction": true,
			},
		},
		Upgrade: func(doc map[string]any) map[string]any {
			units, _ := doc["units"].(map[string]any)
			if units == nil {
				units = make(map[string]any)
			}
			if v, ok := doc["temperature_unit"]; ok {
				units["temperature"] = v
				delete(doc, "temperature_unit")
			}
			if v, ok := doc["weight_unit"]; ok {
				units["weight"] = v
				delete(doc, "weight_unit")
			}
			if len(units) > 0 {
				doc["units"] = units
			}
			return doc
		},
	},
}

// rename moves a field to a new key unless the new key is already set.
func rename(from, to string) Upgrade {
	return func(doc map[string]any) map[string]any {
		if v, ok := doc[from]; ok {
			if _, exists := doc[to]; !exists {
				doc[to] = v
			}
			delete(doc, from)
		}
		return doc
	}
}
