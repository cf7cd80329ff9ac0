package conflict

import (
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

type settingsMerger struct{}

func (settingsMerger) entity() domain.EntityType { return domain.EntitySettings }

func (settingsMerger) checkIdentity(local, remote domain.UserSettings) error {
	if local.UserID != remote.UserID {
		return &domain.IdentityMismatchError{Entity: domain.EntitySettings, Field: "user_id", Local: local.UserID, Remote: remote.UserID}
	}
	return nil
}

func (settingsMerger) equal(local, remote domain.UserSettings) bool {
	return equalSettings(local, remote)
}

func (settingsMerger) merge(m *fieldMerge, local, remote domain.UserSettings) domain.UserSettings {
	ln, rn := local.Notifications, remote.Notifications
	return domain.UserSettings{
		UserID: local.UserID,
		Units: domain.UnitPreferences{
			Temperature: pick(m, "units.temperature", local.Units.Temperature, remote.Units.Temperature),
			Weight:      pick(m, "units.weight", local.Units.Weight, remote.Units.Weight),
		},
		Notifications: domain.NotificationPreferences{
			DailyReminder:     latest(m, "notifications.daily_reminder", ln.DailyReminder, rn.DailyReminder),
			ReminderTime:      pickText(m, "notifications.reminder_time", ln.ReminderTime, rn.ReminderTime),
			PeriodPrediction:  latest(m, "notifications.period_prediction", ln.PeriodPrediction, rn.PeriodPrediction),
			OvulationReminder: latest(m, "notifications.ovulation_reminder", ln.OvulationReminder, rn.OvulationReminder),
		},
		Cycle: domain.CyclePreferences{
			AverageCycleLength:  pickPtr(m, "cycle.average_cycle_length", local.Cycle.AverageCycleLength, remote.Cycle.AverageCycleLength),
			AveragePeriodLength: pickPtr(m, "cycle.average_period_length", local.Cycle.AveragePeriodLength, remote.Cycle.AveragePeriodLength),
		},
		Privacy: domain.PrivacyPreferences{
			ShareAnalytics: latest(m, "privacy.share_analytics", local.Privacy.ShareAnalytics, remote.Privacy.ShareAnalytics),
			ShareResearch:  latest(m, "privacy.share_research", local.Privacy.ShareResearch, remote.Privacy.ShareResearch),
		},
		Language: pickText(m, "language", local.Language, remote.Language),
	}
}

func (settingsMerger) stamp(s domain.UserSettings, at time.Time) domain.UserSettings {
	s.UpdatedAt = at
	return s
}
