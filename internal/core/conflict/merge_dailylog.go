package conflict

import (
	"strconv"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

type dailyLogMerger struct{}

func (dailyLogMerger) entity() domain.EntityType { return domain.EntityDailyLog }

// checkIdentity requires the same record, owner and calendar day.
func (dailyLogMerger) checkIdentity(local, remote domain.DailyLog) error {
	switch {
	case local.ID != remote.ID:
		return &domain.IdentityMismatchError{Entity: domain.EntityDailyLog, Field: "id", Local: local.ID, Remote: remote.ID}
	case local.UserID != remote.UserID:
		return &domain.IdentityMismatchError{Entity: domain.EntityDailyLog, Field: "user_id", Local: local.UserID, Remote: remote.UserID}
	case local.Date != remote.Date:
		return &domain.IdentityMismatchError{
			Entity: domain.EntityDailyLog,
			Field:  "date",
			Local:  strconv.FormatInt(int64(local.Date), 10),
			Remote: strconv.FormatInt(int64(remote.Date), 10),
		}
	}
	return nil
}

func (dailyLogMerger) equal(local, remote domain.DailyLog) bool {
	return equalDailyLogs(local, remote)
}

func (dailyLogMerger) merge(m *fieldMerge, local, remote domain.DailyLog) domain.DailyLog {
	return domain.DailyLog{
		ID:            local.ID,
		UserID:        local.UserID,
		Date:          local.Date,
		PeriodFlow:    pick(m, "period_flow", local.PeriodFlow, remote.PeriodFlow),
		Symptoms:      union(local.Symptoms, remote.Symptoms),
		Mood:          pick(m, "mood", local.Mood, remote.Mood),
		BBT:           pickPtr(m, "bbt", local.BBT, remote.BBT),
		CervicalMucus: pick(m, "cervical_mucus", local.CervicalMucus, remote.CervicalMucus),
		OvulationTest: pick(m, "ovulation_test", local.OvulationTest, remote.OvulationTest),
		Notes:         joinText(m, local.Notes, remote.Notes),
		CreatedAt:     earliest(local.CreatedAt, remote.CreatedAt),
	}
}

func (dailyLogMerger) stamp(l domain.DailyLog, at time.Time) domain.DailyLog {
	l.UpdatedAt = at
	return l
}
