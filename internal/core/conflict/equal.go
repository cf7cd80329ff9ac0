package conflict

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// Payload equality ignores modification metadata, treats nil and empty
// collections alike and compares symptom tags as a set.
var (
	userEqual = []cmp.Option{
		cmpopts.IgnoreFields(domain.User{}, "CreatedAt", "UpdatedAt"),
	}
	dailyLogEqual = []cmp.Option{
		cmpopts.IgnoreFields(domain.DailyLog{}, "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(a, b domain.Symptom) bool { return a < b }),
	}
	settingsEqual = []cmp.Option{
		cmpopts.IgnoreFields(domain.UserSettings{}, "UpdatedAt"),
	}
)

func equalUsers(a, b domain.User) bool {
	return cmp.Equal(a, b, userEqual...)
}

func equalDailyLogs(a, b domain.DailyLog) bool {
	return cmp.Equal(a, b, dailyLogEqual...)
}

func equalSettings(a, b domain.UserSettings) bool {
	return cmp.Equal(a, b, settingsEqual...)
}

// Diff describes how two replicas differ, for logs and conflict listings.
// It returns an empty string for equal payloads.
func Diff[T domain.Record](local, remote T) string {
	return cmp.Diff(local, remote, optionsFor(local)...)
}

func optionsFor(record any) []cmp.Option {
	switch record.(type) {
	case domain.User:
		return userEqual
	case domain.DailyLog:
		return dailyLogEqual
	case domain.UserSettings:
		return settingsEqual
	}
	return nil
}
