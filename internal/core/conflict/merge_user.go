package conflict

import (
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

type userMerger struct{}

func (userMerger) entity() domain.EntityType { return domain.EntityUser }

func (userMerger) checkIdentity(local, remote domain.User) error {
	if local.ID != remote.ID {
		return &domain.IdentityMismatchError{Entity: domain.EntityUser, Field: "id", Local: local.ID, Remote: remote.ID}
	}
	return nil
}

func (userMerger) equal(local, remote domain.User) bool {
	return equalUsers(local, remote)
}

func (userMerger) merge(m *fieldMerge, local, remote domain.User) domain.User {
	return domain.User{
		ID:                 local.ID,
		Email:              pickText(m, "email", local.Email, remote.Email),
		Name:               pickText(m, "name", local.Name, remote.Name),
		OnboardingComplete: reached(local.OnboardingComplete, remote.OnboardingComplete),
		PrimaryGoal:        pick(m, "primary_goal", local.PrimaryGoal, remote.PrimaryGoal),
		CreatedAt:          earliest(local.CreatedAt, remote.CreatedAt),
	}
}

func (userMerger) stamp(u domain.User, at time.Time) domain.User {
	u.UpdatedAt = at
	return u
}
