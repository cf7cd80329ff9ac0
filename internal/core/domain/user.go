package domain

import (
	"fmt"
	"strings"
	"time"
)

// HealthGoal is the user's primary reason for tracking.
type HealthGoal string

// Supported health goals.
const (
	GoalTrackCycle       HealthGoal = "track_cycle"
	GoalConceive         HealthGoal = "conceive"
	GoalAvoidPregnancy   HealthGoal = "avoid_pregnancy"
	GoalUnderstandHealth HealthGoal = "understand_health"
)

// User is a user profile.
type User struct {
	// ID is the unique identifier.
	ID string

	// Email is required and never blank.
	Email string

	// Name is the display name.
	Name string

	// OnboardingComplete is set once the user finishes onboarding.
	// It never reverts to false.
	OnboardingComplete bool

	// PrimaryGoal is empty when the user has not chosen one.
	PrimaryGoal HealthGoal

	// CreatedAt is when the profile was created.
	CreatedAt time.Time

	// UpdatedAt is when this replica was last modified.
	UpdatedAt time.Time
}

// RecordID implements Record.
func (u User) RecordID() string { return u.ID }

// OwnerID implements Record.
func (u User) OwnerID() string { return u.ID }

// Modified implements Record.
func (u User) Modified() time.Time { return u.UpdatedAt }

// Validate checks that the profile has an ID and a non-blank email.
func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: user %s has a blank email", ErrValidation, u.ID)
	}
	return nil
}
