package conversation

import "errors"

var (
	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrOnboardingExists rejects a second onboarding creation for a user
	// whose onboarding conversation or completion flag already exists.
	ErrOnboardingExists = errors.New("onboarding conversation already exists")

	// ErrOnboardingIncomplete rejects task creation before the user's
	// onboarding is complete.
	ErrOnboardingIncomplete = errors.New("onboarding not complete")

	// ErrOnboardingUndeletable rejects deletion of the onboarding
	// conversation; only task conversations can be deleted.
	ErrOnboardingUndeletable = errors.New("onboarding conversation cannot be deleted")

	// ErrEmptyMessage rejects appends whose content would be empty.
	ErrEmptyMessage = errors.New("message content cannot be empty")
)
