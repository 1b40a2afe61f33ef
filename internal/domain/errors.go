package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyCompleted is returned when finalizing a session whose end time is already set.
	ErrAlreadyCompleted = errors.New("workout session already completed")
	// ErrRecordNotFound is returned when a set is logged for an exercise that is not part of the session.
	ErrRecordNotFound = errors.New("exercise not found in session")
	// ErrIncompleteInput is returned when required request fields are missing.
	ErrIncompleteInput = errors.New("incomplete input")
	// ErrSessionNotCompleted is returned when achievements are evaluated for an open session.
	ErrSessionNotCompleted = errors.New("workout session not completed")

	ErrUserNotFound         = errors.New("user not found")
	ErrSessionNotFound      = errors.New("workout session not found")
	ErrWorkoutNotFound      = errors.New("workout not found")
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrSupplementNotFound   = errors.New("supplement not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrChallengeNotFound    = errors.New("challenge not found")

	ErrChallengeEnded            = errors.New("challenge has ended")
	ErrChallengeAlreadyJoined    = errors.New("already participating in challenge")
	ErrChallengeNotJoined        = errors.New("not participating in challenge")
	ErrChallengeAlreadyCompleted = errors.New("challenge already completed")

	// ErrUnknownRequirement is returned for achievement rules outside the declared set.
	ErrUnknownRequirement = errors.New("unknown achievement requirement type")
	// ErrValidation marks malformed input for catalog operations.
	ErrValidation = errors.New("validation failed")
)

// MissingFields builds an ErrIncompleteInput naming the absent fields.
func MissingFields(fields ...string) error {
	return fmt.Errorf("%w: %s required", ErrIncompleteInput, strings.Join(fields, ", "))
}

// Invalid builds an ErrValidation with a detail message.
func Invalid(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}
