package services

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AccountLockedError is returned when the brute-force threshold has been
// reached for an identifier. Remaining is the time until the lock expires.
type AccountLockedError struct {
	Remaining time.Duration
}

// RemainingMinutes rounds the remaining lock time up to whole minutes
// for user messaging.
func (e *AccountLockedError) RemainingMinutes() int {
	minutes := int(e.Remaining / time.Minute)
	if e.Remaining%time.Minute != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked. Try again in %d minutes", e.RemainingMinutes())
}

// ErrInvalidCredentials covers both an unknown identifier and a wrong
// password, so callers cannot tell which identifiers exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrForbidden is returned when a verified token's subject does not own
// the requested resource.
var ErrForbidden = errors.New("forbidden")

// ErrAvatarStorageDisabled is returned by avatar operations when no
// object-storage backend is configured.
var ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")
