package core

import "errors"

var (
	// ErrNotAuthenticated is returned by operations that require an active
	// session when none exists.
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrNotInitialized is returned when the session service is used
	// before Initialize has run.
	ErrNotInitialized = errors.New("session service not initialized")

	// ErrBillingUnavailable wraps failures of the remote billing endpoint
	// on direct user actions (checkout, portal).
	ErrBillingUnavailable = errors.New("billing provider unavailable")
)
