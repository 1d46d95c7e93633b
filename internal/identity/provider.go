package identity

import (
	"context"

	"carebridge-backend-go/internal/models"
)

// EventType identifies a session-change event emitted by the provider.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is a session-change notification. Session is nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *models.Session
}

// SignUpParams carries the fields embedded as account metadata during
// registration. Role and the display-name fields are written redundantly
// under both camelCase and snake_case keys to tolerate inconsistent
// readers of the provider's metadata map.
type SignUpParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// UpdateUserParams carries the profile fields that may be pushed back to
// the provider. Nil pointers mean "leave unchanged".
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
}

// Provider abstracts the external identity service (a GoTrue-style auth
// API). Implementations own session persistence and token material; this
// system treats both as opaque.
//
// Subscribe must be called before CurrentSession during startup so that a
// sign-in event fired while the snapshot request is in flight is not lost.
type Provider interface {
	// Subscribe registers for session-change events. The returned cancel
	// func releases the subscription and closes the channel.
	Subscribe() (<-chan Event, func())

	// CurrentSession returns the provider's current session, or (nil, nil)
	// when no session can be restored.
	CurrentSession(ctx context.Context) (*models.Session, error)

	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)

	// SignUp creates an account. It does not establish a session; the
	// provider requires email verification before the first sign-in.
	SignUp(ctx context.Context, params SignUpParams) error

	SignOut(ctx context.Context, accessToken string) error

	// UpdateUser pushes metadata changes for the authenticated user and
	// returns the provider's updated record.
	UpdateUser(ctx context.Context, accessToken string, params UpdateUserParams) (*models.RawUser, error)
}
