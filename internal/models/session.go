package models

import "time"

// RawUser is the user record as reported by the identity provider.
// Metadata carries canonical snake_case keys only; the provider adapter
// normalizes the duplicate camelCase spellings before a RawUser is ever
// handed to the rest of the system.
type RawUser struct {
	ID        string                 `json:"id"`
	Email     string                 `json:"email"`
	CreatedAt string                 `json:"created_at"`
	Metadata  map[string]interface{} `json:"user_metadata"`
}

// Session is an active authenticated connection handle issued by the
// identity provider. Token material is opaque to this system; it is
// forwarded as-is on provider and billing calls. The session service is
// the only component that holds one.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *RawUser  `json:"user"`
}
