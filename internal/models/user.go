package models

import "time"

// UserProfile is the application-level user record derived from the
// identity provider's raw user data. ID and Email are owned by the
// provider; they only change through an explicit profile update that
// round-trips through the provider first.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
