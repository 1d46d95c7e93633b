package api

import "carebridge-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// LoginRequest carries password-grant credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the resolved profile along with the role-based
// destination the shell should navigate to.
type LoginResponse struct {
	Profile  *models.UserProfile `json:"profile"`
	Redirect string              `json:"redirect"`
}

// RegisterRequest carries the registration fields. Role accepts "nurse",
// "client" or "admin"; anything else registers a client account.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Role      string `json:"role"`
}

// RegisterResponse confirms registration and points the shell at the
// login prompt; no session is established until the email is verified.
type RegisterResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// LogoutResponse confirms sign-out. Warning is set when the remote
// sign-out failed but the local session was still cleared.
type LogoutResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	Warning  string `json:"warning,omitempty"`
}

// UpdateProfileRequest carries partial profile updates; nil fields are
// left unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// SessionResponse describes the shell's current session state.
type SessionResponse struct {
	Status       string                     `json:"status"`
	Profile      *models.UserProfile        `json:"profile,omitempty"`
	Subscription *models.SubscriptionStatus `json:"subscription,omitempty"`
}

// SubscriptionResponse returns billing state for the current nurse.
type SubscriptionResponse struct {
	Status   *models.SubscriptionStatus `json:"status"`
	Checking bool                       `json:"checking"`
}

// CreateCheckoutSessionRequest selects the plan being purchased.
type CreateCheckoutSessionRequest struct {
	PriceID string `json:"priceId" binding:"required"`
}

// RedirectURLResponse returns a checkout or portal redirect URL.
type RedirectURLResponse struct {
	URL string `json:"url"`
}
