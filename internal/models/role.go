package models

// Role classifies an authenticated user and governs which dashboard
// routes a session may access. The set is closed; anything the identity
// provider reports outside of it resolves to RoleClient.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleNurse  Role = "nurse"
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a raw metadata role string onto the closed Role set.
// Unknown or empty input resolves to RoleClient; an elevated role is
// never granted by default.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleNurse:
		return RoleNurse
	case RoleClient:
		return RoleClient
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleClient
	}
}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleNurse, RoleClient, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
