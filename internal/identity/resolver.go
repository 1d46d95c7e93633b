package identity

import (
	"fmt"
	"time"

	"carebridge-backend-go/internal/models"
)

// ResolveProfile maps a raw provider user record onto a UserProfile.
//
// Display-name fields default to "" when absent. The role metadata field
// resolves through models.ParseRole, so a missing or unrecognized role
// yields RoleClient and never an elevated role. Any extraction failure
// fails resolution as a whole; the caller treats the user as
// unauthenticated.
func ResolveProfile(raw *models.RawUser) (*models.UserProfile, error) {
	if raw == nil {
		return nil, fmt.Errorf("resolve profile: raw user record is nil")
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("resolve profile: user record has no identifier")
	}
	if raw.Email == "" {
		return nil, fmt.Errorf("resolve profile: user record has no email")
	}

	createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("resolve profile: invalid creation timestamp %q: %w", raw.CreatedAt, err)
	}

	// The GoTrue adapter already normalizes; normalizing again keeps the
	// canonical-key guarantee for any other Provider implementation.
	md := NormalizeMetadata(raw.Metadata)

	return &models.UserProfile{
		ID:        raw.ID,
		Email:     raw.Email,
		FirstName: MetadataString(md, metaFirstName),
		LastName:  MetadataString(md, metaLastName),
		Role:      models.ParseRole(MetadataString(md, metaRole)),
		CreatedAt: createdAt,
	}, nil
}
