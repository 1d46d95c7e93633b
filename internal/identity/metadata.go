package identity

import "carebridge-backend-go/internal/models"

// Historically the frontend wrote profile metadata under camelCase keys
// while backend jobs wrote snake_case. Reads are normalized here, at the
// adapter boundary, so everything past this package sees one canonical
// (snake_case) spelling. Writes still emit both spellings for the older
// readers.

const (
	metaFirstName = "first_name"
	metaLastName  = "last_name"
	metaRole      = "role"
)

var legacyKeys = map[string]string{
	"firstName": metaFirstName,
	"lastName":  metaLastName,
}

// NormalizeMetadata returns a copy of md with canonical snake_case keys.
// A canonical key wins over its camelCase duplicate when both are set.
func NormalizeMetadata(md map[string]interface{}) map[string]interface{} {
	if md == nil {
		return nil
	}
	out := make(map[string]interface{}, len(md))
	for k, v := range md {
		if _, legacy := legacyKeys[k]; legacy {
			continue
		}
		out[k] = v
	}
	for legacy, canonical := range legacyKeys {
		v, ok := md[legacy]
		if !ok {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
	}
	return out
}

// writeMetadata builds the dual-spelling metadata map sent to the provider.
func writeMetadata(firstName, lastName string, role models.Role) map[string]interface{} {
	md := map[string]interface{}{
		metaFirstName: firstName,
		metaLastName:  lastName,
		"firstName":   firstName,
		"lastName":    lastName,
	}
	if role != "" {
		md[metaRole] = role.String()
	}
	return md
}

// MetadataString extracts a string field from normalized metadata,
// returning "" when absent or not a string.
func MetadataString(md map[string]interface{}, key string) string {
	if md == nil {
		return ""
	}
	s, _ := md[key].(string)
	return s
}
