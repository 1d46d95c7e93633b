package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"carebridge-backend-go/internal/models"
)

func TestNormalizeMetadataLegacyKeys(t *testing.T) {
	md := NormalizeMetadata(map[string]interface{}{
		"firstName": "Ana",
		"lastName":  "Souza",
		"role":      "nurse",
	})

	assert.Equal(t, "Ana", MetadataString(md, "first_name"))
	assert.Equal(t, "Souza", MetadataString(md, "last_name"))
	assert.Equal(t, "nurse", MetadataString(md, "role"))
	assert.NotContains(t, md, "firstName")
	assert.NotContains(t, md, "lastName")
}

func TestNormalizeMetadataCanonicalWins(t *testing.T) {
	md := NormalizeMetadata(map[string]interface{}{
		"first_name": "Ana",
		"firstName":  "Stale",
	})
	assert.Equal(t, "Ana", MetadataString(md, "first_name"))
}

func TestNormalizeMetadataNil(t *testing.T) {
	assert.Nil(t, NormalizeMetadata(nil))
}

func TestWriteMetadataDualSpelling(t *testing.T) {
	md := writeMetadata("Ana", "Souza", models.RoleNurse)

	assert.Equal(t, "Ana", md["first_name"])
	assert.Equal(t, "Ana", md["firstName"])
	assert.Equal(t, "Souza", md["last_name"])
	assert.Equal(t, "Souza", md["lastName"])
	assert.Equal(t, "nurse", md["role"])
}

func TestMetadataStringNonString(t *testing.T) {
	md := map[string]interface{}{"role": 42}
	assert.Equal(t, "", MetadataString(md, "role"))
	assert.Equal(t, "", MetadataString(nil, "role"))
}
