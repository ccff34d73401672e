package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUserIDIsValid(t *testing.T) {
	id := GenerateUserID()

	assert.Len(t, id, 24)
	assert.True(t, ValidateUserID(id))
	assert.NotEqual(t, id, GenerateUserID())
}

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"65a1f0c2e4b0a1b2c3d4e5f6", true},
		{"65A1F0C2E4B0A1B2C3D4E5F6", true},
		{"not-an-id", false},
		{"", false},
		{"65a1f0c2e4b0a1b2c3d4e5f", false},
		{"zza1f0c2e4b0a1b2c3d4e5f6", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateUserID(tt.id), tt.id)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "alice", NormalizeUsername(" alice\t"))
}
