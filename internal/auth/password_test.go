package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Password123!")

	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Password123!", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
}

func TestHashPassword_DifferentSalts(t *testing.T) {
	first, err := HashPassword("Password123!")
	require.NoError(t, err)

	second, err := HashPassword("Password123!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123!")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		digest   string
		expected bool
	}{
		{
			name:     "correct password",
			password: "Password123!",
			digest:   hash,
			expected: true,
		},
		{
			name:     "wrong password",
			password: "WrongPassword123!",
			digest:   hash,
			expected: false,
		},
		{
			name:     "empty password",
			password: "",
			digest:   hash,
			expected: false,
		},
		{
			name:     "malformed digest",
			password: "Password123!",
			digest:   "not-a-bcrypt-digest",
			expected: false,
		},
		{
			name:     "empty digest",
			password: "Password123!",
			digest:   "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CheckPassword(tt.password, tt.digest))
		})
	}
}
