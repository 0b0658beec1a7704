package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserHashesPassword(t *testing.T) {
	u, err := NewUser(" alice ", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, u.CheckPassword("s3cret"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name, username, email, password string
	}{
		{"blank username", " ", "a@b.c", "pw"},
		{"bad email", "alice", "alice.example.com", "pw"},
		{"empty password", "alice", "a@b.c", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidUser)
		})
	}
}

func TestSetPasswordReplacesHash(t *testing.T) {
	u, err := NewUser("bob", "bob@example.com", "old")
	require.NoError(t, err)
	before := u.PasswordHash

	require.NoError(t, u.SetPassword("new"))
	assert.NotEqual(t, before, u.PasswordHash)
	assert.True(t, u.CheckPassword("new"))
	assert.False(t, u.CheckPassword("old"))
}
