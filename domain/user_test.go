package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserValidation(t *testing.T) {
	t.Run("username too short", func(t *testing.T) {
		_, err := NewUser(UserConfig{ID: uuid.New(), Username: "ab", PlainPassword: "correct-horse-battery"})
		assert.ErrorIs(t, err, ErrUsernameTooShort)
	})

	t.Run("username too long", func(t *testing.T) {
		_, err := NewUser(UserConfig{ID: uuid.New(), Username: "abcdefghijklmnopqrstu", PlainPassword: "correct-horse-battery"})
		assert.ErrorIs(t, err, ErrUsernameTooLong)
	})

	t.Run("username with illegal characters", func(t *testing.T) {
		_, err := NewUser(UserConfig{ID: uuid.New(), Username: "bad name!", PlainPassword: "correct-horse-battery"})
		assert.ErrorIs(t, err, ErrUsernameFormat)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := NewUser(UserConfig{ID: uuid.New(), Username: "walker_1", PlainPassword: "password"})
		assert.ErrorIs(t, err, ErrWeakPassword)
	})
}

func TestNewUserHashesPassword(t *testing.T) {
	id := uuid.New()
	u, err := NewUser(UserConfig{ID: id, Username: "walker_1", PlainPassword: "correct-horse-battery"})
	require.NoError(t, err)

	assert.Equal(t, id, u.ID)
	assert.Equal(t, "walker_1", u.Username)
	assert.NotEqual(t, "correct-horse-battery", u.PasswordHash)

	assert.True(t, u.VerifyPassword("correct-horse-battery"))
	assert.False(t, u.VerifyPassword("wrong-password"))
}
