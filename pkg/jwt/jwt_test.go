package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWT(secret, time.Hour, nil)

	token, expiresAt, err := j.GenerateToken("user-1", "alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, _, err := NewJWT(secret, time.Hour, nil).GenerateToken("user-1", "alice")
	require.NoError(t, err)

	other := NewJWT([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, nil)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := NewJWT(secret, time.Hour, past).GenerateToken("user-1", "alice")
	require.NoError(t, err)

	_, err = NewJWT(secret, time.Hour, nil).ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWT(secret, time.Hour, nil).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateUsesInjectedClock(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j := NewJWT(secret, time.Hour, func() time.Time { return now })

	token, expiresAt, err := j.GenerateToken("user-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	now = now.Add(59 * time.Minute)
	_, err = j.ValidateToken(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = j.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
