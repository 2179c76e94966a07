package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nebulachat/infrastructure"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

const strongPassword = "correct-horse-battery-staple"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestUseCase(t *testing.T) (*UseCase, *storage.MemoryStorage, *infrastructure.ManualClock, *sessions.Manager) {
	t.Helper()
	store := storage.NewMemoryStorage()
	clock := infrastructure.NewManualClock(time.Now().UTC())
	manager := sessions.NewManager(testSecret, time.Hour, clock, store)
	return NewUseCase(store, manager, clock, 40, bcrypt.MinCost), store, clock, manager
}

func TestSignup(t *testing.T) {
	uc, store, _, manager := newTestUseCase(t)
	ctx := context.Background()

	account, err := uc.Signup(ctx, "  alice ", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, "alice", account.User.Username)
	assert.NotEqual(t, strongPassword, account.User.PasswordHash)

	stored, err := store.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, account.User.ID, stored.ID)

	session, err := manager.Resolve(ctx, account.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, session.UserID)
}

func TestSignupValidation(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "al", strongPassword},
		{"long username", "a123456789012345678901234567890", strongPassword},
		{"bad characters", "alice smith", strongPassword},
		{"weak password", "alice", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Signup(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)
		})
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Signup(ctx, "alice", strongPassword)
	require.NoError(t, err)

	_, err = uc.Signup(ctx, "alice", strongPassword+"!")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, infrastructure.ErrConflict)
}

func TestLogin(t *testing.T) {
	uc, store, clock, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Signup(ctx, "alice", strongPassword)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	account, err := uc.Login(ctx, "alice", strongPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, account.Token.AccessToken)

	stored, err := store.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.LastSeenAt)
	assert.True(t, stored.LastSeenAt.Equal(clock.Now()))
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Signup(ctx, "alice", strongPassword)
	require.NoError(t, err)

	_, wrongPassword := uc.Login(ctx, "alice", "nope")
	_, unknownUser := uc.Login(ctx, "mallory", strongPassword)

	assert.ErrorIs(t, wrongPassword, infrastructure.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, infrastructure.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}
