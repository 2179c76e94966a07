package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"nebulachat/infrastructure"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

var ErrUsernameTaken = fmt.Errorf("%w: username already taken", infrastructure.ErrConflict)

type Account struct {
	User  *storage.User
	Token *sessions.Token
}

type UseCase struct {
	users      storage.UserStore
	sessions   *sessions.Manager
	clock      infrastructure.Clock
	minEntropy float64
	bcryptCost int
	// dummyHash is compared against for unknown usernames so both failure
	// paths cost one bcrypt comparison.
	dummyHash  string
	logger     *slog.Logger
}

func NewUseCase(users storage.UserStore, manager *sessions.Manager, clock infrastructure.Clock, minEntropy float64, bcryptCost int) *UseCase {
	dummy, _ := hashPassword(uuid.NewString(), bcryptCost)
	return &UseCase{
		users:      users,
		sessions:   manager,
		clock:      clock,
		minEntropy: minEntropy,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		logger:     slog.With("component", "auth"),
	}
}

// Signup creates an account and returns it with a fresh access token.
func (uc *UseCase) Signup(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password, uc.minEntropy); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password, uc.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", infrastructure.ErrInternalServer, err)
	}

	now := uc.clock.Now()
	user := &storage.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		LastSeenAt:   &now,
		CreatedAt:    now,
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, infrastructure.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := uc.sessions.Issue(user)
	if err != nil {
		return nil, err
	}
	uc.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return &Account{User: user, Token: token}, nil
}

// Login verifies credentials, stamps last-seen and issues a token.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*Account, error) {
	user, err := uc.users.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			verifyPassword(uc.dummyHash, password)
			return nil, infrastructure.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !verifyPassword(user.PasswordHash, password) {
		return nil, infrastructure.ErrInvalidCredentials
	}

	now := uc.clock.Now()
	if err := uc.users.TouchLastSeen(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last seen: %w", err)
	}
	user.LastSeenAt = &now

	token, err := uc.sessions.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Account{User: user, Token: token}, nil
}

// Me returns the user behind the session.
func (uc *UseCase) Me(ctx context.Context, session *sessions.Session) (*storage.User, error) {
	user, err := uc.users.UserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", session.UserID, err)
	}
	return user, nil
}
