package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nebulachat/infrastructure"
	"nebulachat/internal/storage"
	"nebulachat/pkg/jwt"
)

// Manager issues access tokens and turns them back into sessions.
type Manager struct {
	tokens *jwt.JWT
	users  storage.UserStore
}

func NewManager(secret []byte, ttl time.Duration, clock infrastructure.Clock, users storage.UserStore) *Manager {
	return &Manager{
		tokens: jwt.NewJWT(secret, ttl, clock.Now),
		users:  users,
	}
}

func (m *Manager) Issue(user *storage.User) (*Token, error) {
	signed, expiresAt, err := m.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", infrastructure.ErrInternalServer, err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// Resolve validates token and loads the session's user. A token for a user
// that no longer exists is rejected.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, infrastructure.ErrMissingToken
	}
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, infrastructure.ErrTokenExpired
		}
		return nil, infrastructure.ErrInvalidToken
	}

	user, err := m.users.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, infrastructure.ErrInvalidToken
		}
		return nil, err
	}

	s := &Session{
		UserID:        user.ID,
		Username:      user.Username,
		CurrentRoomID: user.CurrentRoomID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
