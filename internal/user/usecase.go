package user

import (
	"context"
	"fmt"
	"strings"

	"nebulachat/infrastructure"
	"nebulachat/internal/storage"
)

type AccountUseCase struct {
	users storage.UserStore
}

func NewUserAccountUseCase(users storage.UserStore) *AccountUseCase {
	return &AccountUseCase{users: users}
}

func (uc *AccountUseCase) GetUserByID(ctx context.Context, id string) (*Profile, error) {
	u, err := uc.users.UserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return toProfile(u), nil
}

func (uc *AccountUseCase) GetUserByUsername(ctx context.Context, username string) (*Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", infrastructure.ErrInvalidInput)
	}
	u, err := uc.users.UserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", username, err)
	}
	return toProfile(u), nil
}
