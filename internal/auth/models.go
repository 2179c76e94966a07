package auth

import (
	"time"

	"nebulachat/internal/storage"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	CurrentRoomID *string    `json:"current_room_id,omitempty"`
	LastSeenAt    *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type AccountResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

func toUserResponse(u *storage.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		CurrentRoomID: u.CurrentRoomID,
		LastSeenAt:    u.LastSeenAt,
		CreatedAt:     u.CreatedAt,
	}
}

func toAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		User:        toUserResponse(a.User),
		AccessToken: a.Token.AccessToken,
		ExpiresAt:   a.Token.ExpiresAt,
	}
}
