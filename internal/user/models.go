package user

import (
	"time"

	"nebulachat/internal/storage"
)

// Profile is the public view of a user.
type Profile struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

func toProfile(u *storage.User) *Profile {
	return &Profile{ID: u.ID, Username: u.Username, LastSeenAt: u.LastSeenAt}
}
