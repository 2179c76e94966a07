package sessions

import "time"

// Session is the authenticated caller of one request or connection.
type Session struct {
	UserID        string
	Username      string
	CurrentRoomID *string
	ExpiresAt     time.Time
}

// EnterRoom records roomID as the session's current room.
func (s *Session) EnterRoom(roomID string) {
	id := roomID
	s.CurrentRoomID = &id
}

// Token is a signed access token handed to the client.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
