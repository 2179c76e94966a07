package room

import (
	"time"

	"nebulachat/internal/storage"
)

type CreateRoomInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateRoomInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type JoinRoomInput struct {
	AccessSecret string `json:"access_secret"`
}

// CreatedRoom is the only response that carries the access secret.
type CreatedRoom struct {
	RoomID       string `json:"room_id"`
	AccessSecret string `json:"access_secret"`
	Name         string `json:"name"`
}

type Details struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Summary struct {
	Details
	IsAdmin          bool `json:"is_admin"`
	ParticipantCount int  `json:"participant_count"`
}

type ParticipantView struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}

func toDetails(r *storage.Room) *Details {
	return &Details{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func toSummary(s *storage.RoomSummary) *Summary {
	return &Summary{
		Details:          *toDetails(&s.Room),
		IsAdmin:          s.IsAdmin,
		ParticipantCount: s.ParticipantCount,
	}
}

func toParticipantView(m *storage.Member) *ParticipantView {
	return &ParticipantView{
		ID:       m.UserID,
		Username: m.Username,
		IsAdmin:  m.IsAdmin,
		JoinedAt: m.JoinedAt,
	}
}
