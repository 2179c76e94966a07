package storage

import "time"

type User struct {
	ID            string
	Username      string
	PasswordHash  string
	CurrentRoomID *string
	LastSeenAt    *time.Time
	CreatedAt     time.Time
}

type Room struct {
	ID           string
	AccessSecret string
	Name         string
	Description  string
	CreatedBy    string
	CreatedAt    time.Time
}

type Participant struct {
	RoomID   string
	UserID   string
	JoinedAt time.Time
	IsAdmin  bool
}

// Member is a participant joined with the user's display name.
type Member struct {
	Participant
	Username string
}

// RoomSummary is a room as seen from one of its participants.
type RoomSummary struct {
	Room
	IsAdmin          bool
	ParticipantCount int
}

type Message struct {
	ID        string
	RoomID    string
	UserID    string
	Username  string
	Content   string
	ImageRef  *string
	FileRef   *string
	FileType  *string
	ReplyToID *string
	CreatedAt time.Time
}

type TypingStatus struct {
	RoomID    string
	UserID    string
	Username  string
	IsTyping  bool
	UpdatedAt time.Time
}

// RoomUpdate carries the settings fields to overwrite; nil fields are kept.
type RoomUpdate struct {
	Name        *string
	Description *string
}
