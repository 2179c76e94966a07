package storage

import (
	"context"
	"time"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
	SetCurrentRoom(ctx context.Context, userID string, roomID *string) error
}

type RoomStore interface {
	// CreateRoomWithAdmin writes the room and its creator's admin row atomically.
	CreateRoomWithAdmin(ctx context.Context, room *Room, admin *Participant) error
	RoomByID(ctx context.Context, id string) (*Room, error)
	UpdateRoom(ctx context.Context, id string, update RoomUpdate) error
	// DeleteRoom removes the room with its messages, typing rows and participants.
	DeleteRoom(ctx context.Context, id string) error
	RoomsForUser(ctx context.Context, userID string) ([]*RoomSummary, error)
}

type ParticipantStore interface {
	// AddParticipant inserts p unless the user is already in the room.
	// It reports whether a row was added and fails with ErrRoomFull when
	// the room already holds capacity participants.
	AddParticipant(ctx context.Context, p *Participant, capacity int) (bool, error)
	Participant(ctx context.Context, roomID, userID string) (*Participant, error)
	Members(ctx context.Context, roomID string) ([]*Member, error)
	RemoveParticipant(ctx context.Context, roomID, userID string) error
}

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *Message) error
	MessageByID(ctx context.Context, id string) (*Message, error)
	MessagesByIDs(ctx context.Context, ids []string) ([]*Message, error)
	// MessagesByRoom returns the room's messages oldest first.
	MessagesByRoom(ctx context.Context, roomID string) ([]*Message, error)
}

type TypingStore interface {
	UpsertTyping(ctx context.Context, status *TypingStatus) error
	TypingByRoom(ctx context.Context, roomID string) ([]*TypingStatus, error)
	DeleteTyping(ctx context.Context, roomID, userID string) error
	ClearRoomTyping(ctx context.Context, roomID string) error
	DeleteTypingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the full persistent store used by the application.
type Store interface {
	UserStore
	RoomStore
	ParticipantStore
	MessageStore
	TypingStore
	Close() error
}
