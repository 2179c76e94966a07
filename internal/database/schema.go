package database

import "time"

type User struct {
	ID            string     `gorm:"primaryKey;type:text"`
	Username      string     `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash  string     `gorm:"type:text;not null"`
	CurrentRoomID *string    `gorm:"type:text"`
	LastSeenAt    *time.Time `gorm:"type:timestamptz"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null"`
}

func (User) TableName() string { return "users" }

type Room struct {
	ID           string    `gorm:"primaryKey;type:text"`
	AccessSecret string    `gorm:"type:text;uniqueIndex;not null"`
	Name         string    `gorm:"type:text;not null"`
	Description  string    `gorm:"type:text;not null;default:''"`
	CreatedBy    string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null"`
}

func (Room) TableName() string { return "rooms" }

type RoomParticipant struct {
	RoomID   string    `gorm:"primaryKey;type:text"`
	UserID   string    `gorm:"primaryKey;type:text;index"`
	JoinedAt time.Time `gorm:"type:timestamptz;not null"`
	IsAdmin  bool      `gorm:"not null;default:false"`
}

func (RoomParticipant) TableName() string { return "room_participants" }

type Message struct {
	ID        string    `gorm:"primaryKey;type:text"`
	RoomID    string    `gorm:"type:text;not null;index:idx_messages_room_created,priority:1"`
	UserID    string    `gorm:"type:text;not null"`
	Username  string    `gorm:"type:text;not null"`
	Content   string    `gorm:"type:text;not null;default:''"`
	ImageRef  *string   `gorm:"type:text"`
	FileRef   *string   `gorm:"type:text"`
	FileType  *string   `gorm:"type:text"`
	ReplyToID *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;index:idx_messages_room_created,priority:2"`
}

func (Message) TableName() string { return "messages" }

type TypingStatus struct {
	RoomID    string    `gorm:"primaryKey;type:text"`
	UserID    string    `gorm:"primaryKey;type:text"`
	Username  string    `gorm:"type:text;not null"`
	IsTyping  bool      `gorm:"not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;index"`
}

func (TypingStatus) TableName() string { return "typing_status" }
