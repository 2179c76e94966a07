package chat

import (
	"time"

	"nebulachat/internal/storage"
)

type Attachment struct {
	Ref         string `json:"ref"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type SendInput struct {
	Content    string      `json:"content"`
	ReplyToID  *string     `json:"reply_to_id"`
	Attachment *Attachment `json:"attachment"`
}

// ReplyPreview is the quoted parent shown above a reply.
type ReplyPreview struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageView struct {
	ID        string        `json:"id"`
	RoomID    string        `json:"room_id"`
	UserID    string        `json:"user_id"`
	Username  string        `json:"username"`
	Content   string        `json:"content"`
	ImageRef  *string       `json:"image_ref,omitempty"`
	FileRef   *string       `json:"file_ref,omitempty"`
	FileType  *string       `json:"file_type,omitempty"`
	ReplyToID *string       `json:"reply_to_id,omitempty"`
	ReplyTo   *ReplyPreview `json:"reply_to,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func toMessageView(m *storage.Message) *MessageView {
	return &MessageView{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.UserID,
		Username:  m.Username,
		Content:   m.Content,
		ImageRef:  m.ImageRef,
		FileRef:   m.FileRef,
		FileType:  m.FileType,
		ReplyToID: m.ReplyToID,
		CreatedAt: m.CreatedAt,
	}
}

func toReplyPreview(m *storage.Message) *ReplyPreview {
	return &ReplyPreview{ID: m.ID, Username: m.Username, Content: m.Content, CreatedAt: m.CreatedAt}
}
