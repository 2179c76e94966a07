package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedRecord is returned when a stored row lacks required fields.
var ErrMalformedRecord = errors.New("malformed record")

func malformed(kind, field, id string) error {
	return fmt.Errorf("%w: %s %q missing %s", ErrMalformedRecord, kind, id, field)
}

func validateUser(u *User) error {
	switch {
	case u.ID == "":
		return malformed("user", "id", u.ID)
	case u.Username == "":
		return malformed("user", "username", u.ID)
	case u.PasswordHash == "":
		return malformed("user", "password hash", u.ID)
	}
	return nil
}

func validateRoom(r *Room) error {
	switch {
	case r.ID == "":
		return malformed("room", "id", r.ID)
	case r.AccessSecret == "":
		return malformed("room", "access secret", r.ID)
	case r.Name == "":
		return malformed("room", "name", r.ID)
	case r.CreatedBy == "":
		return malformed("room", "creator", r.ID)
	}
	return nil
}

func validateParticipant(p *Participant) error {
	switch {
	case p.RoomID == "":
		return malformed("participant", "room id", p.UserID)
	case p.UserID == "":
		return malformed("participant", "user id", p.RoomID)
	}
	return nil
}

func validateMessage(m *Message) error {
	switch {
	case m.ID == "":
		return malformed("message", "id", m.ID)
	case m.RoomID == "":
		return malformed("message", "room id", m.ID)
	case m.UserID == "":
		return malformed("message", "user id", m.ID)
	case m.CreatedAt.IsZero():
		return malformed("message", "created at", m.ID)
	}
	return nil
}

func validateTyping(t *TypingStatus) error {
	switch {
	case t.RoomID == "":
		return malformed("typing status", "room id", t.UserID)
	case t.UserID == "":
		return malformed("typing status", "user id", t.RoomID)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneUser(u *User) *User {
	c := *u
	c.CurrentRoomID = cloneString(u.CurrentRoomID)
	if u.LastSeenAt != nil {
		t := *u.LastSeenAt
		c.LastSeenAt = &t
	}
	return &c
}

func cloneMessage(m *Message) *Message {
	c := *m
	c.ImageRef = cloneString(m.ImageRef)
	c.FileRef = cloneString(m.FileRef)
	c.FileType = cloneString(m.FileType)
	c.ReplyToID = cloneString(m.ReplyToID)
	return &c
}
