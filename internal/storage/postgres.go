package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"nebulachat/infrastructure"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user *User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, current_room_id, last_seen_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.PasswordHash, nullString(user.CurrentRoomID), user.LastSeenAt, user.CreatedAt)
	return infrastructure.MapPostgresError(err)
}

func (s *PostgresStorage) scanUser(row *sql.Row) (*User, error) {
	var (
		user        User
		currentRoom sql.NullString
		lastSeen    sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &currentRoom, &lastSeen, &user.CreatedAt)
	if err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	user.CurrentRoomID = stringPtr(currentRoom)
	user.LastSeenAt = timePtr(lastSeen)
	if err := validateUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStorage) UserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, current_room_id, last_seen_at, created_at
		FROM users WHERE id = $1`, id))
}

func (s *PostgresStorage) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, current_room_id, last_seen_at, created_at
		FROM users WHERE username = $1`, username))
}

func (s *PostgresStorage) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	return s.execOne(ctx, "UPDATE users SET last_seen_at = $1 WHERE id = $2", at, userID)
}

func (s *PostgresStorage) SetCurrentRoom(ctx context.Context, userID string, roomID *string) error {
	return s.execOne(ctx, "UPDATE users SET current_room_id = $1 WHERE id = $2", nullString(roomID), userID)
}

func (s *PostgresStorage) CreateRoomWithAdmin(ctx context.Context, room *Room, admin *Participant) error {
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := validateParticipant(admin); err != nil {
		return err
	}
	err := infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, access_secret, name, description, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			room.ID, room.AccessSecret, room.Name, room.Description, room.CreatedBy, room.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO room_participants (room_id, user_id, joined_at, is_admin)
			VALUES ($1, $2, $3, $4)`,
			admin.RoomID, admin.UserID, admin.JoinedAt, admin.IsAdmin)
		return err
	})
	return infrastructure.MapPostgresError(err)
}

func (s *PostgresStorage) RoomByID(ctx context.Context, id string) (*Room, error) {
	var room Room
	err := s.db.QueryRowContext(ctx, `
		SELECT id, access_secret, name, description, created_by, created_at
		FROM rooms WHERE id = $1`, id).
		Scan(&room.ID, &room.AccessSecret, &room.Name, &room.Description, &room.CreatedBy, &room.CreatedAt)
	if err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	if err := validateRoom(&room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *PostgresStorage) UpdateRoom(ctx context.Context, id string, update RoomUpdate) error {
	return s.execOne(ctx, `
		UPDATE rooms
		SET name = COALESCE($1, name), description = COALESCE($2, description)
		WHERE id = $3`,
		nullString(update.Name), nullString(update.Description), id)
}

func (s *PostgresStorage) DeleteRoom(ctx context.Context, id string) error {
	err := infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		var locked string
		if err := tx.QueryRowContext(ctx, "SELECT id FROM rooms WHERE id = $1 FOR UPDATE", id).Scan(&locked); err != nil {
			return err
		}
		statements := []string{
			"DELETE FROM messages WHERE room_id = $1",
			"DELETE FROM typing_status WHERE room_id = $1",
			"DELETE FROM room_participants WHERE room_id = $1",
			"UPDATE users SET current_room_id = NULL WHERE current_room_id = $1",
			"DELETE FROM rooms WHERE id = $1",
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete room %s: %w", id, err)
			}
		}
		return nil
	})
	return infrastructure.MapPostgresError(err)
}

func (s *PostgresStorage) RoomsForUser(ctx context.Context, userID string) ([]*RoomSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.access_secret, r.name, r.description, r.created_by, r.created_at, p.is_admin,
			(SELECT COUNT(*) FROM room_participants c WHERE c.room_id = r.id)
		FROM rooms r
		JOIN room_participants p ON p.room_id = r.id
		WHERE p.user_id = $1
		ORDER BY p.joined_at ASC`, userID)
	if err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	defer rows.Close()

	var summaries []*RoomSummary
	for rows.Next() {
		var rs RoomSummary
		if err := rows.Scan(&rs.ID, &rs.AccessSecret, &rs.Name, &rs.Description, &rs.CreatedBy, &rs.CreatedAt,
			&rs.IsAdmin, &rs.ParticipantCount); err != nil {
			return nil, err
		}
		if err := validateRoom(&rs.Room); err != nil {
			return nil, err
		}
		summaries = append(summaries, &rs)
	}
	return summaries, rows.Err()
}

func (s *PostgresStorage) AddParticipant(ctx context.Context, p *Participant, capacity int) (bool, error) {
	if err := validateParticipant(p); err != nil {
		return false, err
	}
	added := false
	err := infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		// Lock the room row so concurrent joins serialize on the count below.
		var locked string
		if err := tx.QueryRowContext(ctx, "SELECT id FROM rooms WHERE id = $1 FOR UPDATE", p.RoomID).Scan(&locked); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM room_participants WHERE room_id = $1 AND user_id = $2)`,
			p.RoomID, p.UserID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}

		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM room_participants WHERE room_id = $1", p.RoomID).Scan(&count); err != nil {
			return err
		}
		if count >= capacity {
			return infrastructure.ErrRoomFull
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO room_participants (room_id, user_id, joined_at, is_admin)
			VALUES ($1, $2, $3, $4)`,
			p.RoomID, p.UserID, p.JoinedAt, p.IsAdmin); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, infrastructure.MapPostgresError(err)
	}
	return added, nil
}

func (s *PostgresStorage) Participant(ctx context.Context, roomID, userID string) (*Participant, error) {
	var p Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT room_id, user_id, joined_at, is_admin
		FROM room_participants WHERE room_id = $1 AND user_id = $2`, roomID, userID).
		Scan(&p.RoomID, &p.UserID, &p.JoinedAt, &p.IsAdmin)
	if err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	return &p, nil
}

func (s *PostgresStorage) Members(ctx context.Context, roomID string) ([]*Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.room_id, p.user_id, p.joined_at, p.is_admin, u.username
		FROM room_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1
		ORDER BY p.joined_at ASC`, roomID)
	if err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.JoinedAt, &m.IsAdmin, &m.Username); err != nil {
			return nil, err
		}
		if err := validateParticipant(&m.Participant); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (s *PostgresStorage) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	err := infrastructure.WithTransaction(s.db, ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2", roomID, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return infrastructure.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM typing_status WHERE room_id = $1 AND user_id = $2", roomID, userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET current_room_id = NULL WHERE id = $1 AND current_room_id = $2", userID, roomID)
		return err
	})
	return infrastructure.MapPostgresError(err)
}

func (s *PostgresStorage) CreateMessage(ctx context.Context, msg *Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, room_id, user_id, username, content, image_ref, file_ref, file_type, reply_to_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		msg.ID, msg.RoomID, msg.UserID, msg.Username, msg.Content,
		nullString(msg.ImageRef), nullString(msg.FileRef), nullString(msg.FileType), nullString(msg.ReplyToID),
		msg.CreatedAt)
	return infrastructure.MapPostgresError(err)
}

const messageColumns = `id, room_id, user_id, username, content, image_ref, file_ref, file_type, reply_to_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*Message, error) {
	var (
		m                                     Message
		imageRef, fileRef, fileType, replyTo sql.NullString
	)
	if err := row.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Username, &m.Content,
		&imageRef, &fileRef, &fileType, &replyTo, &m.CreatedAt); err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	m.ImageRef = stringPtr(imageRef)
	m.FileRef = stringPtr(fileRef)
	m.FileType = stringPtr(fileType)
	m.ReplyToID = stringPtr(replyTo)
	if err := validateMessage(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStorage) MessageByID(ctx context.Context, id string) (*Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = $1", id))
}

func (s *PostgresStorage) queryMessages(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *PostgresStorage) MessagesByIDs(ctx context.Context, ids []string) ([]*Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryMessages(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ANY($1)", pq.Array(ids))
}

func (s *PostgresStorage) MessagesByRoom(ctx context.Context, roomID string) ([]*Message, error) {
	return s.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE room_id = $1 ORDER BY created_at ASC, id ASC", roomID)
}

func (s *PostgresStorage) UpsertTyping(ctx context.Context, status *TypingStatus) error {
	if err := validateTyping(status); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO typing_status (room_id, user_id, username, is_typing, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id, user_id)
		DO UPDATE SET username = EXCLUDED.username, is_typing = EXCLUDED.is_typing, updated_at = EXCLUDED.updated_at`,
		status.RoomID, status.UserID, status.Username, status.IsTyping, status.UpdatedAt)
	return infrastructure.MapPostgresError(err)
}

func (s *PostgresStorage) TypingByRoom(ctx context.Context, roomID string) ([]*TypingStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id, user_id, username, is_typing, updated_at
		FROM typing_status WHERE room_id = $1`, roomID)
	if err != nil {
		return nil, infrastructure.MapPostgresError(err)
	}
	defer rows.Close()

	var statuses []*TypingStatus
	for rows.Next() {
		var t TypingStatus
		if err := rows.Scan(&t.RoomID, &t.UserID, &t.Username, &t.IsTyping, &t.UpdatedAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, &t)
	}
	return statuses, rows.Err()
}

func (s *PostgresStorage) DeleteTyping(ctx context.Context, roomID, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM typing_status WHERE room_id = $1 AND user_id = $2", roomID, userID)
	return infrastructure.MapPostgresError(err)
}

func (s *PostgresStorage) ClearRoomTyping(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM typing_status WHERE room_id = $1", roomID)
	return infrastructure.MapPostgresError(err)
}

func (s *PostgresStorage) DeleteTypingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM typing_status WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, infrastructure.MapPostgresError(err)
	}
	return res.RowsAffected()
}

func (s *PostgresStorage) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return infrastructure.MapPostgresError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return infrastructure.ErrNotFound
	}
	return nil
}
