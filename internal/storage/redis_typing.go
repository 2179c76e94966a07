package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// typingKeyTTL bounds how long an idle room's hash survives without cleanup.
const typingKeyTTL = 30 * time.Second

type typingEntry struct {
	Username  string    `json:"username"`
	IsTyping  bool      `json:"is_typing"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisTypingStorage keeps typing rows in one hash per room, keyed by user id.
type RedisTypingStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisTypingStorage(client *redis.Client, prefix string) *RedisTypingStorage {
	return &RedisTypingStorage{client: client, prefix: prefix}
}

func (s *RedisTypingStorage) key(roomID string) string {
	return s.prefix + "typing:" + roomID
}

func (s *RedisTypingStorage) UpsertTyping(ctx context.Context, status *TypingStatus) error {
	if err := validateTyping(status); err != nil {
		return err
	}
	data, err := json.Marshal(typingEntry{
		Username:  status.Username,
		IsTyping:  status.IsTyping,
		UpdatedAt: status.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal typing status: %w", err)
	}

	key := s.key(status.RoomID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, status.UserID, data)
	pipe.Expire(ctx, key, typingKeyTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisTypingStorage) TypingByRoom(ctx context.Context, roomID string) ([]*TypingStatus, error) {
	fields, err := s.client.HGetAll(ctx, s.key(roomID)).Result()
	if err != nil {
		return nil, err
	}

	statuses := make([]*TypingStatus, 0, len(fields))
	for userID, raw := range fields {
		var entry typingEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			slog.Warn("skipping unreadable typing entry", "room_id", roomID, "user_id", userID, "error", err)
			continue
		}
		statuses = append(statuses, &TypingStatus{
			RoomID:    roomID,
			UserID:    userID,
			Username:  entry.Username,
			IsTyping:  entry.IsTyping,
			UpdatedAt: entry.UpdatedAt,
		})
	}
	return statuses, nil
}

func (s *RedisTypingStorage) DeleteTyping(ctx context.Context, roomID, userID string) error {
	return s.client.HDel(ctx, s.key(roomID), userID).Err()
}

func (s *RedisTypingStorage) ClearRoomTyping(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, s.key(roomID)).Err()
}

func (s *RedisTypingStorage) DeleteTypingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		removed int64
		cursor  uint64
	)
	pattern := s.prefix + "typing:*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, err
		}
		for _, key := range keys {
			n, err := s.pruneKey(ctx, key, cutoff)
			if err != nil {
				return removed, err
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (s *RedisTypingStorage) pruneKey(ctx context.Context, key string, cutoff time.Time) (int64, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	var stale []string
	for userID, raw := range fields {
		var entry typingEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.UpdatedAt.Before(cutoff) {
			stale = append(stale, userID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.client.HDel(ctx, key, stale...).Err(); err != nil {
		return 0, fmt.Errorf("prune %s: %w", strings.TrimPrefix(key, s.prefix), err)
	}
	return int64(len(stale)), nil
}
