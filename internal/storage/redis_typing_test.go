package storage

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

func setupRedisTyping(t *testing.T) *RedisTypingStorage {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	prefix := "nebula-test:" + t.Name() + ":"
	s := NewRedisTypingStorage(client, prefix)
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return s
}

func TestRedisTypingStorage(t *testing.T) {
	s := setupRedisTyping(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.UpsertTyping(ctx, &TypingStatus{RoomID: "r1", UserID: "a", Username: "alice", IsTyping: true, UpdatedAt: now}))
	require.NoError(t, s.UpsertTyping(ctx, &TypingStatus{RoomID: "r1", UserID: "b", Username: "bob", IsTyping: true, UpdatedAt: now.Add(-time.Minute)}))

	rows, err := s.TypingByRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	removed, err := s.DeleteTypingBefore(ctx, now.Add(-30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows, err = s.TypingByRoom(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Username)
	assert.True(t, rows[0].UpdatedAt.Equal(now))

	require.NoError(t, s.DeleteTyping(ctx, "r1", "a"))
	rows, err = s.TypingByRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
