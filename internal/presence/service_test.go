package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulachat/infrastructure"
	"nebulachat/internal/realtime"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

const roomID = "41231"

var (
	alice = &sessions.Session{UserID: "id-alice", Username: "alice"}
	bob   = &sessions.Session{UserID: "id-bob", Username: "bob"}
	carol = &sessions.Session{UserID: "id-carol", Username: "carol"}
)

func newTestService(t *testing.T) (*Service, *storage.MemoryStorage, *realtime.MemoryBroker, *infrastructure.ManualClock) {
	t.Helper()
	store := storage.NewMemoryStorage()
	broker := realtime.NewMemoryBroker()
	clock := infrastructure.NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return NewService(store, broker, clock), store, broker, clock
}

func TestGetTypingUsersIgnoresStaleFlags(t *testing.T) {
	svc, _, _, clock := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, bob, roomID, true))
	clock.Advance(35 * time.Second)
	require.NoError(t, svc.SetTyping(ctx, alice, roomID, true))
	clock.Advance(5 * time.Second)

	usernames, err := svc.GetTypingUsers(ctx, roomID, carol.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames)
}

func TestGetTypingUsersExcludesCallerAndSorts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, carol, roomID, true))
	require.NoError(t, svc.SetTyping(ctx, bob, roomID, true))
	require.NoError(t, svc.SetTyping(ctx, alice, roomID, true))

	usernames, err := svc.GetTypingUsers(ctx, roomID, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, usernames)

	require.NoError(t, svc.SetTyping(ctx, carol, roomID, false))
	usernames, err = svc.GetTypingUsers(ctx, roomID, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, usernames)
}

func TestGetTypingUsersEmptyRoom(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	usernames, err := svc.GetTypingUsers(context.Background(), roomID, alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, usernames)
	assert.NotNil(t, usernames)
}

func TestCleanupRemovesOldRows(t *testing.T) {
	svc, store, _, clock := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, bob, roomID, true))
	clock.Advance(35 * time.Second)
	require.NoError(t, svc.SetTyping(ctx, alice, roomID, false))

	removed, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows, err := store.TypingByRoom(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, alice.UserID, rows[0].UserID)
}

func TestSubscribeRecomputesOnChange(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	var updates [][]string
	sub, err := svc.Subscribe(roomID, alice.UserID, func(usernames []string) {
		updates = append(updates, usernames)
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetTyping(ctx, bob, roomID, true))
	require.NoError(t, svc.SetTyping(ctx, alice, roomID, true))
	require.NoError(t, svc.SetTyping(ctx, bob, roomID, false))

	sub.Unsubscribe()
	require.NoError(t, svc.SetTyping(ctx, carol, roomID, true))

	assert.Equal(t, [][]string{{"bob"}, {"bob"}, {}}, updates)
}

func TestSubscribeIgnoresOtherRooms(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	calls := 0
	sub, err := svc.Subscribe(roomID, "", func([]string) { calls++ })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, svc.SetTyping(ctx, bob, "99999", true))
	assert.Zero(t, calls)
}

type failingTypingStore struct {
	storage.TypingStore
}

func (failingTypingStore) UpsertTyping(context.Context, *storage.TypingStatus) error {
	return errors.New("connection refused")
}

func TestSetTypingPropagatesStoreErrors(t *testing.T) {
	svc := NewService(failingTypingStore{}, realtime.NewMemoryBroker(), infrastructure.SystemClock())

	err := svc.SetTyping(context.Background(), alice, roomID, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestJanitorStopsOnCancel(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	janitor := NewJanitor(svc, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestStopRemovesRowAndNotifies(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetTyping(ctx, bob, roomID, true))

	var updates [][]string
	sub, err := svc.Subscribe(roomID, alice.UserID, func(usernames []string) {
		updates = append(updates, usernames)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	svc.Stop(ctx, bob, roomID)

	rows, err := store.TypingByRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, [][]string{{}}, updates)
}
