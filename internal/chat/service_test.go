package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulachat/infrastructure"
	"nebulachat/internal/realtime"
	"nebulachat/internal/room"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

type fixture struct {
	chat   *Service
	rooms  *room.Service
	store  *storage.MemoryStorage
	broker *realtime.MemoryBroker
	clock  *infrastructure.ManualClock
	roomID string
	alice  *sessions.Session
	bob    *sessions.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	clock := infrastructure.NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	codes, err := infrastructure.NewCodeGenerator()
	require.NoError(t, err)
	broker := realtime.NewMemoryBroker()
	rooms := room.NewService(store, store, codes, clock, broker)
	policy := AttachmentPolicy{MaxImageBytes: 5 << 20, MaxFileBytes: 10 << 20}

	f := &fixture{
		chat:   NewService(store, rooms, broker, clock, policy),
		rooms:  rooms,
		store:  store,
		broker: broker,
		clock:  clock,
	}
	f.alice = f.user(t, "alice")
	f.bob = f.user(t, "bob")

	created, err := rooms.CreateRoom(ctx, f.alice, room.CreateRoomInput{})
	require.NoError(t, err)
	require.NoError(t, rooms.JoinRoom(ctx, f.bob, created.RoomID, created.AccessSecret))
	f.roomID = created.RoomID
	return f
}

func (f *fixture) user(t *testing.T, name string) *sessions.Session {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), &storage.User{
		ID: "id-" + name, Username: name, PasswordHash: "hash", CreatedAt: f.clock.Now(),
	}))
	return &sessions.Session{UserID: "id-" + name, Username: name}
}

func (f *fixture) send(t *testing.T, from *sessions.Session, in SendInput) *MessageView {
	t.Helper()
	f.clock.Advance(time.Second)
	view, err := f.chat.Send(context.Background(), from, f.roomID, in)
	require.NoError(t, err)
	return view
}

func TestReplyPreviewRoundTrip(t *testing.T) {
	f := newFixture(t)

	original := f.send(t, f.alice, SendInput{Content: "original"})
	reply := f.send(t, f.bob, SendInput{Content: "reply", ReplyToID: &original.ID})
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, "original", reply.ReplyTo.Content)

	history, err := f.chat.FetchHistory(context.Background(), f.roomID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, original.ID, history[0].ID)
	assert.Nil(t, history[0].ReplyTo)

	got := history[1]
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, original.ID, got.ReplyTo.ID)
	assert.Equal(t, "original", got.ReplyTo.Content)
	assert.Equal(t, "alice", got.ReplyTo.Username)
}

func TestDanglingReplyOmitsPreview(t *testing.T) {
	f := newFixture(t)

	missing := "no-such-message"
	f.send(t, f.alice, SendInput{Content: "answering the void", ReplyToID: &missing})

	history, err := f.chat.FetchHistory(context.Background(), f.roomID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].ReplyToID)
	assert.Equal(t, missing, *history[0].ReplyToID)
	assert.Nil(t, history[0].ReplyTo)
}

func TestHistoryHidesParentsFromOtherRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	foreign := &storage.Message{
		ID: "foreign", RoomID: "other-room", UserID: f.bob.UserID, Username: "bob",
		Content: "secret", CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.store.CreateMessage(ctx, foreign))
	parentID := foreign.ID
	require.NoError(t, f.store.CreateMessage(ctx, &storage.Message{
		ID: "local", RoomID: f.roomID, UserID: f.alice.UserID, Username: "alice",
		Content: "re", ReplyToID: &parentID, CreatedAt: f.clock.Now(),
	}))

	history, err := f.chat.FetchHistory(ctx, f.roomID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].ReplyToID)
	assert.Nil(t, history[0].ReplyTo)
}

func TestHistoryIsAscending(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"one", "two", "three"} {
		f.send(t, f.alice, SendInput{Content: text})
	}

	history, err := f.chat.FetchHistory(context.Background(), f.roomID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].CreatedAt.Before(history[i].CreatedAt))
	}
	assert.Equal(t, "three", history[2].Content)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mallory := f.user(t, "mallory")

	_, err := f.chat.Send(ctx, mallory, f.roomID, SendInput{Content: "let me in"})
	assert.ErrorIs(t, err, infrastructure.ErrForbidden)

	_, err = f.chat.Send(ctx, f.alice, "00000", SendInput{Content: "hello?"})
	assert.ErrorIs(t, err, infrastructure.ErrNotFound)

	_, err = f.chat.Send(ctx, f.alice, f.roomID, SendInput{Content: "   "})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)

	_, err = f.chat.Send(ctx, f.alice, f.roomID, SendInput{Content: strings.Repeat("x", maxContentLength+1)})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)

	other, err := f.rooms.CreateRoom(ctx, f.bob, room.CreateRoomInput{})
	require.NoError(t, err)
	foreign, err := f.chat.Send(ctx, f.bob, other.RoomID, SendInput{Content: "elsewhere"})
	require.NoError(t, err)
	_, err = f.chat.Send(ctx, f.bob, f.roomID, SendInput{Content: "cross", ReplyToID: &foreign.ID})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)
}

func TestSendAttachments(t *testing.T) {
	f := newFixture(t)

	image := f.send(t, f.alice, SendInput{Attachment: &Attachment{Ref: "blob/cat.png", ContentType: "image/png", Size: 2048}})
	require.NotNil(t, image.ImageRef)
	assert.Equal(t, "blob/cat.png", *image.ImageRef)
	assert.Nil(t, image.FileRef)

	file := f.send(t, f.alice, SendInput{Content: "notes", Attachment: &Attachment{Ref: "blob/notes.pdf", ContentType: "application/pdf", Size: 2048}})
	require.NotNil(t, file.FileRef)
	require.NotNil(t, file.FileType)
	assert.Equal(t, "application/pdf", *file.FileType)
	assert.Nil(t, file.ImageRef)

	_, err := f.chat.Send(context.Background(), f.alice, f.roomID, SendInput{Attachment: &Attachment{Ref: "blob/x.exe", ContentType: "application/x-msdownload", Size: 10}})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)
}

func TestSubscribeDeliversAndDedupes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var got []*MessageView
	sub, err := f.chat.Subscribe(f.roomID, func(m *MessageView) { got = append(got, m) })
	require.NoError(t, err)

	sent := f.send(t, f.alice, SendInput{Content: "hi"})
	require.Len(t, got, 1)
	assert.Equal(t, sent.ID, got[0].ID)
	assert.Equal(t, "hi", got[0].Content)

	// A redelivery of the same event must not reach the callback twice.
	event, err := realtime.NewEvent(realtime.EventMessageCreated, f.roomID, sent, sent.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, realtime.PublishEvent(ctx, f.broker, event))
	assert.Len(t, got, 1)

	sub.Unsubscribe()
	sub.Unsubscribe()
	f.send(t, f.alice, SendInput{Content: "after"})
	assert.Len(t, got, 1)
	assert.Zero(t, f.broker.Subscribers(realtime.MessagesTopic(f.roomID)))
}

func TestSendSurvivesBrokerFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.broker.Close())

	view := f.send(t, f.alice, SendInput{Content: "still stored"})
	history, err := f.chat.FetchHistory(context.Background(), f.roomID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, view.ID, history[0].ID)
}

func TestRequireMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.chat.RequireMember(ctx, f.roomID, f.bob.UserID))
	assert.ErrorIs(t, f.chat.RequireMember(ctx, f.roomID, "id-stranger"), infrastructure.ErrNotFound)
}
