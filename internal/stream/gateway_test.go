package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulachat/infrastructure"
	"nebulachat/internal/api"
	"nebulachat/internal/chat"
	"nebulachat/internal/presence"
	"nebulachat/internal/realtime"
	"nebulachat/internal/room"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

type testEnv struct {
	server *httptest.Server
	rooms  *room.Service
	chat   *chat.Service
	roomID string
	tokens map[string]string
	users  map[string]*sessions.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	clock := infrastructure.SystemClock()
	store := storage.NewMemoryStorage()
	broker := realtime.NewMemoryBroker()
	codes, err := infrastructure.NewCodeGenerator()
	require.NoError(t, err)

	rooms := room.NewService(store, store, codes, clock, broker)
	chatService := chat.NewService(store, rooms, broker, clock, chat.AttachmentPolicy{MaxImageBytes: 1 << 20, MaxFileBytes: 1 << 20})
	presenceService := presence.NewService(store, broker, clock)
	manager := sessions.NewManager([]byte("0123456789abcdef0123456789abcdef"), time.Hour, clock, store)

	env := &testEnv{rooms: rooms, chat: chatService, tokens: map[string]string{}, users: map[string]*sessions.Session{}}
	for _, name := range []string{"alice", "bob", "carol"} {
		user := &storage.User{ID: "id-" + name, Username: name, PasswordHash: "hash", CreatedAt: clock.Now()}
		require.NoError(t, store.CreateUser(ctx, user))
		token, err := manager.Issue(user)
		require.NoError(t, err)
		env.tokens[name] = token.AccessToken
		env.users[name] = &sessions.Session{UserID: user.ID, Username: name}
	}

	created, err := rooms.CreateRoom(ctx, env.users["alice"], room.CreateRoomInput{})
	require.NoError(t, err)
	require.NoError(t, rooms.JoinRoom(ctx, env.users["bob"], created.RoomID, created.AccessSecret))
	env.roomID = created.RoomID

	r := mux.NewRouter()
	private := r.NewRoute().Subrouter()
	private.Use(api.Authenticate(manager))
	SetupRoutes(private, NewGateway(rooms, chatService, presenceService))

	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) dial(name string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/rooms/" + e.roomID + "/ws?token=" + e.tokens[name]
	return websocket.DefaultDialer.Dial(url, nil)
}

func (e *testEnv) connect(t *testing.T, name string) *websocket.Conn {
	t.Helper()
	conn, _, err := e.dial(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// The initial typing snapshot arrives once both subscriptions are live.
	frameType, _ := readFrame(t, conn)
	require.Equal(t, FrameTyping, frameType)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame.Type, frame.Data
}

// readUntilClosed drains frames until the server closes the socket and
// returns the close error.
func readUntilClosed(t *testing.T, conn *websocket.Conn) error {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func TestStreamDeliversMessages(t *testing.T) {
	env := newTestEnv(t)
	conn := env.connect(t, "alice")

	sent, err := env.chat.Send(context.Background(), env.users["bob"], env.roomID, chat.SendInput{Content: "hello"})
	require.NoError(t, err)

	frameType, data := readFrame(t, conn)
	require.Equal(t, FrameMessage, frameType)
	var view chat.MessageView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, sent.ID, view.ID)
	assert.Equal(t, "hello", view.Content)
	assert.Equal(t, "bob", view.Username)
}

func TestStreamRelaysTyping(t *testing.T) {
	env := newTestEnv(t)
	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")

	require.NoError(t, bob.WriteJSON(map[string]any{"type": "typing", "is_typing": true}))

	frameType, data := readFrame(t, alice)
	require.Equal(t, FrameTyping, frameType)
	assert.JSONEq(t, `{"usernames":["bob"]}`, string(data))

	require.NoError(t, bob.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, bob.Close())

	frameType, data = readFrame(t, alice)
	require.Equal(t, FrameTyping, frameType)
	assert.JSONEq(t, `{"usernames":[]}`, string(data))
}

func TestStreamRejectsOutsiders(t *testing.T) {
	env := newTestEnv(t)

	_, resp, err := env.dial("carol")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.tokens["nobody"] = ""
	_, resp, err = env.dial("nobody")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStreamClosesAfterRemoval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")

	require.NoError(t, env.rooms.RemoveParticipant(ctx, env.users["alice"], env.roomID, env.users["bob"].UserID))

	err := readUntilClosed(t, bob)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

	sent, err := env.chat.Send(ctx, env.users["alice"], env.roomID, chat.SendInput{Content: "after bob left"})
	require.NoError(t, err)

	frameType, data := readFrame(t, alice)
	require.Equal(t, FrameMessage, frameType)
	var view chat.MessageView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, sent.ID, view.ID)

	_, resp, err := env.dial("bob")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamClosesAfterRoomDeleted(t *testing.T) {
	env := newTestEnv(t)
	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")

	require.NoError(t, env.rooms.DeleteRoom(context.Background(), env.users["alice"], env.roomID))

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		err := readUntilClosed(t, conn)
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "%s: got %v", name, err)
	}
}
