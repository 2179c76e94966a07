package stream

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"nebulachat/internal/api"
	"nebulachat/internal/chat"
	"nebulachat/internal/presence"
	"nebulachat/internal/room"
	"nebulachat/internal/sessions"
)

// Gateway pushes a room's new messages and typing changes to websocket
// clients and accepts typing updates from them.
type Gateway struct {
	rooms    *room.Service
	chat     *chat.Service
	presence *presence.Service
	upgrader websocket.Upgrader
}

func NewGateway(rooms *room.Service, chatService *chat.Service, presenceService *presence.Service) *Gateway {
	return &Gateway{
		rooms:    rooms,
		chat:     chatService,
		presence: presenceService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Auth is a bearer token, not a cookie, so any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (g *Gateway) ServeRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	roomID := mux.Vars(r)["id"]
	if err := g.chat.RequireMember(r.Context(), roomID, caller.UserID); err != nil {
		api.WriteError(w, r, err)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	c := newClient(conn, caller, roomID)
	ctx := context.WithoutCancel(r.Context())

	membership, err := g.rooms.WatchMembership(roomID, caller.UserID, c.leave)
	if err != nil {
		c.close(err)
		return
	}
	defer membership.Unsubscribe()

	// Events on the member topic are not ordered against the others, so
	// every delivery rechecks membership as well.
	deliver := func(f Frame) {
		if err := g.chat.RequireMember(ctx, roomID, caller.UserID); err != nil {
			c.leave()
			return
		}
		c.enqueue(f)
	}

	messages, err := g.chat.Subscribe(roomID, func(view *chat.MessageView) {
		deliver(Frame{Type: FrameMessage, Data: view})
	})
	if err != nil {
		c.close(err)
		return
	}
	defer messages.Unsubscribe()

	typing, err := g.presence.Subscribe(roomID, caller.UserID, func(usernames []string) {
		deliver(Frame{Type: FrameTyping, Data: typingData{Usernames: usernames}})
	})
	if err != nil {
		c.close(err)
		return
	}
	defer typing.Unsubscribe()

	c.logger.Info("stream opened")
	defer c.logger.Info("stream closed")

	if current, err := g.presence.GetTypingUsers(ctx, roomID, caller.UserID); err == nil {
		c.enqueue(Frame{Type: FrameTyping, Data: typingData{Usernames: current}})
	}

	go c.writePump()
	c.readPump(ctx, func(ctx context.Context, isTyping bool) error {
		return g.typing(ctx, caller, roomID, isTyping)
	})

	if g.chat.RequireMember(ctx, roomID, caller.UserID) == nil {
		g.presence.Stop(ctx, caller, roomID)
	}
}

// typing rechecks membership so a removed participant cannot keep
// broadcasting through an open socket.
func (g *Gateway) typing(ctx context.Context, caller *sessions.Session, roomID string, isTyping bool) error {
	if err := g.chat.RequireMember(ctx, roomID, caller.UserID); err != nil {
		return err
	}
	return g.presence.SetTyping(ctx, caller, roomID, isTyping)
}

func SetupRoutes(r *mux.Router, g *Gateway) {
	r.HandleFunc("/rooms/{id}/ws", g.ServeRoom).Methods(http.MethodGet)
}
