package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nebulachat/internal/sessions"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4 << 10
	sendBufferSize = 64
)

const (
	FrameMessage = "message"
	FrameTyping  = "typing"
)

// Frame is what the server writes to the socket.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type typingData struct {
	Usernames []string `json:"usernames"`
}

// clientFrame is what clients may send. Only typing updates are accepted;
// messages go through the REST endpoint.
type clientFrame struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"is_typing"`
}

var (
	errSlowClient = errors.New("client is not reading fast enough")
	errLeftRoom   = errors.New("no longer a participant")
)

type client struct {
	conn    *websocket.Conn
	session *sessions.Session
	roomID  string
	send    chan Frame
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

func newClient(conn *websocket.Conn, session *sessions.Session, roomID string) *client {
	return &client{
		conn:    conn,
		session: session,
		roomID:  roomID,
		send:    make(chan Frame, sendBufferSize),
		done:    make(chan struct{}),
		logger:  slog.With("component", "stream", "room_id", roomID, "user_id", session.UserID),
	}
}

// enqueue never blocks a broker callback. A client whose buffer is full is
// disconnected.
func (c *client) enqueue(f Frame) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- f:
	default:
		c.close(errSlowClient)
	}
}

func (c *client) close(reason error) {
	c.once.Do(func() {
		if reason != nil {
			c.logger.Info("closing stream", "reason", reason)
		}
		close(c.done)
		_ = c.conn.Close()
	})
}

// leave tells the client it lost access to the room and drops the
// connection. WriteControl is safe alongside writePump.
func (c *client) leave() {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "removed from room")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.close(errLeftRoom)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.close(err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close(err)
				return
			}
		}
	}
}

// readPump blocks until the socket fails or the client goes away, handing
// every typing frame to onTyping.
func (c *client) readPump(ctx context.Context, onTyping func(context.Context, bool) error) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.close(err)
			} else {
				c.close(nil)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Debug("ignoring malformed frame", "error", err)
			continue
		}
		if frame.Type != FrameTyping {
			c.logger.Debug("ignoring unknown frame", "type", frame.Type)
			continue
		}
		if err := onTyping(ctx, frame.IsTyping); err != nil {
			c.close(err)
			return
		}
	}
}
