package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 32 * 1024
)

// Client is one websocket connection belonging to an authenticated user.
// A connection can join any number of sessions and receives the frames
// of all of them over a single buffered send channel.
type Client struct {
	conn     *connWrapper
	send     chan *Frame
	ID       string
	UserID   int64
	Username string

	mu       sync.Mutex
	sessions map[int64]struct{}
}

func NewClient(conn *websocket.Conn, userID int64, username string) *Client {
	return &Client{
		conn:     newConnWrapper(conn),
		send:     make(chan *Frame, 64), // buffered to avoid dead-locks on slow clients
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		sessions: make(map[int64]struct{}),
	}
}

// Enqueue hands a frame to the write pump. Frames to a client whose
// buffer is full are dropped; the backlog endpoint exists to heal gaps.
func (c *Client) Enqueue(frame *Frame) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) trackJoin(sessionID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = struct{}{}
}

func (c *Client) trackLeave(sessionID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

func (c *Client) joined(sessionID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[sessionID]
	return ok
}

// Sessions returns the ids of the sessions this connection has joined.
func (c *Client) Sessions() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int64, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	return ids
}

// ReadPump consumes frames from the socket and dispatches them through
// the relay until the connection dies. Pong deadlines bound how long a
// silent peer stays registered.
func (c *Client) ReadPump(relay *Relay) {
	defer func() {
		relay.core.Unregister() <- c
		_ = c.conn.Close()
	}()

	c.conn.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				relay.logger.Warnw("ws read error", "client_id", c.ID, "error", err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.Enqueue(NewError(0, "MALFORMED", "frame is not valid JSON", false))
			continue
		}

		relay.dispatch(c, frame)
	}
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage)
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage); err != nil {
				return
			}
		}
	}
}
