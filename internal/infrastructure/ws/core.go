// Package ws carries the realtime side of the relay: one connection per
// authenticated user, session groups, and ordered event fan-out.
package ws

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/chronicler-app/chronicler/internal/domain"
)

// Core owns connection lifecycle and broadcast ordering. All fan-out
// flows through its single Run goroutine, so every member of a group
// observes events in the same order they were accepted.
type Core struct {
	groups     *GroupManager
	register   chan *Client
	unregister chan *Client
	broadcast  chan domain.SessionEvent
	logger     *zap.SugaredLogger
}

func NewCore(logger *zap.SugaredLogger) *Core {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Core{
		groups:     NewGroupManager(logger),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan domain.SessionEvent, 256),
		logger:     logger,
	}
}

// Run processes lifecycle and broadcast traffic until ctx is canceled.
func (c *Core) Run(ctx context.Context) {
	clients := make(map[string]*Client)

	for {
		select {
		case <-ctx.Done():
			c.shutdown(clients)
			return

		case cl := <-c.register:
			clients[cl.ID] = cl

		case cl := <-c.unregister:
			if _, ok := clients[cl.ID]; !ok {
				continue
			}
			delete(clients, cl.ID)

			// The peer is gone: announce its departure to every group
			// it was still in, then release the write pump.
			left := c.groups.LeaveAll(cl)
			for _, sessionID := range left {
				c.fanOut(departureEvent(sessionID, cl))
			}
			close(cl.send)

		case evt := <-c.broadcast:
			c.fanOut(evt)
		}
	}
}

// shutdown closes every live socket, then keeps servicing lifecycle
// traffic until each read pump has unregistered itself. A send channel
// may only be closed after its pump has stopped dispatching, and the
// unregister channel must stay drained or those pumps block forever.
func (c *Core) shutdown(clients map[string]*Client) {
	for _, cl := range clients {
		_ = cl.conn.Close()
	}

	for len(clients) > 0 {
		select {
		case cl := <-c.register:
			// Late arrival during shutdown: track it so its unregister
			// is also drained, and cut the socket.
			clients[cl.ID] = cl
			_ = cl.conn.Close()

		case cl := <-c.unregister:
			if _, ok := clients[cl.ID]; !ok {
				continue
			}
			delete(clients, cl.ID)
			c.groups.LeaveAll(cl)
			close(cl.send)

		case <-c.broadcast:
			// Dropped: the process is going away.
		}
	}
}

// BroadcastEvent queues one event for ordered fan-out to its session
// group. It is the realtime leg of the event pipeline.
func (c *Core) BroadcastEvent(evt domain.SessionEvent) {
	c.broadcast <- evt
}

func (c *Core) Register() chan<- *Client {
	return c.register
}

func (c *Core) Unregister() chan<- *Client {
	return c.unregister
}

// MemberCount reports the live subscriber count of a session group.
func (c *Core) MemberCount(sessionID int64) int {
	return c.groups.MemberCount(sessionID)
}

func (c *Core) fanOut(evt domain.SessionEvent) {
	if err := c.groups.Broadcast(NewEventCreated(evt)); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			// Nobody is listening; persisted events are still readable
			// through the backlog endpoint.
			return
		}
		c.logger.Errorw("broadcast failed", "session_id", evt.SessionID, "error", err)
	}
}

// departureEvent builds a UserLeft envelope from the connection's own
// identity. It never touches storage: presence is broadcast-only.
func departureEvent(sessionID int64, cl *Client) domain.SessionEvent {
	_, payload, err := domain.EncodePayload(domain.UserLeftPayload{
		UserID:   cl.UserID,
		UserName: cl.Username,
	})
	if err != nil {
		payload = "{}"
	}
	return domain.SessionEvent{
		SessionID:    sessionID,
		AuthorUserID: cl.UserID,
		AuthorName:   cl.Username,
		Kind:         domain.KindUserLeft,
		PayloadJSON:  payload,
	}
}
