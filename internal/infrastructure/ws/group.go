package ws

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrGroupNotFound = errors.New("session group not found")

type sessionGroup struct {
	ID      int64
	Clients map[string]*Client
}

// GroupManager tracks which connections are subscribed to which session.
// Join, Leave, and Broadcast are each atomic with respect to one
// another, so a connection is either in the audience of a broadcast or
// not; it can never see a partial one.
type GroupManager struct {
	groups map[int64]*sessionGroup
	mu     sync.RWMutex
	logger *zap.SugaredLogger
}

func NewGroupManager(logger *zap.SugaredLogger) *GroupManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &GroupManager{
		groups: make(map[int64]*sessionGroup),
		logger: logger,
	}
}

func (gm *GroupManager) Join(sessionID int64, cl *Client) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	group, ok := gm.groups[sessionID]
	if !ok {
		group = &sessionGroup{
			ID:      sessionID,
			Clients: make(map[string]*Client),
		}
		gm.groups[sessionID] = group
	}
	group.Clients[cl.ID] = cl
}

func (gm *GroupManager) Leave(sessionID int64, cl *Client) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return gm.leaveLocked(sessionID, cl)
}

// LeaveAll removes the client from every group it joined and returns
// the ids of the groups it actually left.
func (gm *GroupManager) LeaveAll(cl *Client) []int64 {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	var left []int64
	for sessionID := range gm.groups {
		if gm.leaveLocked(sessionID, cl) {
			left = append(left, sessionID)
		}
	}
	return left
}

func (gm *GroupManager) leaveLocked(sessionID int64, cl *Client) bool {
	group, ok := gm.groups[sessionID]
	if !ok {
		return false
	}
	if _, ok := group.Clients[cl.ID]; !ok {
		return false
	}
	delete(group.Clients, cl.ID)
	if len(group.Clients) == 0 {
		delete(gm.groups, sessionID)
	}
	return true
}

func (gm *GroupManager) MemberCount(sessionID int64) int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	group, ok := gm.groups[sessionID]
	if !ok {
		return 0
	}
	return len(group.Clients)
}

// Broadcast delivers one frame to every current member of its session
// group. Members whose buffers are full miss the frame rather than
// stall everyone else.
func (gm *GroupManager) Broadcast(frame *Frame) error {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	group, ok := gm.groups[frame.SessionID]
	if !ok {
		return ErrGroupNotFound
	}

	for _, cl := range group.Clients {
		if !cl.Enqueue(frame) {
			gm.logger.Warnw("client buffer full, dropping frame",
				"client_id", cl.ID,
				"session_id", frame.SessionID,
				"type", frame.Type,
			)
		}
	}
	return nil
}
