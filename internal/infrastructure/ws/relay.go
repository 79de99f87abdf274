package ws

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chronicler-app/chronicler/internal/dice"
	"github.com/chronicler-app/chronicler/internal/domain"
)

// EventService is the slice of the session event service the relay
// needs to serve inbound frames.
type EventService interface {
	CanAccess(ctx context.Context, sessionID, userID int64) error
	Create(ctx context.Context, sessionID, userID int64, kind domain.EventKind, payloadJSON string) (domain.SessionEvent, error)
	CreateEphemeral(ctx context.Context, sessionID, userID int64, kind domain.EventKind) (domain.SessionEvent, error)
	Roll(ctx context.Context, sessionID, userID int64, notation string) (domain.SessionEvent, dice.Roll, error)
}

// Relay dispatches inbound frames from a connection to the event
// service and the group core.
type Relay struct {
	core    *Core
	service EventService
	logger  *zap.SugaredLogger
}

func NewRelay(core *Core, service EventService, logger *zap.SugaredLogger) *Relay {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Relay{
		core:    core,
		service: service,
		logger:  logger,
	}
}

// Serve registers the client and runs its pumps. It blocks until the
// connection closes; callers invoke it from the upgrade handler's
// goroutine, mirroring the write pump they start themselves.
func (r *Relay) Serve(cl *Client) {
	r.core.Register() <- cl
	go cl.WritePump()
	cl.ReadPump(r)
}

func (r *Relay) dispatch(cl *Client, frame inboundFrame) {
	ctx := context.Background()

	switch frame.Type {
	case SessionJoin:
		r.handleJoin(ctx, cl, frame.SessionID)
	case SessionLeave:
		r.handleLeave(ctx, cl, frame.SessionID)
	case EventPost:
		r.handlePost(ctx, cl, frame.SessionID, domain.EventKind(frame.Kind), frame.PayloadJSON)
	case SessionMessage:
		r.handleMessage(ctx, cl, frame.SessionID, frame.Message)
	case SessionRoll:
		r.handleRoll(ctx, cl, frame.SessionID, frame.Dice)
	default:
		cl.Enqueue(NewError(frame.SessionID, "UNKNOWN_FRAME",
			fmt.Sprintf("unrecognized frame type %q", frame.Type), false))
	}
}

// handleJoin re-checks access against the current roster before the
// connection enters the group: joining grants only what the session
// still grants.
func (r *Relay) handleJoin(ctx context.Context, cl *Client, sessionID int64) {
	if cl.joined(sessionID) {
		cl.Enqueue(NewSessionJoined(sessionID, r.core.MemberCount(sessionID)))
		return
	}

	if err := r.service.CanAccess(ctx, sessionID, cl.UserID); err != nil {
		cl.Enqueue(NewJoinFailed(sessionID, joinFailureReason(err)))
		return
	}

	cl.trackJoin(sessionID)
	r.core.groups.Join(sessionID, cl)
	cl.Enqueue(NewSessionJoined(sessionID, r.core.MemberCount(sessionID)))

	if _, err := r.service.CreateEphemeral(ctx, sessionID, cl.UserID, domain.KindUserJoined); err != nil {
		r.logger.Errorw("failed to announce join",
			"session_id", sessionID, "user_id", cl.UserID, "error", err)
	}
}

func (r *Relay) handleLeave(ctx context.Context, cl *Client, sessionID int64) {
	if !cl.joined(sessionID) {
		return
	}

	// Announce before leaving so the departing member hears its own
	// UserLeft, matching the self-echo of every other broadcast.
	if _, err := r.service.CreateEphemeral(ctx, sessionID, cl.UserID, domain.KindUserLeft); err != nil {
		r.logger.Errorw("failed to announce leave",
			"session_id", sessionID, "user_id", cl.UserID, "error", err)
	}

	cl.trackLeave(sessionID)
	r.core.groups.Leave(sessionID, cl)
	cl.Enqueue(NewSessionLeft(sessionID))
}

func (r *Relay) handlePost(ctx context.Context, cl *Client, sessionID int64, kind domain.EventKind, payloadJSON string) {
	if _, err := r.service.Create(ctx, sessionID, cl.UserID, kind, payloadJSON); err != nil {
		r.sendServiceError(cl, sessionID, err)
	}
}

func (r *Relay) handleMessage(ctx context.Context, cl *Client, sessionID int64, message string) {
	_, payload, err := domain.EncodePayload(domain.ChatMessagePayload{Message: message})
	if err != nil {
		cl.Enqueue(NewError(sessionID, "MALFORMED", "message could not be encoded", false))
		return
	}
	if _, err := r.service.Create(ctx, sessionID, cl.UserID, domain.KindChatMessage, payload); err != nil {
		r.sendServiceError(cl, sessionID, err)
	}
}

func (r *Relay) handleRoll(ctx context.Context, cl *Client, sessionID int64, notation string) {
	if _, _, err := r.service.Roll(ctx, sessionID, cl.UserID, notation); err != nil {
		r.sendServiceError(cl, sessionID, err)
	}
}

func (r *Relay) sendServiceError(cl *Client, sessionID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		cl.Enqueue(NewAuthError(sessionID, "not a participant of this session"))
	case errors.Is(err, domain.ErrSessionNotFound):
		cl.Enqueue(NewError(sessionID, "NOT_FOUND", "session does not exist", false))
	case errors.Is(err, domain.ErrMalformedEnvelope), errors.Is(err, domain.ErrInvalidInput):
		cl.Enqueue(NewError(sessionID, "MALFORMED", err.Error(), false))
	default:
		r.logger.Errorw("frame handling failed",
			"session_id", sessionID, "user_id", cl.UserID, "error", err)
		cl.Enqueue(NewError(sessionID, "INTERNAL", "temporary failure, try again", true))
	}
}

func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session does not exist"
	case errors.Is(err, domain.ErrUnauthorized):
		return "not a participant of this session"
	}
	return "join failed"
}
