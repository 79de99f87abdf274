// Package sessionevents implements the live session event relay: access
// checks, validation, persistence, and realtime fan-out for the events a
// game table produces during play.
package sessionevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chronicler-app/chronicler/internal/dice"
	"github.com/chronicler-app/chronicler/internal/domain"
)

// Broadcaster delivers a stored event to every live subscriber of its
// session, the author's own connection included.
type Broadcaster interface {
	BroadcastEvent(evt domain.SessionEvent)
}

// Publisher mirrors stored events to an external broker. Implementations
// must tolerate broker downtime; a publish failure never fails the post.
type Publisher interface {
	PublishEvent(ctx context.Context, evt domain.SessionEvent) error
}

// Repository is the persistence surface the service needs.
type Repository interface {
	domain.SessionRepository
	domain.UserRepository
	domain.EventRepository
}

// Service coordinates the event pipeline for live sessions.
type Service struct {
	repo        Repository
	broadcaster Broadcaster
	publisher   Publisher
	logger      *zap.SugaredLogger
	rollSeed    func() int64
}

// NewService wires the event pipeline. broadcaster and publisher may be
// nil; the corresponding step is skipped.
func NewService(repo Repository, broadcaster Broadcaster, publisher Publisher, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
		publisher:   publisher,
		logger:      logger,
		rollSeed:    func() int64 { return time.Now().UnixNano() },
	}
}

// CanAccess reports whether the user may read or post in the session:
// the user must be the game master or on the player roster. A missing
// session yields domain.ErrSessionNotFound.
func (s *Service) CanAccess(ctx context.Context, sessionID, userID int64) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.HasParticipant(userID) {
		return fmt.Errorf("%w: user %d is not part of session %d", domain.ErrUnauthorized, userID, sessionID)
	}
	return nil
}

// Create validates, persists, and fans out one event authored by userID.
// The access check runs here as well: the membership verified when a
// socket joined can go stale, so every post re-checks against the
// current roster. Ephemeral kinds are rejected; they only enter the
// stream through CreateEphemeral.
func (s *Service) Create(ctx context.Context, sessionID, userID int64, kind domain.EventKind, payloadJSON string) (domain.SessionEvent, error) {
	if err := s.CanAccess(ctx, sessionID, userID); err != nil {
		return domain.SessionEvent{}, err
	}
	if kind.Ephemeral() {
		return domain.SessionEvent{}, fmt.Errorf("%w: %q events are emitted by the server", domain.ErrMalformedEnvelope, kind)
	}
	if err := domain.ValidateEnvelope(kind, payloadJSON); err != nil {
		return domain.SessionEvent{}, err
	}

	author, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return domain.SessionEvent{}, err
	}

	stored, err := s.repo.AppendEvent(ctx, domain.SessionEvent{
		SessionID:    sessionID,
		AuthorUserID: userID,
		AuthorName:   author.Name,
		Kind:         kind,
		PayloadJSON:  payloadJSON,
	})
	if err != nil {
		return domain.SessionEvent{}, err
	}

	s.fanOut(ctx, stored)
	return stored, nil
}

// CreateEphemeral emits a server-synthesized presence event (user joined
// or left). It is broadcast to live subscribers but never persisted, so
// its id stays zero and it never appears in a backlog read.
func (s *Service) CreateEphemeral(ctx context.Context, sessionID, userID int64, kind domain.EventKind) (domain.SessionEvent, error) {
	if !kind.Ephemeral() {
		return domain.SessionEvent{}, fmt.Errorf("%w: %q is not a presence kind", domain.ErrInvalidInput, kind)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return domain.SessionEvent{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"userId":   user.ID,
		"userName": user.Name,
	})
	if err != nil {
		return domain.SessionEvent{}, fmt.Errorf("marshal presence payload: %w", err)
	}

	evt := domain.SessionEvent{
		SessionID:    sessionID,
		AuthorUserID: userID,
		AuthorName:   user.Name,
		Kind:         kind,
		PayloadJSON:  string(payload),
	}
	s.fanOut(ctx, evt)
	return evt, nil
}

// Roll rolls dice notation on the server and records the outcome as a
// DiceRoll event. The server owns the random source, so the result in
// the stream cannot be forged by the client.
func (s *Service) Roll(ctx context.Context, sessionID, userID int64, notation string) (domain.SessionEvent, dice.Roll, error) {
	spec, err := dice.Parse(notation)
	if err != nil {
		return domain.SessionEvent{}, dice.Roll{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	roll, err := dice.RollSeeded(spec, s.rollSeed())
	if err != nil {
		return domain.SessionEvent{}, dice.Roll{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	_, payload, err := domain.EncodePayload(domain.DiceRollPayload{
		Dice:   roll.Notation,
		Result: roll.Total,
	})
	if err != nil {
		return domain.SessionEvent{}, dice.Roll{}, err
	}

	stored, err := s.Create(ctx, sessionID, userID, domain.KindDiceRoll, payload)
	if err != nil {
		return domain.SessionEvent{}, dice.Roll{}, err
	}
	return stored, roll, nil
}

// List returns the persisted events of a session with id greater than
// afterID, in (occurredAt, id) order. Presence events never appear here.
func (s *Service) List(ctx context.Context, sessionID, userID, afterID int64) ([]domain.SessionEvent, error) {
	if err := s.CanAccess(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, sessionID, afterID)
}

func (s *Service) fanOut(ctx context.Context, evt domain.SessionEvent) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(evt)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishEvent(ctx, evt); err != nil {
			s.logger.Errorw("failed to publish session event",
				"session_id", evt.SessionID,
				"kind", evt.Kind,
				"error", err,
			)
		}
	}
}
