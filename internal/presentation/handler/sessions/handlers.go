// Package sessions exposes the HTTP side of the relay: session CRUD,
// the durable event stream, dice, and the websocket upgrade.
package sessions

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chronicler-app/chronicler/internal/domain"
	"github.com/chronicler-app/chronicler/internal/infrastructure/auth"
	"github.com/chronicler-app/chronicler/internal/infrastructure/json"
	"github.com/chronicler-app/chronicler/internal/infrastructure/ws"
	"github.com/chronicler-app/chronicler/internal/sessionevents"
)

type Handler struct {
	service           *sessionevents.Service
	sessionRepository domain.SessionRepository
	userRepository    domain.UserRepository
	relay             *ws.Relay
	upgrader          websocket.Upgrader
	logger            *zap.SugaredLogger
}

func NewHandler(
	service *sessionevents.Service,
	sessionRepository domain.SessionRepository,
	userRepository domain.UserRepository,
	relay *ws.Relay,
	allowedOrigins []string,
	logger *zap.SugaredLogger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		service:           service,
		sessionRepository: sessionRepository,
		userRepository:    userRepository,
		relay:             relay,
		upgrader: websocket.Upgrader{
			CheckOrigin: originAllowed(allowedOrigins),
		},
		logger: logger,
	}
}

// originAllowed guards the upgrade against cross-site websocket
// hijacking: the token rides in the query string, so a browser on a
// foreign origin could otherwise open an authenticated socket. Requests
// without an Origin header (non-browser clients) pass; "*" keeps local
// development open.
func originAllowed(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}

// CreateSessionHandler creates a session with the authenticated user as
// game master.
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		json.WriteUnauthorized(w, "")
		return
	}

	var req createSessionRequest
	if err := json.Read(w, r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	session, err := h.sessionRepository.CreateSession(r.Context(), domain.Session{
		Title:        req.Title,
		GameMasterID: userID,
		PlayerIDs:    req.PlayerIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			json.WriteBadRequestError(w, "a listed player does not exist")
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteValidationError(w, err)
		default:
			h.logger.Errorw("failed to create session", "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, toSessionResponse(session))
}

// GetSessionHandler returns a session with its roster.
func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.sessionRepository.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toSessionResponse(session))
}

// DeleteSessionHandler removes a session. Only the game master may do
// this; the roster and the whole event stream go with it.
func (h *Handler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		json.WriteUnauthorized(w, "")
		return
	}
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.sessionRepository.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if session.GameMasterID != userID {
		json.WriteUnauthorized(w, "only the game master may delete a session")
		return
	}

	if err := h.sessionRepository.DeleteSession(r.Context(), sessionID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	json.Write(w, http.StatusNoContent, nil)
}

// PostEventHandler appends one event to the session stream and fans it
// out to live subscribers.
func (h *Handler) PostEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		json.WriteUnauthorized(w, "")
		return
	}
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}

	var req postEventRequest
	if err := json.Read(w, r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	stored, err := h.service.Create(r.Context(), sessionID, userID,
		domain.EventKind(req.Kind), req.PayloadJSON)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, stored)
}

// ListEventsHandler returns the persisted stream in (occurredAt, id)
// order. The optional ?after=<id> cursor lets a reconnecting client
// fetch only what it missed.
func (h *Handler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		json.WriteUnauthorized(w, "")
		return
	}
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}

	var afterID int64
	if after := r.URL.Query().Get("after"); after != "" {
		parsed, err := strconv.ParseInt(after, 10, 64)
		if err != nil || parsed < 0 {
			json.WriteBadRequestError(w, "after must be a non-negative integer")
			return
		}
		afterID = parsed
	}

	events, err := h.service.List(r.Context(), sessionID, userID, afterID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []domain.SessionEvent{}
	}

	json.Write(w, http.StatusOK, events)
}

// RollDiceHandler rolls dice notation on the server and records the
// outcome as a DiceRoll event.
func (h *Handler) RollDiceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		json.WriteUnauthorized(w, "")
		return
	}
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}

	var req rollDiceRequest
	if err := json.Read(w, r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	stored, roll, err := h.service.Roll(r.Context(), sessionID, userID, req.Dice)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, rollDiceResponse{
		Event:   stored,
		Results: roll.Results,
		Total:   roll.Total,
	})
}

// ConnectHandler upgrades to a websocket and serves the realtime
// channel for the authenticated user. The connection joins sessions by
// sending session.join frames.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		json.WriteUnauthorized(w, "")
		return
	}

	user, err := h.userRepository.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := ws.NewClient(conn, user.ID, user.Name)
	h.relay.Serve(client)
}

func (h *Handler) sessionIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionId"), 10, 64)
	if err != nil || sessionID <= 0 {
		json.WriteBadRequestError(w, "session id must be a positive integer")
		return 0, false
	}
	return sessionID, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		json.WriteUnauthorized(w, "not a participant of this session")
	case errors.Is(err, domain.ErrSessionNotFound):
		json.WriteNotFound(w, "session not found")
	case errors.Is(err, domain.ErrUserNotFound):
		json.WriteNotFound(w, "user not found")
	case errors.Is(err, domain.ErrMalformedEnvelope), errors.Is(err, domain.ErrInvalidInput):
		json.WriteValidationError(w, err)
	default:
		h.logger.Errorw("request failed", "error", err)
		json.WriteInternalError(w, err)
	}
}
