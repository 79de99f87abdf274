package ws

import (
	"github.com/chronicler-app/chronicler/internal/domain"
)

// Frame is the websocket wire unit in both directions.
type Frame struct {
	Type      string `json:"type"`
	SessionID int64  `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// inboundFrame is the union of the fields client frames may carry. The
// Type field decides which ones are meaningful.
type inboundFrame struct {
	Type        string `json:"type"`
	SessionID   int64  `json:"sessionId"`
	Kind        string `json:"kind,omitempty"`
	PayloadJSON string `json:"payloadJson,omitempty"`
	Message     string `json:"message,omitempty"`
	Dice        string `json:"dice,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

type JoinAckPayload struct {
	SessionID   int64 `json:"sessionId"`
	MemberCount int   `json:"memberCount"`
}

func NewEventCreated(evt domain.SessionEvent) *Frame {
	return &Frame{
		Type:      EventCreated,
		SessionID: evt.SessionID,
		Data:      evt,
	}
}

func NewSessionJoined(sessionID int64, memberCount int) *Frame {
	return &Frame{
		Type:      SessionJoined,
		SessionID: sessionID,
		Data: JoinAckPayload{
			SessionID:   sessionID,
			MemberCount: memberCount,
		},
	}
}

func NewSessionLeft(sessionID int64) *Frame {
	return &Frame{
		Type:      SessionLeft,
		SessionID: sessionID,
	}
}

func NewError(sessionID int64, code, message string, retry bool) *Frame {
	return &Frame{
		Type:      ErrorEvent,
		SessionID: sessionID,
		Data: ErrorPayload{
			Code:    code,
			Message: message,
			Retry:   retry,
		},
	}
}

func NewAuthError(sessionID int64, message string) *Frame {
	return &Frame{
		Type:      AuthenticationError,
		SessionID: sessionID,
		Data: ErrorPayload{
			Code:    "AUTH_FAILED",
			Message: message,
			Retry:   false,
		},
	}
}

func NewJoinFailed(sessionID int64, reason string) *Frame {
	return &Frame{
		Type:      JoinFailed,
		SessionID: sessionID,
		Data: ErrorPayload{
			Code:    "JOIN_FAILED",
			Message: reason,
			Retry:   true,
		},
	}
}
