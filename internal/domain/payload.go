package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the typed, in-memory form of a session event's data. The
// wire and storage form is always the {kind, payloadJson} pair on
// SessionEvent.
type Payload interface {
	EventKind() EventKind
}

type ChatMessagePayload struct {
	Message string `json:"message"`
}

func (ChatMessagePayload) EventKind() EventKind { return KindChatMessage }

type DiceRollPayload struct {
	Dice   string `json:"dice"`
	Result int    `json:"result"`
}

func (DiceRollPayload) EventKind() EventKind { return KindDiceRoll }

type ShareItemPayload struct {
	ItemID   int64  `json:"itemId"`
	ItemName string `json:"itemName"`
}

func (ShareItemPayload) EventKind() EventKind { return KindShareItem }

type ShareNpcPayload struct {
	UserID int64 `json:"userId"`
}

func (ShareNpcPayload) EventKind() EventKind { return KindShareNpc }

type UserJoinedPayload struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

func (UserJoinedPayload) EventKind() EventKind { return KindUserJoined }

type UserLeftPayload struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

func (UserLeftPayload) EventKind() EventKind { return KindUserLeft }

// UnknownPayload wraps the raw JSON of an event kind this build does not
// recognize. Decoding never fails on an unrecognized kind: clients must
// stay able to render a timeline that contains events from newer servers.
type UnknownPayload struct {
	Kind EventKind `json:"-"`
	Raw  string    `json:"raw"`
}

func (u UnknownPayload) EventKind() EventKind { return u.Kind }

// EncodePayload serializes a typed payload into its storage/wire form.
func EncodePayload(p Payload) (EventKind, string, error) {
	if u, ok := p.(UnknownPayload); ok {
		return u.Kind, u.Raw, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("encode %s payload: %w", p.EventKind(), err)
	}
	return p.EventKind(), string(raw), nil
}

// DecodePayload deserializes the storage/wire form back into a typed
// payload. Unrecognized kinds degrade to UnknownPayload rather than
// failing the whole message.
func DecodePayload(kind EventKind, raw string) (Payload, error) {
	var target Payload
	switch kind {
	case KindChatMessage:
		target = &ChatMessagePayload{}
	case KindDiceRoll:
		target = &DiceRollPayload{}
	case KindShareItem:
		target = &ShareItemPayload{}
	case KindShareNpc:
		target = &ShareNpcPayload{}
	case KindUserJoined:
		target = &UserJoinedPayload{}
	case KindUserLeft:
		target = &UserLeftPayload{}
	default:
		return UnknownPayload{Kind: kind, Raw: raw}, nil
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}

	switch p := target.(type) {
	case *ChatMessagePayload:
		return *p, nil
	case *DiceRollPayload:
		return *p, nil
	case *ShareItemPayload:
		return *p, nil
	case *ShareNpcPayload:
		return *p, nil
	case *UserJoinedPayload:
		return *p, nil
	case *UserLeftPayload:
		return *p, nil
	}
	return nil, fmt.Errorf("decode %s payload: unhandled kind", kind)
}

// ValidateEnvelope checks the structural contract of an inbound
// {kind, payloadJson} pair before anything is persisted. Unknown kinds
// are tolerated on decode but rejected here: the set of kinds a client
// may create is closed.
func ValidateEnvelope(kind EventKind, raw string) error {
	if strings.TrimSpace(string(kind)) == "" {
		return fmt.Errorf("%w: kind is required", ErrMalformedEnvelope)
	}
	if !kind.Known() {
		return fmt.Errorf("%w: unrecognized kind %q", ErrMalformedEnvelope, kind)
	}
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: payload is required", ErrMalformedEnvelope)
	}
	if !json.Valid([]byte(raw)) {
		return fmt.Errorf("%w: payload is not valid JSON", ErrMalformedEnvelope)
	}
	return nil
}
