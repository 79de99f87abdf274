package domain

import (
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := []Payload{
		ChatMessagePayload{Message: "hello"},
		DiceRollPayload{Dice: "2d6+1", Result: 9},
		ShareItemPayload{ItemID: 42, ItemName: "Sunblade"},
		ShareNpcPayload{UserID: 7},
		UserJoinedPayload{UserID: 3, UserName: "Mira"},
		UserLeftPayload{UserID: 3, UserName: "Mira"},
	}

	for _, want := range payloads {
		kind, raw, err := EncodePayload(want)
		if err != nil {
			t.Fatalf("encode %s: %v", want.EventKind(), err)
		}
		if kind != want.EventKind() {
			t.Fatalf("encode %s: kind = %q", want.EventKind(), kind)
		}

		got, err := DecodePayload(kind, raw)
		if err != nil {
			t.Fatalf("decode %s: %v", kind, err)
		}
		if got != want {
			t.Fatalf("round trip %s: got %#v, want %#v", kind, got, want)
		}
	}
}

func TestDecodeUnknownKindDegrades(t *testing.T) {
	raw := `{"weather":"rainy"}`
	got, err := DecodePayload("FutureFeature", raw)
	if err != nil {
		t.Fatalf("decode unknown kind: %v", err)
	}
	unknown, ok := got.(UnknownPayload)
	if !ok {
		t.Fatalf("expected UnknownPayload, got %T", got)
	}
	if unknown.Raw != raw {
		t.Fatalf("expected raw %q preserved, got %q", raw, unknown.Raw)
	}
	if unknown.EventKind() != "FutureFeature" {
		t.Fatalf("expected kind carried through, got %q", unknown.EventKind())
	}
}

func TestDecodeInvalidJSONForKnownKind(t *testing.T) {
	if _, err := DecodePayload(KindChatMessage, "{not json"); err == nil {
		t.Fatal("expected error for invalid JSON on known kind")
	}
}

func TestValidateEnvelope(t *testing.T) {
	cases := []struct {
		name    string
		kind    EventKind
		raw     string
		wantErr bool
	}{
		{"valid chat", KindChatMessage, `{"message":"hi"}`, false},
		{"valid dice", KindDiceRoll, `{"dice":"1d20","result":17}`, false},
		{"missing kind", "", `{"message":"hi"}`, true},
		{"unknown kind", "FutureFeature", `{}`, true},
		{"empty payload", KindChatMessage, "", true},
		{"invalid json", KindChatMessage, "{", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEnvelope(tc.kind, tc.raw)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedEnvelope) {
					t.Fatalf("ValidateEnvelope error = %v, want ErrMalformedEnvelope", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateEnvelope returned error: %v", err)
			}
		})
	}
}

func TestEphemeralKinds(t *testing.T) {
	if !KindUserJoined.Ephemeral() || !KindUserLeft.Ephemeral() {
		t.Fatal("join/leave kinds must be ephemeral")
	}
	for _, k := range []EventKind{KindChatMessage, KindDiceRoll, KindShareItem, KindShareNpc} {
		if k.Ephemeral() {
			t.Fatalf("%s must not be ephemeral", k)
		}
	}
	evt := SessionEvent{ID: 0, Kind: KindUserJoined}
	if !evt.Ephemeral() {
		t.Fatal("event with id 0 must report ephemeral")
	}
}

func TestHasParticipant(t *testing.T) {
	s := Session{ID: 7, GameMasterID: 1, PlayerIDs: []int64{2, 3}}
	if !s.HasParticipant(1) {
		t.Fatal("game master must have access")
	}
	if !s.HasParticipant(3) {
		t.Fatal("enrolled player must have access")
	}
	if s.HasParticipant(9) {
		t.Fatal("stranger must not have access")
	}
}
