package protocol

import (
	"errors"
	"testing"
)

func TestEncodeWireFormat(t *testing.T) {
	tests := []struct {
		name     string
		msg      Outbound
		expected string
	}{
		{"create", CreateGame{Name: "alice"}, `{"type":"CREATE_GAME","name":"alice"}`},
		{"join", JoinGame{GameID: "ABCD", Name: "bob"}, `{"type":"JOIN_GAME","gameId":"ABCD","name":"bob"}`},
		{"start", StartGame{GameID: "ABCD"}, `{"type":"START_GAME","gameId":"ABCD"}`},
		{"draw", ProposeDraw{GameID: "ABCD"}, `{"type":"PROPOSE_DRAW","gameId":"ABCD"}`},
		{
			"play",
			ProposePlay{GameID: "ABCD", Card: Card{Rank: "7", Suit: "hearts"}},
			`{"type":"PROPOSE_PLAY","gameId":"ABCD","card":{"rank":"7","suit":"hearts"}}`,
		},
		{"accept", AcceptAction{GameID: "ABCD"}, `{"type":"ACCEPT_ACTION","gameId":"ABCD"}`},
		{"challenge", ChallengeAction{GameID: "ABCD"}, `{"type":"CHALLENGE_ACTION","gameId":"ABCD"}`},
		{
			"resolve without penalty",
			ResolveAction{GameID: "ABCD", Resolution: ResolutionAccept},
			`{"type":"RESOLVE_ACTION","gameId":"ABCD","resolution":"ACCEPT"}`,
		},
		{
			"resolve with penalty",
			ResolveAction{GameID: "ABCD", Resolution: ResolutionReject, PenaltyCount: 1},
			`{"type":"RESOLVE_ACTION","gameId":"ABCD","resolution":"REJECT","penaltyCount":1}`,
		},
		{
			"penalize",
			AdminPenalize{GameID: "ABCD", TargetPlayerID: "p2", PenaltyCount: 2},
			`{"type":"ADMIN_PENALIZE","gameId":"ABCD","targetPlayerId":"p2","penaltyCount":2}`,
		},
		{"ping", Ping{}, `{"type":"PING"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if string(frame.Data) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, frame.Data)
			}
			if frame.Type != tt.msg.Type() {
				t.Errorf("Expected frame type %s, got %s", tt.msg.Type(), frame.Type)
			}
			if frame.ID == "" {
				t.Error("Expected frame ID to be set")
			}
		})
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		msg  Outbound
	}{
		{"nil", nil},
		{"create without name", CreateGame{Name: "  "}},
		{"join without game", JoinGame{Name: "bob"}},
		{"join without name", JoinGame{GameID: "ABCD"}},
		{"start without game", StartGame{}},
		{"play unknown rank", ProposePlay{GameID: "ABCD", Card: Card{Rank: "1", Suit: SuitHearts}}},
		{"play unknown suit", ProposePlay{GameID: "ABCD", Card: Card{Rank: "7", Suit: "Hearts"}}},
		{"resolve unknown resolution", ResolveAction{GameID: "ABCD", Resolution: "MAYBE"}},
		{"resolve negative penalty", ResolveAction{GameID: "ABCD", Resolution: ResolutionReject, PenaltyCount: -1}},
		{"penalize without target", AdminPenalize{GameID: "ABCD"}},
		{"penalize negative", AdminPenalize{GameID: "ABCD", TargetPlayerID: "p2", PenaltyCount: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.msg)
			if !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("Expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}

func TestPeekType(t *testing.T) {
	frame, err := Encode(AcceptAction{GameID: "ABCD"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	typ, err := PeekType(frame.Data)
	if err != nil {
		t.Fatalf("PeekType failed: %v", err)
	}
	if typ != TypeAcceptAction {
		t.Errorf("Expected %s, got %s", TypeAcceptAction, typ)
	}

	if _, err := PeekType([]byte(`{"gameId":"ABCD"}`)); !errors.Is(err, ErrMissingType) {
		t.Errorf("Expected ErrMissingType, got %v", err)
	}
	if _, err := PeekType([]byte(`not json`)); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Expected ErrMalformedFrame, got %v", err)
	}
}
