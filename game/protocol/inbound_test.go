package protocol

import (
	"errors"
	"testing"
)

func TestDecodeGameState(t *testing.T) {
	data := []byte(`{
		"type": "GAME_STATE",
		"payload": {
			"id": "ABCD",
			"status": "ACTIVE",
			"adminId": "p1",
			"players": [{"id": "p1", "handCount": 7}, {"id": "p2", "handCount": 6}],
			"playerId": "p2",
			"hand": [{"rank": "7", "suit": "hearts"}],
			"currentAction": {
				"id": "a1",
				"playerId": "p1",
				"type": "PLAY_CARD",
				"card": {"rank": "Q", "suit": "spades"},
				"acceptedBy": ["p3"],
				"challengedBy": []
			},
			"topCard": {"rank": "2", "suit": "clubs"},
			"recentEvents": [
				{"type": "PENALTY", "playerId": "p2", "penalty": 1, "timestamp": 1700000000}
			]
		}
	}`)

	in, err := DecodeInbound(data)
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}

	msg, ok := in.(GameStateMessage)
	if !ok {
		t.Fatalf("Expected GameStateMessage, got %T", in)
	}
	state := msg.State

	if state.ID != "ABCD" || state.Status != StatusActive {
		t.Errorf("Unexpected id/status: %s/%s", state.ID, state.Status)
	}
	if len(state.Players) != 2 || state.Players[1].HandCount != 6 {
		t.Errorf("Unexpected players: %+v", state.Players)
	}
	if state.CurrentAction == nil || state.CurrentAction.Card == nil || state.CurrentAction.Card.Rank != "Q" {
		t.Errorf("Unexpected current action: %+v", state.CurrentAction)
	}
	if state.TopCard == nil || *state.TopCard != (Card{Rank: "2", Suit: SuitClubs}) {
		t.Errorf("Unexpected top card: %+v", state.TopCard)
	}
	if len(state.RecentEvents) != 1 || state.RecentEvents[0].Type != EventPenalty {
		t.Errorf("Unexpected events: %+v", state.RecentEvents)
	}
}

func TestDecodePlayersAsBareIDs(t *testing.T) {
	in, err := DecodeInbound([]byte(`{"type":"GAME_STATE","payload":{"id":"ABCD","players":["p1","p2"]}}`))
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	state := in.(GameStateMessage).State

	if len(state.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(state.Players))
	}
	if state.Players[0].ID != "p1" || state.Players[1].ID != "p2" {
		t.Errorf("Unexpected players: %+v", state.Players)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	in, err := DecodeInbound([]byte(`{"type":"CHAT","payload":{"text":"hi"}}`))
	if err != nil {
		t.Fatalf("Unknown tags should not be errors: %v", err)
	}

	msg, ok := in.(UnknownMessage)
	if !ok {
		t.Fatalf("Expected UnknownMessage, got %T", in)
	}
	if msg.Type() != "CHAT" {
		t.Errorf("Expected tag CHAT, got %s", msg.Type())
	}
	if string(msg.Payload) != `{"text":"hi"}` {
		t.Errorf("Unexpected payload: %s", msg.Payload)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"garbage", `}{`, ErrMalformedFrame},
		{"array", `[1,2,3]`, ErrMalformedFrame},
		{"no type", `{"payload":{}}`, ErrMissingType},
		{"state without payload", `{"type":"GAME_STATE"}`, ErrMissingPayload},
		{"state with null payload", `{"type":"GAME_STATE","payload":null}`, ErrMissingPayload},
		{"state with wrong shape", `{"type":"GAME_STATE","payload":{"players":42}}`, ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInbound([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if in != nil {
				t.Errorf("Expected nil message, got %T", in)
			}
		})
	}
}

func TestDecodeReplacesWholesale(t *testing.T) {
	first, err := DecodeInbound([]byte(`{"type":"GAME_STATE","payload":{"status":"ACTIVE","players":["p1","p2"]}}`))
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}
	second, err := DecodeInbound([]byte(`{"type":"GAME_STATE","payload":{"status":"ENDED","winnerId":"p1"}}`))
	if err != nil {
		t.Fatalf("DecodeInbound failed: %v", err)
	}

	a := first.(GameStateMessage).State
	b := second.(GameStateMessage).State

	if len(a.Players) != 2 {
		t.Errorf("First snapshot should keep its players")
	}
	if b.Players != nil {
		t.Errorf("Second snapshot must not inherit players, got %+v", b.Players)
	}
	if b.Status != StatusEnded || b.WinnerID != "p1" {
		t.Errorf("Unexpected second snapshot: %+v", b)
	}
}
