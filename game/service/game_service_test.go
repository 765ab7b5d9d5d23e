package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wricardo/mao-client/game/protocol"
	"github.com/wricardo/mao-client/game/service"
	"github.com/wricardo/mao-client/game/session"
)

// MockSession implements service.Session for testing
type MockSession struct {
	connected bool
	state     *protocol.GameState
	sent      []protocol.Outbound
	connects  int
	sendErr   error
}

func (m *MockSession) Connect() error {
	m.connects++
	return nil
}

func (m *MockSession) Send(msg protocol.Outbound) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MockSession) Connected() bool                { return m.connected }
func (m *MockSession) GameState() *protocol.GameState { return m.state }

func (m *MockSession) Stats() session.Stats {
	return session.Stats{
		StateName:        "connected",
		Connected:        m.connected,
		ReconnectAttempt: 0,
		Pending:          2,
		FramesSent:       int64(len(m.sent)),
	}
}

func activeGame() *protocol.GameState {
	return &protocol.GameState{
		ID:       "ABCD",
		Status:   protocol.StatusActive,
		AdminID:  "p1",
		PlayerID: "p1",
		Players:  []protocol.Player{{ID: "p1"}, {ID: "p2"}},
		Hand:     []protocol.Card{{Rank: "7", Suit: protocol.SuitHearts}},
		TopCard:  &protocol.Card{Rank: "K", Suit: protocol.SuitSpades},
	}
}

func TestGameService_Lobby(t *testing.T) {
	ctx := context.Background()
	mock := &MockSession{}
	svc := service.NewGameService(mock)

	t.Run("CreateGame without a snapshot", func(t *testing.T) {
		result, err := svc.CreateGame(ctx, "alice")
		if err != nil {
			t.Fatalf("CreateGame failed: %v", err)
		}
		if result.Type != protocol.TypeCreateGame {
			t.Errorf("Expected type %s, got %s", protocol.TypeCreateGame, result.Type)
		}
		if !result.Queued {
			t.Error("Expected intent to be reported as queued while offline")
		}
	})

	t.Run("JoinGame", func(t *testing.T) {
		mock.connected = true
		result, err := svc.JoinGame(ctx, "ABCD", "bob")
		if err != nil {
			t.Fatalf("JoinGame failed: %v", err)
		}
		if result.GameID != "ABCD" || result.Queued {
			t.Errorf("Unexpected result %+v", result)
		}
		last := mock.sent[len(mock.sent)-1].(protocol.JoinGame)
		if last.GameID != "ABCD" || last.Name != "bob" {
			t.Errorf("Unexpected frame %+v", last)
		}
	})

	t.Run("JoinGame validation", func(t *testing.T) {
		if _, err := svc.JoinGame(ctx, "", "bob"); !errors.Is(err, protocol.ErrInvalidMessage) {
			t.Errorf("Expected ErrInvalidMessage, got %v", err)
		}
	})

	t.Run("StartGame needs a game", func(t *testing.T) {
		if _, err := svc.StartGame(ctx); !errors.Is(err, service.ErrNoGame) {
			t.Errorf("Expected ErrNoGame, got %v", err)
		}
	})
}

func TestGameService_Intents(t *testing.T) {
	ctx := context.Background()
	mock := &MockSession{connected: true, state: activeGame()}
	svc := service.NewGameService(mock)

	tests := []struct {
		name     string
		call     func() (*service.IntentResult, error)
		expected protocol.Outbound
	}{
		{"start", func() (*service.IntentResult, error) { return svc.StartGame(ctx) },
			protocol.StartGame{GameID: "ABCD"}},
		{"draw", func() (*service.IntentResult, error) { return svc.ProposeDraw(ctx) },
			protocol.ProposeDraw{GameID: "ABCD"}},
		{"play", func() (*service.IntentResult, error) {
			return svc.ProposePlay(ctx, protocol.Card{Rank: "7", Suit: protocol.SuitHearts})
		}, protocol.ProposePlay{GameID: "ABCD", Card: protocol.Card{Rank: "7", Suit: protocol.SuitHearts}}},
		{"accept", func() (*service.IntentResult, error) { return svc.AcceptAction(ctx) },
			protocol.AcceptAction{GameID: "ABCD"}},
		{"challenge", func() (*service.IntentResult, error) { return svc.ChallengeAction(ctx) },
			protocol.ChallengeAction{GameID: "ABCD"}},
		{"resolve", func() (*service.IntentResult, error) {
			return svc.ResolveAction(ctx, protocol.ResolutionAcceptWithPenalty, 2)
		}, protocol.ResolveAction{GameID: "ABCD", Resolution: protocol.ResolutionAcceptWithPenalty, PenaltyCount: 2}},
		{"penalize", func() (*service.IntentResult, error) { return svc.Penalize(ctx, "p2", 1) },
			protocol.AdminPenalize{GameID: "ABCD", TargetPlayerID: "p2", PenaltyCount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.call()
			if err != nil {
				t.Fatalf("Intent failed: %v", err)
			}
			if result.GameID != "ABCD" {
				t.Errorf("Expected game id ABCD, got %s", result.GameID)
			}
			if result.Type != tt.expected.Type() {
				t.Errorf("Expected type %s, got %s", tt.expected.Type(), result.Type)
			}
			if got := mock.sent[len(mock.sent)-1]; got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestGameService_InvalidIntents(t *testing.T) {
	ctx := context.Background()
	mock := &MockSession{connected: true, state: activeGame()}
	svc := service.NewGameService(mock)

	if _, err := svc.ProposePlay(ctx, protocol.Card{Rank: "1", Suit: protocol.SuitHearts}); !errors.Is(err, protocol.ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage for bad rank, got %v", err)
	}
	if _, err := svc.ResolveAction(ctx, "MAYBE", 0); !errors.Is(err, protocol.ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage for bad resolution, got %v", err)
	}
	if _, err := svc.Penalize(ctx, "p2", -1); !errors.Is(err, protocol.ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage for negative penalty, got %v", err)
	}
	if len(mock.sent) != 0 {
		t.Errorf("Expected nothing sent, got %d frames", len(mock.sent))
	}
}

func TestGameService_SessionClosed(t *testing.T) {
	mock := &MockSession{state: activeGame(), sendErr: session.ErrClosed}
	svc := service.NewGameService(mock)

	if _, err := svc.ProposeDraw(context.Background()); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestGameService_StateAndStatus(t *testing.T) {
	ctx := context.Background()
	mock := &MockSession{connected: true}
	svc := service.NewGameService(mock)

	if _, err := svc.GetGameState(ctx); !errors.Is(err, service.ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
	if _, err := svc.GetView(ctx); !errors.Is(err, service.ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}

	status, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Connected || status.Pending != 2 || status.GameID != "" {
		t.Errorf("Unexpected status %+v", status)
	}

	mock.state = activeGame()
	status, _ = svc.Status(ctx)
	if status.GameID != "ABCD" || status.GameStatus != protocol.StatusActive || status.PlayerID != "p1" {
		t.Errorf("Expected game fields in status, got %+v", status)
	}

	view, err := svc.GetView(ctx)
	if err != nil {
		t.Fatalf("GetView failed: %v", err)
	}
	if !view.IsAdmin || !view.CanProposeDraw || view.CanStart {
		t.Errorf("Unexpected flags %+v", view)
	}
	if len(view.Hand) != 1 || view.Hand[0] != "7♥" {
		t.Errorf("Expected hand [7♥], got %v", view.Hand)
	}
	if view.TopCard != "K♠" {
		t.Errorf("Expected top card K♠, got %s", view.TopCard)
	}

	if err := svc.Connect(ctx); err != nil {
		t.Errorf("Connect failed: %v", err)
	}
	if mock.connects != 1 {
		t.Errorf("Expected 1 connect, got %d", mock.connects)
	}
}
