package service

import (
	"context"
	"errors"

	"github.com/wricardo/mao-client/game/protocol"
	"github.com/wricardo/mao-client/game/session"
)

// ErrNoGame is returned by intents that need a current game before the
// first snapshot has arrived.
var ErrNoGame = errors.New("no current game")

// GameService defines all player operations
type GameService interface {
	// Connection
	Connect(ctx context.Context) error
	Status(ctx context.Context) (*StatusInfo, error)

	// Lobby
	CreateGame(ctx context.Context, name string) (*IntentResult, error)
	JoinGame(ctx context.Context, gameID, name string) (*IntentResult, error)
	StartGame(ctx context.Context) (*IntentResult, error)

	// Turn actions
	ProposeDraw(ctx context.Context) (*IntentResult, error)
	ProposePlay(ctx context.Context, card protocol.Card) (*IntentResult, error)
	AcceptAction(ctx context.Context) (*IntentResult, error)
	ChallengeAction(ctx context.Context) (*IntentResult, error)

	// Admin actions
	ResolveAction(ctx context.Context, resolution protocol.Resolution, penaltyCount int) (*IntentResult, error)
	Penalize(ctx context.Context, targetPlayerID string, penaltyCount int) (*IntentResult, error)

	// Game State
	GetGameState(ctx context.Context) (*protocol.GameState, error)
	GetView(ctx context.Context) (*GameView, error)
}

// Session is the server connection the service drives
type Session interface {
	Connect() error
	Send(m protocol.Outbound) error
	Connected() bool
	GameState() *protocol.GameState
	Stats() session.Stats
}
