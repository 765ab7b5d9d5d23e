package service

import (
	"context"
	"fmt"

	"github.com/wricardo/mao-client/game/protocol"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	session Session
}

// NewGameService creates a new game service over s
func NewGameService(s Session) GameService {
	return &gameServiceImpl{session: s}
}

// Connect opens a fresh connection to the server
func (g *gameServiceImpl) Connect(ctx context.Context) error {
	if err := g.session.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

// Status reports the connection and current game
func (g *gameServiceImpl) Status(ctx context.Context) (*StatusInfo, error) {
	stats := g.session.Stats()
	info := &StatusInfo{
		Connected:        g.session.Connected(),
		State:            stats.StateName,
		ReconnectAttempt: stats.ReconnectAttempt,
		Pending:          stats.Pending,
		FramesSent:       stats.FramesSent,
		FramesReceived:   stats.FramesReceived,
	}
	if state := g.session.GameState(); state != nil {
		info.GameID = state.ID
		info.GameStatus = state.Status
		info.PlayerID = state.PlayerID
	}
	return info, nil
}

// CreateGame asks the server for a new game with the caller as admin
func (g *gameServiceImpl) CreateGame(ctx context.Context, name string) (*IntentResult, error) {
	return g.send(protocol.CreateGame{Name: name}, "")
}

// JoinGame joins gameID under name
func (g *gameServiceImpl) JoinGame(ctx context.Context, gameID, name string) (*IntentResult, error) {
	return g.send(protocol.JoinGame{GameID: gameID, Name: name}, gameID)
}

// StartGame starts the current game
func (g *gameServiceImpl) StartGame(ctx context.Context) (*IntentResult, error) {
	gameID, err := g.currentGame()
	if err != nil {
		return nil, err
	}
	return g.send(protocol.StartGame{GameID: gameID}, gameID)
}

// ProposeDraw proposes drawing a card in the current game
func (g *gameServiceImpl) ProposeDraw(ctx context.Context) (*IntentResult, error) {
	gameID, err := g.currentGame()
	if err != nil {
		return nil, err
	}
	return g.send(protocol.ProposeDraw{GameID: gameID}, gameID)
}

// ProposePlay proposes playing card in the current game
func (g *gameServiceImpl) ProposePlay(ctx context.Context, card protocol.Card) (*IntentResult, error) {
	gameID, err := g.currentGame()
	if err != nil {
		return nil, err
	}
	return g.send(protocol.ProposePlay{GameID: gameID, Card: card}, gameID)
}

// AcceptAction accepts the pending action
func (g *gameServiceImpl) AcceptAction(ctx context.Context) (*IntentResult, error) {
	gameID, err := g.currentGame()
	if err != nil {
		return nil, err
	}
	return g.send(protocol.AcceptAction{GameID: gameID}, gameID)
}

// ChallengeAction challenges the pending action
func (g *gameServiceImpl) ChallengeAction(ctx context.Context) (*IntentResult, error) {
	gameID, err := g.currentGame()
	if err != nil {
		return nil, err
	}
	return g.send(protocol.ChallengeAction{GameID: gameID}, gameID)
}

// ResolveAction resolves the pending action as admin
func (g *gameServiceImpl) ResolveAction(ctx context.Context, resolution protocol.Resolution, penaltyCount int) (*IntentResult, error) {
	gameID, err := g.currentGame()
	if err != nil {
		return nil, err
	}
	return g.send(protocol.ResolveAction{GameID: gameID, Resolution: resolution, PenaltyCount: penaltyCount}, gameID)
}

// Penalize issues an admin penalty to targetPlayerID
func (g *gameServiceImpl) Penalize(ctx context.Context, targetPlayerID string, penaltyCount int) (*IntentResult, error) {
	gameID, err := g.currentGame()
	if err != nil {
		return nil, err
	}
	return g.send(protocol.AdminPenalize{GameID: gameID, TargetPlayerID: targetPlayerID, PenaltyCount: penaltyCount}, gameID)
}

// GetGameState returns the latest snapshot
func (g *gameServiceImpl) GetGameState(ctx context.Context) (*protocol.GameState, error) {
	state := g.session.GameState()
	if state == nil {
		return nil, ErrNoGame
	}
	return state, nil
}

// GetView returns the latest snapshot with derived action flags
func (g *gameServiceImpl) GetView(ctx context.Context) (*GameView, error) {
	state := g.session.GameState()
	if state == nil {
		return nil, ErrNoGame
	}
	return NewGameView(state, g.session.Connected()), nil
}

func (g *gameServiceImpl) currentGame() (string, error) {
	state := g.session.GameState()
	if state == nil || state.ID == "" {
		return "", ErrNoGame
	}
	return state.ID, nil
}

func (g *gameServiceImpl) send(m protocol.Outbound, gameID string) (*IntentResult, error) {
	queued := !g.session.Connected()
	if err := g.session.Send(m); err != nil {
		return nil, err
	}
	return &IntentResult{Type: m.Type(), GameID: gameID, Queued: queued}, nil
}
