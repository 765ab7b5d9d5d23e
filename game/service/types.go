package service

import (
	"github.com/wricardo/mao-client/game/protocol"
)

// StatusInfo describes the connection and the current game, if any
type StatusInfo struct {
	Connected        bool                `json:"connected"`
	State            string              `json:"state"`
	ReconnectAttempt int                 `json:"reconnect_attempt"`
	Pending          int                 `json:"pending"`
	FramesSent       int64               `json:"frames_sent"`
	FramesReceived   int64               `json:"frames_received"`
	GameID           string              `json:"game_id,omitempty"`
	GameStatus       protocol.GameStatus `json:"game_status,omitempty"`
	PlayerID         string              `json:"player_id,omitempty"`
}

// IntentResult reports what was handed to the session
type IntentResult struct {
	Type   protocol.MessageType `json:"type"`
	GameID string               `json:"game_id,omitempty"`
	// Queued is true when the session was offline; the frame goes out on
	// the next open.
	Queued bool `json:"queued"`
}

// GameView is the snapshot plus the actions currently available to the
// local player
type GameView struct {
	State          *protocol.GameState `json:"state"`
	Connected      bool                `json:"connected"`
	IsAdmin        bool                `json:"is_admin"`
	CanStart       bool                `json:"can_start"`
	CanProposeDraw bool                `json:"can_propose_draw"`
	CanReact       bool                `json:"can_react"`
	CanResolve     bool                `json:"can_resolve"`
	PendingIsMine  bool                `json:"pending_is_mine"`
	HasResponded   bool                `json:"has_responded"`
	Hand           []string            `json:"hand"`
	TopCard        string              `json:"top_card,omitempty"`
}

// NewGameView derives a view from state. state may be nil.
func NewGameView(state *protocol.GameState, connected bool) *GameView {
	v := &GameView{
		State:          state,
		Connected:      connected,
		IsAdmin:        state.IsAdmin(),
		CanStart:       state.CanStart(),
		CanProposeDraw: state.CanProposeDraw(),
		CanReact:       state.CanReact(),
		CanResolve:     state.CanResolve(),
		PendingIsMine:  state.PendingIsMine(),
		HasResponded:   state.HasResponded(),
		Hand:           []string{},
	}
	if state == nil {
		return v
	}
	for _, c := range state.Hand {
		v.Hand = append(v.Hand, c.String())
	}
	if state.TopCard != nil {
		v.TopCard = state.TopCard.String()
	}
	return v
}
