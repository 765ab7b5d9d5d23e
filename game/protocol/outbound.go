package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType is the "type" tag carried by every frame
type MessageType string

// Outbound frame kinds
const (
	TypeCreateGame      MessageType = "CREATE_GAME"
	TypeJoinGame        MessageType = "JOIN_GAME"
	TypeStartGame       MessageType = "START_GAME"
	TypeProposeDraw     MessageType = "PROPOSE_DRAW"
	TypeProposePlay     MessageType = "PROPOSE_PLAY"
	TypeAcceptAction    MessageType = "ACCEPT_ACTION"
	TypeChallengeAction MessageType = "CHALLENGE_ACTION"
	TypeResolveAction   MessageType = "RESOLVE_ACTION"
	TypeAdminPenalize   MessageType = "ADMIN_PENALIZE"
	TypePing            MessageType = "PING"
)

// Inbound frame kinds
const (
	TypeGameState MessageType = "GAME_STATE"
)

var ErrInvalidMessage = errors.New("invalid message")

// Outbound is a player intent (or heartbeat) sent to the server.
// The set of implementations is closed to this package.
type Outbound interface {
	Type() MessageType
	Validate() error
	outbound()
}

// Frame is an encoded outbound message ready for the transport
type Frame struct {
	ID       string          `json:"id"`
	Type     MessageType     `json:"type"`
	Data     json.RawMessage `json:"data"`
	QueuedAt time.Time       `json:"queued_at"`
}

// Encode validates m and serializes it to its wire form.
func Encode(m Outbound) (Frame, error) {
	if m == nil {
		return Frame{}, fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if err := m.Validate(); err != nil {
		return Frame{}, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	return Frame{
		ID:       uuid.NewString(),
		Type:     m.Type(),
		Data:     data,
		QueuedAt: time.Now(),
	}, nil
}

// CreateGame asks the server to open a new game with the caller as admin
type CreateGame struct {
	Name string `json:"name"`
}

// JoinGame joins an existing game that has not started yet
type JoinGame struct {
	GameID string `json:"gameId"`
	Name   string `json:"name"`
}

// StartGame deals the cards; admin only
type StartGame struct {
	GameID string `json:"gameId"`
}

// ProposeDraw proposes drawing a card
type ProposeDraw struct {
	GameID string `json:"gameId"`
}

// ProposePlay proposes playing a card from the caller's hand
type ProposePlay struct {
	GameID string `json:"gameId"`
	Card   Card   `json:"card"`
}

// AcceptAction accepts the pending action
type AcceptAction struct {
	GameID string `json:"gameId"`
}

// ChallengeAction challenges the pending action
type ChallengeAction struct {
	GameID string `json:"gameId"`
}

// ResolveAction settles the pending action; admin only
type ResolveAction struct {
	GameID       string     `json:"gameId"`
	Resolution   Resolution `json:"resolution"`
	PenaltyCount int        `json:"penaltyCount,omitempty"`
}

// AdminPenalize hands penalty cards to a player; admin only
type AdminPenalize struct {
	GameID         string `json:"gameId"`
	TargetPlayerID string `json:"targetPlayerId"`
	PenaltyCount   int    `json:"penaltyCount,omitempty"`
}

// Ping is the keepalive heartbeat
type Ping struct{}

func (CreateGame) Type() MessageType      { return TypeCreateGame }
func (JoinGame) Type() MessageType        { return TypeJoinGame }
func (StartGame) Type() MessageType       { return TypeStartGame }
func (ProposeDraw) Type() MessageType     { return TypeProposeDraw }
func (ProposePlay) Type() MessageType     { return TypeProposePlay }
func (AcceptAction) Type() MessageType    { return TypeAcceptAction }
func (ChallengeAction) Type() MessageType { return TypeChallengeAction }
func (ResolveAction) Type() MessageType   { return TypeResolveAction }
func (AdminPenalize) Type() MessageType   { return TypeAdminPenalize }
func (Ping) Type() MessageType            { return TypePing }

func (CreateGame) outbound()      {}
func (JoinGame) outbound()        {}
func (StartGame) outbound()       {}
func (ProposeDraw) outbound()     {}
func (ProposePlay) outbound()     {}
func (AcceptAction) outbound()    {}
func (ChallengeAction) outbound() {}
func (ResolveAction) outbound()   {}
func (AdminPenalize) outbound()   {}
func (Ping) outbound()            {}

func (m CreateGame) Validate() error {
	return requireField(m.Type(), "name", m.Name)
}

func (m JoinGame) Validate() error {
	if err := requireField(m.Type(), "gameId", m.GameID); err != nil {
		return err
	}
	return requireField(m.Type(), "name", m.Name)
}

func (m StartGame) Validate() error {
	return requireField(m.Type(), "gameId", m.GameID)
}

func (m ProposeDraw) Validate() error {
	return requireField(m.Type(), "gameId", m.GameID)
}

func (m ProposePlay) Validate() error {
	if err := requireField(m.Type(), "gameId", m.GameID); err != nil {
		return err
	}
	if !m.Card.Valid() {
		return fmt.Errorf("%w: %s: unknown card %q of %q", ErrInvalidMessage, m.Type(), m.Card.Rank, m.Card.Suit)
	}
	return nil
}

func (m AcceptAction) Validate() error {
	return requireField(m.Type(), "gameId", m.GameID)
}

func (m ChallengeAction) Validate() error {
	return requireField(m.Type(), "gameId", m.GameID)
}

func (m ResolveAction) Validate() error {
	if err := requireField(m.Type(), "gameId", m.GameID); err != nil {
		return err
	}
	if !m.Resolution.Valid() {
		return fmt.Errorf("%w: %s: unknown resolution %q", ErrInvalidMessage, m.Type(), m.Resolution)
	}
	return requireNonNegative(m.Type(), m.PenaltyCount)
}

func (m AdminPenalize) Validate() error {
	if err := requireField(m.Type(), "gameId", m.GameID); err != nil {
		return err
	}
	if err := requireField(m.Type(), "targetPlayerId", m.TargetPlayerID); err != nil {
		return err
	}
	return requireNonNegative(m.Type(), m.PenaltyCount)
}

func (Ping) Validate() error { return nil }

// MarshalJSON methods emit the type tag as the first key.

func (m CreateGame) MarshalJSON() ([]byte, error) {
	type alias CreateGame
	return marshalTagged(m.Type(), alias(m))
}

func (m JoinGame) MarshalJSON() ([]byte, error) {
	type alias JoinGame
	return marshalTagged(m.Type(), alias(m))
}

func (m StartGame) MarshalJSON() ([]byte, error) {
	type alias StartGame
	return marshalTagged(m.Type(), alias(m))
}

func (m ProposeDraw) MarshalJSON() ([]byte, error) {
	type alias ProposeDraw
	return marshalTagged(m.Type(), alias(m))
}

func (m ProposePlay) MarshalJSON() ([]byte, error) {
	type alias ProposePlay
	return marshalTagged(m.Type(), alias(m))
}

func (m AcceptAction) MarshalJSON() ([]byte, error) {
	type alias AcceptAction
	return marshalTagged(m.Type(), alias(m))
}

func (m ChallengeAction) MarshalJSON() ([]byte, error) {
	type alias ChallengeAction
	return marshalTagged(m.Type(), alias(m))
}

func (m ResolveAction) MarshalJSON() ([]byte, error) {
	type alias ResolveAction
	return marshalTagged(m.Type(), alias(m))
}

func (m AdminPenalize) MarshalJSON() ([]byte, error) {
	type alias AdminPenalize
	return marshalTagged(m.Type(), alias(m))
}

func (m Ping) MarshalJSON() ([]byte, error) {
	return marshalTagged(m.Type(), struct{}{})
}

// marshalTagged encodes body as a JSON object and prepends the type tag.
func marshalTagged(t MessageType, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: %s body is not an object", ErrInvalidMessage, t)
	}
	tag, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(raw)+len(tag)+10)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(raw) > 2 {
		out = append(out, ',')
		out = append(out, raw[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

func requireField(t MessageType, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s: missing %s", ErrInvalidMessage, t, field)
	}
	return nil
}

func requireNonNegative(t MessageType, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: %s: negative penaltyCount %d", ErrInvalidMessage, t, count)
	}
	return nil
}
