package protocol

import (
	"encoding/json"
	"fmt"
)

// GameStatus is the lifecycle state of a game on the server
type GameStatus string

const (
	StatusWaiting GameStatus = "WAITING"
	StatusActive  GameStatus = "ACTIVE"
	StatusEnded   GameStatus = "ENDED"
)

// ActionType is the kind of a proposed action
type ActionType string

const (
	ActionPlayCard ActionType = "PLAY_CARD"
	ActionDraw     ActionType = "DRAW"
)

// Resolution is the admin's verdict on a pending action
type Resolution string

const (
	ResolutionAccept            Resolution = "ACCEPT"
	ResolutionAcceptWithPenalty Resolution = "ACCEPT_WITH_PENALTY"
	ResolutionReject            Resolution = "REJECT"
)

// Valid reports whether r is one of the known resolutions
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionAccept, ResolutionAcceptWithPenalty, ResolutionReject:
		return true
	}
	return false
}

// EventType tags an entry of the recent event log
type EventType string

const (
	EventAction  EventType = "ACTION"
	EventPenalty EventType = "PENALTY"
)

// Suits accepted by the server
const (
	SuitHearts   = "hearts"
	SuitDiamonds = "diamonds"
	SuitClubs    = "clubs"
	SuitSpades   = "spades"
)

// Ranks lists the card ranks in deck order.
var Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Suits lists the card suits.
var Suits = []string{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Card is a single playing card
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// Valid reports whether the card uses a known rank and suit
func (c Card) Valid() bool {
	return contains(Ranks, c.Rank) && contains(Suits, c.Suit)
}

// String renders the card as rank followed by the suit symbol, e.g. "7♥".
func (c Card) String() string {
	return c.Rank + suitSymbol(c.Suit)
}

// Red reports whether the card is a heart or a diamond
func (c Card) Red() bool {
	return c.Suit == SuitHearts || c.Suit == SuitDiamonds
}

func suitSymbol(suit string) string {
	switch suit {
	case SuitHearts:
		return "♥"
	case SuitDiamonds:
		return "♦"
	case SuitClubs:
		return "♣"
	case SuitSpades:
		return "♠"
	}
	return suit
}

// Player is one seat at the table, in seating order
type Player struct {
	ID        string `json:"id"`
	HandCount int    `json:"handCount"`
}

// UnmarshalJSON accepts either a bare player id string or an object.
// Older servers push players as plain ids.
func (p *Player) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*p = Player{ID: id}
		return nil
	}

	type alias Player
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	*p = Player(a)
	return nil
}

// Action is a proposed (or resolved) play or draw
type Action struct {
	ID           string     `json:"id"`
	PlayerID     string     `json:"playerId"`
	Type         ActionType `json:"type"`
	Card         *Card      `json:"card,omitempty"`
	AcceptedBy   []string   `json:"acceptedBy"`
	ChallengedBy []string   `json:"challengedBy"`
	Resolution   Resolution `json:"resolution,omitempty"`
}

// Event is an entry of the server's recent event log
type Event struct {
	Type       EventType `json:"type"`
	PlayerID   string    `json:"playerId,omitempty"`
	ActionID   string    `json:"actionId,omitempty"`
	ActionType string    `json:"actionType,omitempty"`
	Card       *Card     `json:"card,omitempty"`
	Penalty    int       `json:"penalty,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  int64     `json:"timestamp"`
}

// GameState is the authoritative per-player snapshot pushed by the server.
// Each push replaces the previous snapshot entirely.
type GameState struct {
	ID            string     `json:"id"`
	Status        GameStatus `json:"status"`
	AdminID       string     `json:"adminId"`
	Players       []Player   `json:"players"`
	PlayerID      string     `json:"playerId"`
	Hand          []Card     `json:"hand"`
	CurrentAction *Action    `json:"currentAction,omitempty"`
	TopCard       *Card      `json:"topCard,omitempty"`
	LastAction    *Action    `json:"lastAction,omitempty"`
	WinnerID      string     `json:"winnerId,omitempty"`
	RecentEvents  []Event    `json:"recentEvents,omitempty"`
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
