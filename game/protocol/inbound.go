package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrMissingType    = errors.New("frame missing type")
	ErrMissingPayload = errors.New("frame missing payload")
)

// Inbound is a decoded server frame. It is either a GameStateMessage or an
// UnknownMessage.
type Inbound interface {
	Type() MessageType
	inbound()
}

// GameStateMessage carries a full snapshot that supersedes any earlier one
type GameStateMessage struct {
	State *GameState
}

// UnknownMessage is any well-formed frame whose tag this client does not
// interpret. The raw payload is kept for callers that want it.
type UnknownMessage struct {
	Tag     MessageType
	Payload json.RawMessage
}

func (GameStateMessage) Type() MessageType { return TypeGameState }
func (m UnknownMessage) Type() MessageType { return m.Tag }

func (GameStateMessage) inbound() {}
func (UnknownMessage) inbound()   {}

type envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeInbound parses one server frame.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}

	switch env.Type {
	case TypeGameState:
		if len(env.Payload) == 0 || bytes.Equal(bytes.TrimSpace(env.Payload), []byte("null")) {
			return nil, fmt.Errorf("%w: %s", ErrMissingPayload, env.Type)
		}
		state := new(GameState)
		if err := json.Unmarshal(env.Payload, state); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
		}
		return GameStateMessage{State: state}, nil
	default:
		return UnknownMessage{Tag: env.Type, Payload: env.Payload}, nil
	}
}

// PeekType returns the type tag of an encoded frame without decoding the body.
func PeekType(data []byte) (MessageType, error) {
	var env struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return "", ErrMissingType
	}
	return env.Type, nil
}
