package session

import (
	"errors"
	"time"

	"github.com/wricardo/mao-client/game/protocol"
)

// ErrQueueCorrupt is returned when a persisted queue cannot be decoded.
var ErrQueueCorrupt = errors.New("persisted queue is corrupt")

// QueueStore defines the interface for persisting the pending queue.
// Only the session loop calls it.
type QueueStore interface {
	// Load returns the frames saved by the last Save, oldest first
	Load() ([]protocol.Frame, error)

	// Save replaces the persisted queue with frames
	Save(frames []protocol.Frame) error
}

// PersistedQueue represents the JSON structure for a persisted queue
type PersistedQueue struct {
	ClientID string           `json:"client_id"`
	SavedAt  time.Time        `json:"saved_at"`
	Frames   []protocol.Frame `json:"frames"`
}
