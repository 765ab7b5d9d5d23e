package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mao-client/game/protocol"
)

const queueFileName = "pending.json"

// FileQueueStore implements QueueStore using a single JSON file
type FileQueueStore struct {
	dir      string
	clientID string
}

// NewFileQueueStore creates a file-backed queue store in dir.
// The client id is reused from an existing file when there is one.
func NewFileQueueStore(dir string) (*FileQueueStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	fs := &FileQueueStore{dir: dir}
	if data, err := fs.read(); err == nil && data.ClientID != "" {
		fs.clientID = data.ClientID
	} else {
		fs.clientID = uuid.NewString()
	}
	return fs, nil
}

// ClientID identifies this client installation across restarts.
func (fs *FileQueueStore) ClientID() string {
	return fs.clientID
}

// Path returns the queue file location.
func (fs *FileQueueStore) Path() string {
	return filepath.Join(fs.dir, queueFileName)
}

// Load reads the persisted queue. A missing file is an empty queue.
func (fs *FileQueueStore) Load() ([]protocol.Frame, error) {
	data, err := fs.read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data.Frames, nil
}

// Save writes the queue atomically via a temp file and rename.
func (fs *FileQueueStore) Save(frames []protocol.Frame) error {
	if frames == nil {
		frames = []protocol.Frame{}
	}
	data := PersistedQueue{
		ClientID: fs.clientID,
		SavedAt:  time.Now().UTC(),
		Frames:   frames,
	}

	// Frame data must round-trip byte for byte, so the file is not indented.
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}

	tmp, err := os.CreateTemp(fs.dir, queueFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create queue file: %w", err)
	}
	if _, err := tmp.Write(jsonData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write queue file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.Path()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace queue file: %w", err)
	}
	return nil
}

func (fs *FileQueueStore) read() (*PersistedQueue, error) {
	jsonData, err := os.ReadFile(fs.Path())
	if err != nil {
		return nil, err
	}
	var data PersistedQueue
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueCorrupt, err)
	}
	return &data, nil
}
