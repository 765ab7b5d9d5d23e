package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wricardo/mao-client/game/protocol"
)

func TestFileQueueStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileQueueStore(dir)
	if err != nil {
		t.Fatalf("Failed to create file queue store: %v", err)
	}

	t.Run("Missing file loads empty", func(t *testing.T) {
		frames, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(frames) != 0 {
			t.Errorf("Expected no frames, got %d", len(frames))
		}
	})

	t.Run("Save and Load", func(t *testing.T) {
		join, _ := protocol.Encode(protocol.JoinGame{GameID: "ABCD", Name: "bob"})
		draw, _ := protocol.Encode(protocol.ProposeDraw{GameID: "ABCD"})

		if err := store.Save([]protocol.Frame{join, draw}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		frames, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(frames) != 2 {
			t.Fatalf("Expected 2 frames, got %d", len(frames))
		}
		if frames[0].ID != join.ID || frames[1].ID != draw.ID {
			t.Error("Expected frames to load in saved order")
		}
		if string(frames[0].Data) != string(join.Data) {
			t.Errorf("Expected data %s, got %s", join.Data, frames[0].Data)
		}
		if frames[1].Type != protocol.TypeProposeDraw {
			t.Errorf("Expected type %s, got %s", protocol.TypeProposeDraw, frames[1].Type)
		}
	})

	t.Run("Save empty clears queue", func(t *testing.T) {
		if err := store.Save(nil); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		frames, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(frames) != 0 {
			t.Errorf("Expected empty queue, got %d frames", len(frames))
		}
	})

	t.Run("Client id survives reopen", func(t *testing.T) {
		reopened, err := NewFileQueueStore(dir)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		if reopened.ClientID() != store.ClientID() {
			t.Errorf("Expected client id %s, got %s", store.ClientID(), reopened.ClientID())
		}
	})

	t.Run("No temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != queueFileName {
			names := []string{}
			for _, e := range entries {
				names = append(names, e.Name())
			}
			t.Errorf("Expected only %s, got %v", queueFileName, names)
		}
	})
}

func TestFileQueueStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, queueFileName), []byte("{nope"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	store, err := NewFileQueueStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if store.ClientID() == "" {
		t.Error("Expected a fresh client id for a corrupt file")
	}

	if _, err := store.Load(); !errors.Is(err, ErrQueueCorrupt) {
		t.Errorf("Expected ErrQueueCorrupt, got %v", err)
	}
}

func TestSessionWithFileQueueStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileQueueStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	d := newFakeDialer()
	s := newTestSession(t, d, &fakeClock{}, WithQueueStore(store))
	s.Send(protocol.CreateGame{Name: "alice"})
	waitFor(t, "frame queued", func() bool { return s.Stats().Pending == 1 })
	s.Close()

	restored := newTestSession(t, d, &fakeClock{}, WithQueueStore(store))
	if restored.Stats().Pending != 1 {
		t.Fatalf("Expected 1 restored frame, got %d", restored.Stats().Pending)
	}

	conn := connectTo(t, restored, d)
	waitFor(t, "restored frame written", func() bool { return len(conn.Written()) == 1 })
	if got := conn.Written()[0]; got != `{"type":"CREATE_GAME","name":"alice"}` {
		t.Errorf("Unexpected frame %s", got)
	}
}

func TestFileQueueStorePreservesEncoding(t *testing.T) {
	store, err := NewFileQueueStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	play, err := protocol.Encode(protocol.ProposePlay{
		GameID: "ABCD",
		Card:   protocol.Card{Rank: "7", Suit: protocol.SuitHearts},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if err := store.Save([]protocol.Frame{play}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	frames, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}

	expected := `{"type":"PROPOSE_PLAY","gameId":"ABCD","card":{"rank":"7","suit":"hearts"}}`
	if string(frames[0].Data) != expected {
		t.Errorf("Expected data %s, got %s", expected, frames[0].Data)
	}
	if string(frames[0].Data) != string(play.Data) {
		t.Errorf("Expected restored data to match encoded data %s, got %s", play.Data, frames[0].Data)
	}
}
