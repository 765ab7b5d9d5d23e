package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/mao-client/game/protocol"
)

const (
	// Time allowed to write a message to the viewer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the viewer.
	pongWait = 60 * time.Second

	// Send pings to viewer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from a viewer.
	maxMessageSize = 512
)

// Hub events
const (
	EventStateUpdate  = "state_update"
	EventConnectivity = "connectivity"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Viewers are local pages served from any dev port.
		return true
	},
}

// Message is what viewers receive. Every message carries the latest
// snapshot and connectivity, so a viewer only needs the last one.
type Message struct {
	Event     string              `json:"event"`
	Connected bool                `json:"connected"`
	GameState *protocol.GameState `json:"game_state,omitempty"`
}

// Client represents a viewer connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans the session's snapshot out to local viewers
type Hub struct {
	// Registered viewers
	clients map[*Client]bool

	// Latest known state, replayed to new viewers
	state     *protocol.GameState
	connected bool

	// Updates from the session
	broadcast chan *Message

	// Register requests from viewers
	register chan *Client

	// Unregister requests from viewers
	unregister chan *Client

	// Viewer count requests
	count chan chan int

	// Closed by Stop
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case reply := <-h.count:
			reply <- len(h.clients)

		case <-h.done:
			for client := range h.clients {
				h.unregisterClient(client)
			}
			log.Debug().Msg("hub stopped")
			return
		}
	}
}

// Stop ends Run and disconnects every viewer. Broadcasts after Stop are
// dropped. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// ServeWS upgrades a viewer connection and registers it
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("viewer upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case client.hub.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastState publishes a new snapshot
func (h *Hub) BroadcastState(state *protocol.GameState, connected bool) {
	h.publish(&Message{
		Event:     EventStateUpdate,
		Connected: connected,
		GameState: state,
	})
}

// BroadcastConnectivity publishes a connectivity change, keeping the
// last snapshot
func (h *Hub) BroadcastConnectivity(connected bool) {
	h.publish(&Message{
		Event:     EventConnectivity,
		Connected: connected,
	})
}

func (h *Hub) publish(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// ClientCount returns the number of registered viewers. Run must be
// active; a stopped hub reports zero.
func (h *Hub) ClientCount() int {
	reply := make(chan int)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// registerClient adds a viewer and sends it the latest state
func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true

	if data, err := json.Marshal(h.current(EventStateUpdate)); err == nil {
		client.send <- data
	}

	log.Debug().Int("viewers", len(h.clients)).Msg("viewer registered")
}

// unregisterClient removes a viewer
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		log.Debug().Int("viewers", len(h.clients)).Msg("viewer unregistered")
	}
}

// broadcastMessage records the update and sends it to all viewers
func (h *Hub) broadcastMessage(message *Message) {
	if message.GameState != nil {
		h.state = message.GameState
	}
	h.connected = message.Connected

	data, err := json.Marshal(h.current(message.Event))
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal viewer message")
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Viewer is not keeping up
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) current(event string) *Message {
	return &Message{
		Event:     event,
		Connected: h.connected,
		GameState: h.state,
	}
}

// readPump drains the viewer connection until it closes
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Viewers are read-only; intents go through the REST API
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("viewer connection error")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the viewer connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame; viewers only need the newest
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
