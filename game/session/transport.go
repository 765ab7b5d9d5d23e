package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens a transport to the Mao server.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// WebsocketDialer dials with gorilla/websocket
type WebsocketDialer struct {
	Dialer    *websocket.Dialer
	Header    http.Header
	ReadLimit int64
}

// NewWebsocketDialer creates a dialer honoring the handshake timeout and
// read limit from cfg.
func NewWebsocketDialer(cfg Config) *WebsocketDialer {
	return &WebsocketDialer{
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
		ReadLimit: cfg.ReadLimit,
	}
}

// Dial implements Dialer
func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return conn, nil
}

// transport is one opened connection and the generation it belongs to.
type transport struct {
	conn   Conn
	gen    uint64
	broken bool
}

func (t *transport) writable() bool {
	return t != nil && !t.broken
}

// readPump forwards frames and the final close to the session loop.
func (s *Session) readPump(t *transport) {
	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.post(transportError{gen: t.gen, err: err})
			}
			s.post(transportClosed{gen: t.gen, err: err})
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		if !s.post(transportFrame{gen: t.gen, data: data}) {
			t.conn.Close()
			return
		}
	}
}
