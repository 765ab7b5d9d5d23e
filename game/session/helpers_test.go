package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mao-client/game/protocol"
)

var errConnClosed = errors.New("use of closed connection")

// fakeConn is an in-memory transport. Frames queued with deliver are
// returned by ReadMessage until the connection is closed.
type fakeConn struct {
	mu       sync.Mutex
	written  []string
	writeErr error

	reads     chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:  make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.reads:
		return websocket.TextMessage, data, nil
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	if c.isClosed() {
		return errConnClosed
	}
	c.written = append(c.written, string(data))
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) deliver(data string) {
	c.reads <- []byte(data)
}

func (c *fakeConn) failWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	copy(out, c.written)
	return out
}

// fakeDialer hands out fakeConns. When hold is set the next dial blocks
// until hold is closed.
type fakeDialer struct {
	mu    sync.Mutex
	fail  error
	hold  chan struct{}
	dials int
	conns chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	d.dials++
	fail := d.fail
	hold := d.hold
	d.hold = nil
	d.mu.Unlock()

	if hold != nil {
		<-hold
	}
	if fail != nil {
		return nil, fail
	}
	c := newFakeConn()
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) setFail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = err
}

func (d *fakeDialer) holdNext() chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hold = make(chan struct{})
	return d.hold
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) next(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a dial, got none")
		return nil
	}
}

// fakeClock captures reconnect timers and keepalive tickers.
type fakeClock struct {
	mu      sync.Mutex
	delays  []time.Duration
	timers  []func()
	tickers []chan time.Time
	stopped int
}

func (c *fakeClock) afterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, d)
	c.timers = append(c.timers, f)
}

func (c *fakeClock) newTicker(d time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.tickers = append(c.tickers, ch)
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.stopped++
	}
}

func (c *fakeClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.delays))
	copy(out, c.delays)
	return out
}

func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	f := c.timers[i]
	c.mu.Unlock()
	f()
}

func (c *fakeClock) tick(i int) {
	c.mu.Lock()
	ch := c.tickers[i]
	c.mu.Unlock()
	ch <- time.Now()
}

func (c *fakeClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *fakeClock) Stopped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func withClock(c *fakeClock) Option {
	return func(s *Session) {
		s.afterFunc = c.afterFunc
		s.newTicker = c.newTicker
	}
}

// memoryStore is a QueueStore kept in memory
type memoryStore struct {
	mu     sync.Mutex
	frames []protocol.Frame
	saves  int
}

func (m *memoryStore) Load() ([]protocol.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]protocol.Frame(nil), m.frames...), nil
}

func (m *memoryStore) Save(frames []protocol.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append([]protocol.Frame(nil), frames...)
	m.saves++
	return nil
}

func (m *memoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func newTestSession(t *testing.T, d *fakeDialer, c *fakeClock, opts ...Option) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.URL = "ws://mao.test/ws"
	opts = append([]Option{WithDialer(d), withClock(c)}, opts...)
	s := New(cfg, opts...)
	t.Cleanup(func() { s.Close() })
	return s
}

// connectTo connects s and returns the opened transport.
func connectTo(t *testing.T, s *Session, d *fakeDialer) *fakeConn {
	t.Helper()
	if err := s.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn := d.next(t)
	waitFor(t, "connected", s.Connected)
	return conn
}
