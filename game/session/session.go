package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wricardo/mao-client/game/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrClosed is returned by operations on a session after Close.
var ErrClosed = errors.New("session closed")

const (
	tracerName  = "github.com/wricardo/mao-client/game/session"
	eventBuffer = 256
)

// State is the transport lifecycle state of a session
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of session counters.
type Stats struct {
	State            State  `json:"-"`
	StateName        string `json:"state"`
	Connected        bool   `json:"connected"`
	ReconnectAttempt int    `json:"reconnect_attempt"`
	Pending          int    `json:"pending"`
	FramesSent       int64  `json:"frames_sent"`
	FramesReceived   int64  `json:"frames_received"`
}

// Session maintains the connection to the Mao server
type Session struct {
	id  string
	cfg Config
	log zerolog.Logger

	dialer  Dialer
	tracer  trace.Tracer
	metrics *Metrics
	store   QueueStore
	rng     *rand.Rand

	onSnapshot  func(*protocol.GameState)
	onConnected func(bool)
	onFrame     func(protocol.Inbound)

	// Timer hooks, replaced in tests.
	newTicker func(time.Duration) (<-chan time.Time, func())
	afterFunc func(time.Duration, func())

	events chan event
	quit   chan struct{}

	// mu orders caller posts against teardown.
	mu     sync.RWMutex
	closed bool

	// Published for readers outside the loop.
	connected      atomic.Bool
	state          atomic.Int32
	snapshot       atomic.Pointer[protocol.GameState]
	attemptCount   atomic.Int64
	pendingCount   atomic.Int64
	framesSent     atomic.Int64
	framesReceived atomic.Int64

	// Owned by the loop goroutine.
	ctx        context.Context
	cancel     context.CancelFunc
	cancelDial context.CancelFunc
	dials      sync.WaitGroup
	gen        uint64
	transport  *transport
	keepalive  *keepalive
	pending    pendingQueue
	attempt    int
	reconnect  bool
	ping       protocol.Frame
}

type event interface{}

type (
	connectRequest  struct{}
	teardownRequest struct{}
	sendRequest     struct{ frame protocol.Frame }
	transportOpened struct {
		gen  uint64
		conn Conn
	}
	transportFrame struct {
		gen  uint64
		data []byte
	}
	transportError struct {
		gen uint64
		err error
	}
	transportClosed struct {
		gen uint64
		err error
	}
	keepaliveTick  struct{ gen uint64 }
	reconnectFired struct{ gen uint64 }
)

// New creates a session and starts its event loop. It does not connect;
// call Connect.
func New(cfg Config, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		log:       zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
		newTicker: realTicker,
		afterFunc: realAfterFunc,
		events:    make(chan event, eventBuffer),
		quit:      make(chan struct{}),
		reconnect: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = NewWebsocketDialer(cfg)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.log = s.log.With().Str("component", "session").Str("session_id", s.id).Logger()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ping, _ = protocol.Encode(protocol.Ping{})
	s.state.Store(int32(StateDisconnected))

	if s.store != nil {
		frames, err := s.store.Load()
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to restore pending queue")
		}
		for _, f := range frames {
			s.pending.push(f)
		}
		if len(frames) > 0 {
			s.log.Info().Int("pending", len(frames)).Msg("restored pending queue")
		}
	}
	s.syncPending()

	go s.run()
	return s
}

// ID returns the local identifier of this session, used in logs.
func (s *Session) ID() string {
	return s.id
}

// Connect opens a fresh transport, discarding the current one if any.
func (s *Session) Connect() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || !s.post(connectRequest{}) {
		return ErrClosed
	}
	return nil
}

// Send encodes m and writes it, or queues it until the next open.
// Validation errors are returned synchronously; transport errors never are.
func (s *Session) Send(m protocol.Outbound) error {
	frame, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || !s.post(sendRequest{frame: frame}) {
		return ErrClosed
	}
	return nil
}

// Connected reports whether a transport is currently open.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// GameState returns the latest snapshot, or nil before the first one.
// The returned value is replaced, never mutated, by later snapshots.
func (s *Session) GameState() *protocol.GameState {
	return s.snapshot.Load()
}

// State returns the transport lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Stats returns current counters.
func (s *Session) Stats() Stats {
	st := s.State()
	return Stats{
		State:            st,
		StateName:        st.String(),
		Connected:        s.connected.Load(),
		ReconnectAttempt: int(s.attemptCount.Load()),
		Pending:          int(s.pendingCount.Load()),
		FramesSent:       s.framesSent.Load(),
		FramesReceived:   s.framesReceived.Load(),
	}
}

// Close stops reconnection, closes the transport and waits for the loop
// to exit. Pending frames stay in the queue store, if any.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.post(teardownRequest{})
	}
	s.mu.Unlock()
	<-s.quit
	return nil
}

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.quit
}

func (s *Session) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Session) run() {
	for {
		if !s.handle(<-s.events) {
			break
		}
	}
	close(s.quit)
	s.dials.Wait()
	s.drain()
}

// drain closes connections from dials that finished after teardown.
func (s *Session) drain() {
	for {
		select {
		case ev := <-s.events:
			if e, ok := ev.(transportOpened); ok {
				e.conn.Close()
			}
		default:
			return
		}
	}
}

func (s *Session) handle(ev event) bool {
	switch e := ev.(type) {
	case connectRequest:
		s.connect()
	case sendRequest:
		s.send(e.frame)
	case transportOpened:
		s.handleOpen(e)
	case transportFrame:
		if e.gen == s.gen && s.transport != nil {
			s.dispatch(e.data)
		}
	case transportError:
		s.handleError(e)
	case transportClosed:
		s.handleClose(e)
	case keepaliveTick:
		s.heartbeat(e.gen)
	case reconnectFired:
		s.handleReconnect(e)
	case teardownRequest:
		s.teardown()
		return false
	}
	return true
}

func (s *Session) connect() {
	s.dropTransport()
	s.stopDial()

	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelDial = cancel
	s.setState(StateConnecting)

	s.log.Debug().Uint64("gen", gen).Int("attempt", s.attempt).Str("url", s.cfg.URL).Msg("dialing")
	s.dials.Add(1)
	go s.dial(ctx, gen, s.attempt)
}

func (s *Session) dial(ctx context.Context, gen uint64, attempt int) {
	defer s.dials.Done()

	ctx, span := s.tracer.Start(ctx, "mao.session.dial", trace.WithAttributes(
		attribute.String("mao.url", s.cfg.URL),
		attribute.Int("mao.reconnect_attempt", attempt),
	))
	defer span.End()

	conn, err := s.dialer.Dial(ctx, s.cfg.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		s.post(transportError{gen: gen, err: err})
		s.post(transportClosed{gen: gen, err: err})
		return
	}
	// Superseded or torn down while the handshake was in flight.
	if ctx.Err() != nil {
		conn.Close()
		return
	}
	if !s.post(transportOpened{gen: gen, conn: conn}) {
		conn.Close()
	}
}

func (s *Session) handleOpen(e transportOpened) {
	if e.gen != s.gen || s.transport != nil {
		s.log.Debug().Uint64("gen", e.gen).Msg("discarding superseded transport")
		e.conn.Close()
		return
	}
	s.stopDial()

	t := &transport{conn: e.conn, gen: e.gen}
	s.transport = t
	s.attempt = 0
	s.attemptCount.Store(0)
	s.setState(StateConnected)
	s.setConnected(true)
	s.metrics.opened()
	s.log.Info().Uint64("gen", e.gen).Int("pending", s.pending.len()).Msg("connected")

	go s.readPump(t)
	s.flush()
	s.startKeepalive(t)
}

func (s *Session) handleError(e transportError) {
	if e.gen != s.gen {
		return
	}
	s.setConnected(false)
	s.log.Debug().Err(e.err).Uint64("gen", e.gen).Msg("transport error")
}

func (s *Session) handleClose(e transportClosed) {
	if e.gen != s.gen {
		return
	}
	s.dropTransport()
	s.stopDial()
	// Retire the generation so duplicate closes and late ticks are stale.
	s.gen++
	s.setConnected(false)
	s.setState(StateDisconnected)
	s.metrics.closed()
	s.log.Info().Err(e.err).Msg("disconnected")

	if s.reconnect {
		s.scheduleReconnect()
	}
}

func (s *Session) scheduleReconnect() {
	s.attempt++
	s.attemptCount.Store(int64(s.attempt))
	delay := NextReconnectDelay(s.cfg.Backoff, s.attempt, s.rng)
	gen := s.gen

	s.metrics.reconnectScheduled(delay)
	s.log.Info().Int("attempt", s.attempt).Dur("delay", delay).Msg("reconnect scheduled")
	s.afterFunc(delay, func() {
		s.post(reconnectFired{gen: gen})
	})
}

func (s *Session) handleReconnect(e reconnectFired) {
	if !s.reconnect {
		return
	}
	if e.gen != s.gen {
		s.log.Debug().Uint64("gen", e.gen).Msg("reconnect superseded")
		return
	}
	s.connect()
}

func (s *Session) teardown() {
	s.reconnect = false
	s.dropTransport()
	s.stopDial()
	s.cancel()
	s.gen++
	s.setConnected(false)
	s.setState(StateClosed)
	s.log.Info().Int("pending", s.pending.len()).Msg("session closed")
}

func (s *Session) dropTransport() {
	s.stopKeepalive()
	if s.transport == nil {
		return
	}
	s.transport.conn.Close()
	s.transport = nil
	s.setConnected(false)
}

func (s *Session) stopDial() {
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
}

func (s *Session) send(frame protocol.Frame) {
	t := s.transport
	if t.writable() && s.pending.len() == 0 {
		if err := s.write(t, frame); err == nil {
			return
		}
	}

	s.pending.push(frame)
	s.syncPending()
	s.persist()
	s.log.Debug().Str("type", string(frame.Type)).Int("pending", s.pending.len()).Msg("frame queued")

	if t.writable() {
		s.flush()
	}
}

// flush writes queued frames in order. A frame leaves the queue only after
// its write succeeds.
func (s *Session) flush() {
	t := s.transport
	flushed := 0
	for t.writable() {
		f, ok := s.pending.peek()
		if !ok {
			break
		}
		if err := s.write(t, f); err != nil {
			break
		}
		s.pending.pop()
		flushed++
	}
	if flushed > 0 {
		s.syncPending()
		s.persist()
		s.log.Debug().Int("flushed", flushed).Int("pending", s.pending.len()).Msg("queue flushed")
	}
}

func (s *Session) write(t *transport, frame protocol.Frame) error {
	if s.cfg.WriteTimeout > 0 {
		t.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, frame.Data); err != nil {
		// The read pump observes the close and reports it.
		t.broken = true
		t.conn.Close()
		s.setConnected(false)
		s.metrics.writeError()
		s.log.Debug().Err(err).Str("type", string(frame.Type)).Msg("write failed")
		return err
	}
	s.framesSent.Add(1)
	s.metrics.sent(frame.Type)
	return nil
}

func (s *Session) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.pending.snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist pending queue")
	}
}

func (s *Session) syncPending() {
	n := s.pending.len()
	s.pendingCount.Store(int64(n))
	s.metrics.setPending(n)
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) setConnected(v bool) {
	if s.connected.Swap(v) == v {
		return
	}
	s.metrics.setConnected(v)
	if s.onConnected != nil {
		s.onConnected(v)
	}
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func realAfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
