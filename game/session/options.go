package session

import (
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/wricardo/mao-client/game/protocol"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Session
type Option func(*Session)

// WithDialer replaces the gorilla/websocket dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithMetrics records session activity in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for dial spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithQueueStore persists the pending queue and restores it on construction.
func WithQueueStore(store QueueStore) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithRand sets the jitter source. It is only used from the session loop.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		s.rng = r
	}
}

// WithSnapshotHandler is called with every new snapshot.
// Handlers run on the session loop and must not block.
func WithSnapshotHandler(fn func(*protocol.GameState)) Option {
	return func(s *Session) {
		s.onSnapshot = fn
	}
}

// WithConnectivityHandler is called whenever the connectivity flag flips.
func WithConnectivityHandler(fn func(bool)) Option {
	return func(s *Session) {
		s.onConnected = fn
	}
}

// WithFrameHandler is called with every decoded inbound frame, including
// tags the session does not interpret.
func WithFrameHandler(fn func(protocol.Inbound)) Option {
	return func(s *Session) {
		s.onFrame = fn
	}
}
