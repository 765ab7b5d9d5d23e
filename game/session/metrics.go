package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wricardo/mao-client/game/protocol"
)

const (
	metricsNamespace = "mao"
	metricsSubsystem = "session"
)

// Metrics holds the Prometheus collectors for a Session.
// A nil *Metrics records nothing.
type Metrics struct {
	connects       prometheus.Counter
	disconnects    prometheus.Counter
	reconnects     prometheus.Counter
	reconnectDelay prometheus.Histogram
	framesSent     *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
	decodeErrors   prometheus.Counter
	writeErrors    prometheus.Counter
	heartbeats     prometheus.Counter
	pending        prometheus.Gauge
	connected      prometheus.Gauge
}

// NewMetrics creates the session collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		}
	}

	return &Metrics{
		connects:     factory.NewCounter(opts("connects_total", "Transports that reached the open state.")),
		disconnects:  factory.NewCounter(opts("disconnects_total", "Transports that closed after opening or failed to open.")),
		reconnects:   factory.NewCounter(opts("reconnects_scheduled_total", "Reconnect attempts scheduled.")),
		decodeErrors: factory.NewCounter(opts("decode_errors_total", "Inbound frames dropped as undecodable.")),
		writeErrors:  factory.NewCounter(opts("write_errors_total", "Failed transport writes.")),
		heartbeats:   factory.NewCounter(opts("heartbeats_total", "Keepalive PING frames written.")),
		reconnectDelay: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "reconnect_delay_seconds",
			Help:      "Scheduled reconnect delays.",
			Buckets:   []float64{1, 2, 4, 8, 16, 30, 31},
		}),
		framesSent: factory.NewCounterVec(
			opts("frames_sent_total", "Outbound frames written to the transport."),
			[]string{"type"},
		),
		framesReceived: factory.NewCounterVec(
			opts("frames_received_total", "Inbound frames decoded."),
			[]string{"type"},
		),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pending_frames",
			Help:      "Outbound frames waiting for an open transport.",
		}),
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "connected",
			Help:      "1 while a transport is open.",
		}),
	}
}

func (m *Metrics) opened() {
	if m == nil {
		return
	}
	m.connects.Inc()
}

func (m *Metrics) closed() {
	if m == nil {
		return
	}
	m.disconnects.Inc()
}

func (m *Metrics) reconnectScheduled(delay time.Duration) {
	if m == nil {
		return
	}
	m.reconnects.Inc()
	m.reconnectDelay.Observe(delay.Seconds())
}

func (m *Metrics) sent(t protocol.MessageType) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) received(t protocol.MessageType) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) decodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) writeError() {
	if m == nil {
		return
	}
	m.writeErrors.Inc()
}

func (m *Metrics) heartbeat() {
	if m == nil {
		return
	}
	m.heartbeats.Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) setConnected(v bool) {
	if m == nil {
		return
	}
	if v {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}
