package session

import "time"

// DefaultURL is the production Mao endpoint.
const DefaultURL = "wss://mao.fly.dev/ws"

// BackoffConfig defines the reconnect schedule:
// min(MaxDelay, BaseDelay*2^min(attempt, MaxExponent)) + U[0, Jitter).
type BackoffConfig struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxExponent int
	Jitter      time.Duration
}

// Config defines transport and session reliability settings
type Config struct {
	URL               string
	KeepaliveInterval time.Duration
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
	ReadLimit         int64
	Backoff           BackoffConfig
}

// DefaultConfig returns the settings the production client runs with.
func DefaultConfig() Config {
	return Config{
		URL:               DefaultURL,
		KeepaliveInterval: 20 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		ReadLimit:         1 << 20,
		Backoff: BackoffConfig{
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			MaxExponent: 6,
			Jitter:      400 * time.Millisecond,
		},
	}
}
