package session

import (
	"math/rand"
	"time"
)

// NextReconnectDelay returns the delay before reconnect attempt N (1-based).
// The exponent is capped at cfg.MaxExponent and the base term at
// cfg.MaxDelay; jitter is drawn uniformly from [0, cfg.Jitter).
func NextReconnectDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	exp := attempt
	if cfg.MaxExponent >= 0 && exp > cfg.MaxExponent {
		exp = cfg.MaxExponent
	}
	// 2^62 overflows any sane base; keep the shift bounded.
	if exp > 30 {
		exp = 30
	}

	delay := cfg.BaseDelay * time.Duration(1<<uint(exp))
	if cfg.MaxDelay > 0 && (delay > cfg.MaxDelay || delay < 0) {
		delay = cfg.MaxDelay
	}

	if cfg.Jitter > 0 {
		if rng != nil {
			delay += time.Duration(rng.Int63n(int64(cfg.Jitter)))
		} else {
			delay += time.Duration(rand.Int63n(int64(cfg.Jitter)))
		}
	}
	return delay
}
