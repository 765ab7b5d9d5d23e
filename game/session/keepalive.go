package session

import "sync"

// keepalive drives the PING heartbeat for one open transport.
type keepalive struct {
	stop func()
	done chan struct{}
	once sync.Once
}

func (k *keepalive) halt() {
	k.once.Do(func() {
		close(k.done)
		k.stop()
	})
}

func (s *Session) startKeepalive(t *transport) {
	s.stopKeepalive()
	if s.cfg.KeepaliveInterval <= 0 {
		return
	}

	ticks, stop := s.newTicker(s.cfg.KeepaliveInterval)
	k := &keepalive{stop: stop, done: make(chan struct{})}
	s.keepalive = k

	go func() {
		for {
			select {
			case <-ticks:
				if !s.post(keepaliveTick{gen: t.gen}) {
					return
				}
			case <-k.done:
				return
			}
		}
	}()
}

func (s *Session) stopKeepalive() {
	if s.keepalive == nil {
		return
	}
	s.keepalive.halt()
	s.keepalive = nil
}

// heartbeat writes a PING if gen is still the open transport. Failures are
// left to the read pump to surface as a close.
func (s *Session) heartbeat(gen uint64) {
	t := s.transport
	if gen != s.gen || !t.writable() {
		return
	}
	if err := s.write(t, s.ping); err != nil {
		return
	}
	s.metrics.heartbeat()
}
