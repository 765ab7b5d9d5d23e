// Package session keeps one long-lived connection to the Mao server alive.
//
// The session package implements:
//   - Transport lifecycle: dial, read, close, one live transport at a time
//   - Reconnection with capped exponential backoff and jitter
//   - A keepalive heartbeat while the transport is open
//   - A FIFO of outbound frames that were sent while disconnected
//   - Decoding of inbound frames and the latest game-state snapshot
//
// Architecture:
//
// A Session owns a single event loop goroutine. Transport callbacks (open,
// frame, error, close), keepalive ticks, reconnect timers and caller requests
// are all posted to the loop as events and handled one at a time, so the
// loop-owned state needs no locks. Every transport carries a generation
// number; events from a superseded transport are dropped on arrival.
//
// The only values readable from other goroutines are the connectivity flag,
// the latest snapshot and a few counters, all published atomically.
//
// Usage:
//
//	s := session.New(session.DefaultConfig(),
//		session.WithLogger(logger),
//		session.WithSnapshotHandler(func(g *protocol.GameState) { ... }),
//	)
//	defer s.Close()
//
//	s.Connect()
//	s.Send(protocol.CreateGame{Name: "alice"}) // queued until the socket opens
//
// Delivery:
//
// Frames are handed to the transport in the order Send was called, across
// reconnects. Delivery is at-least-once: a frame written just before an
// ungraceful disconnect may be written again after the next open if the
// write itself failed. Nothing is deduplicated.
//
// Recovery:
//
// Transport errors never reach the caller. A close while reconnection is
// desired schedules the next attempt; attempts continue indefinitely until
// Close is called.
package session
