// Package websocket provides the local viewer stream for the Mao client.
//
// The websocket package implements:
//   - Fan-out of the latest game snapshot to local viewers
//   - Connectivity updates so viewers can show an offline banner
//   - Replay of the current state to newly connected viewers
//   - Viewer connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// viewer connections. Each viewer is served by a read and a write goroutine;
// the hub's own goroutine owns the viewer set and the last known state.
//
// Message Protocol:
//
// Viewers are read-only. Every outgoing message is a complete JSON document:
//
//	{"event": "state_update", "connected": true, "game_state": {...}}
//
// The event is either "state_update" (a new snapshot arrived) or
// "connectivity" (the server connection opened or dropped).
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	s := session.New(cfg,
//		session.WithSnapshotHandler(func(g *protocol.GameState) {
//			hub.BroadcastState(g, true)
//		}),
//		session.WithConnectivityHandler(hub.BroadcastConnectivity),
//	)
//
//	http.HandleFunc("/ws", hub.ServeWS)
//
// Concurrency:
//
// Broadcasts are buffered; a viewer that falls behind is disconnected
// rather than slowing the hub down.
package websocket
