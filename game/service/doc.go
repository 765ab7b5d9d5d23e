// Package service provides the player-facing operations of the Mao client.
//
// The service package implements:
//   - One operation per player intent (create, join, start, draw, play,
//     accept, challenge, resolve, penalize)
//   - Filling the current game id from the latest snapshot
//   - Connection status and a derived view of the snapshot
//
// Architecture:
//
// The service layer sits between the local surfaces (HTTP, WebSocket, MCP)
// and the session. It holds no game state of its own: the server is
// authoritative and every read goes to the session's latest snapshot.
// Intents are handed to the session, which writes or queues them.
//
// Usage:
//
//	s := session.New(cfg.SessionConfig())
//	gameService := service.NewGameService(s)
//
//	result, err := gameService.JoinGame(ctx, "ABCD", "alice")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Later, once a snapshot has arrived
//	_, err = gameService.ProposeDraw(ctx)
package service
