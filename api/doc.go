// Package api provides the local HTTP REST API of the Mao client.
//
// The api package implements:
//   - Connection status and connect endpoints
//   - The current game view with the actions available to the player
//   - Lobby and turn intents, each handed to the session as one frame
//   - WebSocket fan-out of snapshots to local viewers
//   - Prometheus metrics
//
// Endpoints:
//
// Connection:
//   - GET /api - Client name and connection status
//   - GET /api/status - Connection status and current game
//   - POST /api/connect - Open (or reopen) the server connection
//
// Game State:
//   - GET /api/state - Latest snapshot plus derived capabilities
//
// Lobby:
//   - POST /api/games - Create a game, or join one when game_id is set
//   - POST /api/games/start - Start the current game (admin only)
//
// Turn Actions:
//   - POST /api/actions/draw - Propose drawing a card
//   - POST /api/actions/play - Propose playing a card
//   - POST /api/actions/accept - Accept the pending action
//   - POST /api/actions/challenge - Challenge the pending action
//
// Admin:
//   - POST /api/actions/resolve - Resolve the pending action
//   - POST /api/penalties - Penalize a player
//
// Request/Response Format:
//
// Intents answer 202 Accepted because delivery is asynchronous. The
// response says whether the frame was written or queued for the next
// connection:
//
//	{
//	  "type": "PROPOSE_PLAY",
//	  "game_id": "ABCD",
//	  "queued": false
//	}
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code:
//
//	{
//	  "error": "error message"
//	}
//
// Invalid intents map to 400, intents without a current game to 409 and
// a closed session to 503.
package api
