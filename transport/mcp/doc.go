// Package mcp exposes the Mao client to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes one request to the
// local REST API, which owns the single server connection. Agents never
// talk to the game server directly.
//
// MCP Tools:
//   - connection_status: Connection state, reconnect attempt and queue depth
//   - connect: Open (or reopen) the server connection
//   - game_state: Snapshot rendered as text, with available actions
//   - create_game, join_game, start_game: Lobby
//   - propose_draw, propose_play: Propose a move
//   - accept_action, challenge_action: React to a pending proposal
//   - resolve_action, penalize_player: Admin tools
//   - game_instructions: Rules and usage
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp handled with GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://127.0.0.1:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
