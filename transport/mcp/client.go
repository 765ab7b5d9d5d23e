package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mao-client/game/protocol"
	"github.com/wricardo/mao-client/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mao Client",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mao Client - MCP Interface

This is a thin client that proxies all requests to the local REST API,
which holds one connection to the Mao game server.

Every move is a proposal. Other players accept or challenge it and the
admin resolves it. Intents are delivered asynchronously: a tool reports
"queued" when the connection is down and the frame goes out as soon as
it comes back.

AVAILABLE TOOLS:
- connection_status: Connection state, pending frames and current game
- connect: Open (or reopen) the server connection
- game_state: Current snapshot and the actions available to you
- create_game / join_game / start_game: Lobby
- propose_draw / propose_play: Propose your move
- accept_action / challenge_action: React to someone else's proposal
- resolve_action / penalize_player: Admin only
- game_instructions: Rules and tips

Call game_state after each intent; state changes only arrive from the server.`),
	)

	// Register all tools
	c.registerTools()
}

func emptySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Connection
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "connection_status",
		Description: "Get the connection state, reconnect attempt, pending frames and current game",
		InputSchema: emptySchema(),
	}, c.handleConnectionStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "connect",
		Description: "Open the connection to the game server, replacing any existing one",
		InputSchema: emptySchema(),
	}, c.handleConnect)

	// Game state
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the latest game snapshot with your hand and available actions",
		InputSchema: emptySchema(),
	}, c.handleGameState)

	// Lobby
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game; you become its admin",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Your display name",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Join an existing game by its code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game code to join",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Your display name",
				},
			},
			Required: []string{"game_id", "name"},
		},
	}, c.handleJoinGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start the current game (admin only)",
		InputSchema: emptySchema(),
	}, c.handleStartGame)

	// Turn actions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "propose_draw",
		Description: "Propose drawing a card",
		InputSchema: emptySchema(),
	}, c.handleProposeDraw)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "propose_play",
		Description: "Propose playing a card from your hand",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rank": map[string]interface{}{
					"type":        "string",
					"enum":        protocol.Ranks,
					"description": "Card rank",
				},
				"suit": map[string]interface{}{
					"type":        "string",
					"enum":        protocol.Suits,
					"description": "Card suit",
				},
			},
			Required: []string{"rank", "suit"},
		},
	}, c.handleProposePlay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "accept_action",
		Description: "Accept the pending action proposed by another player",
		InputSchema: emptySchema(),
	}, c.handleAcceptAction)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "challenge_action",
		Description: "Challenge the pending action proposed by another player",
		InputSchema: emptySchema(),
	}, c.handleChallengeAction)

	// Admin actions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resolve_action",
		Description: "Resolve the pending action (admin only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"resolution": map[string]interface{}{
					"type": "string",
					"enum": []string{
						string(protocol.ResolutionAccept),
						string(protocol.ResolutionAcceptWithPenalty),
						string(protocol.ResolutionReject),
					},
					"description": "Verdict on the pending action",
				},
				"penalty_count": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Penalty cards for ACCEPT_WITH_PENALTY",
				},
			},
			Required: []string{"resolution"},
		},
	}, c.handleResolveAction)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "penalize_player",
		Description: "Give a player penalty cards (admin only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"target_player_id": map[string]interface{}{
					"type":        "string",
					"description": "Player to penalize",
				},
				"penalty_count": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Number of penalty cards",
				},
			},
			Required: []string{"target_player_id"},
		},
	}, c.handlePenalize)

	// Help
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of Mao and how to play through this client",
		InputSchema: emptySchema(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// intent posts an intent and formats the result
func (c *Client) intent(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.IntentResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatIntentResult(&result)), nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument; clients send integers as float64
func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Tool handlers

func (c *Client) handleConnectionStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status service.StatusInfo
	if err := c.apiCall(ctx, "GET", "/api/status", nil, &status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStatus(&status)), nil
}

func (c *Client) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := c.apiCall(ctx, "POST", "/api/connect", nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Connecting. Call connection_status to follow progress."), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var view service.GameView
	if err := c.apiCall(ctx, "GET", "/api/state", nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&view)), nil
}

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, _ := args["name"].(string)

	return c.intent(ctx, "/api/games", map[string]string{"name": name})
}

func (c *Client) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	name, _ := args["name"].(string)

	if gameID == "" {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	return c.intent(ctx, "/api/games", map[string]string{"name": name, "game_id": gameID})
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.intent(ctx, "/api/games/start", nil)
}

func (c *Client) handleProposeDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.intent(ctx, "/api/actions/draw", nil)
}

func (c *Client) handleProposePlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	rank, _ := args["rank"].(string)
	suit, _ := args["suit"].(string)

	body := map[string]interface{}{
		"card": protocol.Card{Rank: rank, Suit: strings.ToLower(suit)},
	}
	return c.intent(ctx, "/api/actions/play", body)
}

func (c *Client) handleAcceptAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.intent(ctx, "/api/actions/accept", nil)
}

func (c *Client) handleChallengeAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.intent(ctx, "/api/actions/challenge", nil)
}

func (c *Client) handleResolveAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	resolution, _ := args["resolution"].(string)

	body := map[string]interface{}{
		"resolution":    strings.ToUpper(resolution),
		"penalty_count": intArg(args, "penalty_count"),
	}
	return c.intent(ctx, "/api/actions/resolve", body)
}

func (c *Client) handlePenalize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	target, _ := args["target_player_id"].(string)

	body := map[string]interface{}{
		"target_player_id": target,
		"penalty_count":    intArg(args, "penalty_count"),
	}
	return c.intent(ctx, "/api/penalties", body)
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Mao - Complete Instructions

GAME OBJECTIVE:
Be the first player to empty your hand. The rules are not told to you;
you discover them from the admin's verdicts and penalties.

HOW A TURN WORKS:
1. A player proposes an action: play a card from their hand or draw.
2. The other players accept or challenge the proposal.
3. The admin resolves it: ACCEPT, ACCEPT_WITH_PENALTY or REJECT.
4. Penalties add cards to a player's hand.

ROLES:
- Admin: the player who created the game. Starts the game, resolves
  proposals and may penalize anyone at any time.
- Players: propose, accept and challenge.

CONNECTION:
The client keeps one connection to the server and reconnects on its own
with growing delays (1s, 2s, 4s ... capped at 30s). Intents sent while
offline are queued and delivered in order once the connection is back.
Server snapshots replace the whole state; nothing changes locally until
the server says so.

TOOLS BY SITUATION:
- No game yet: create_game or join_game
- Waiting, you are admin: start_game
- Your move: propose_play (rank + suit) or propose_draw
- Someone else's proposal: accept_action or challenge_action
- Admin with a pending proposal: resolve_action

CARDS:
Ranks: A 2 3 4 5 6 7 8 9 10 J Q K
Suits: hearts diamonds clubs spades

Good luck, and watch the penalties closely.`

// Formatting

func formatIntentResult(result *service.IntentResult) string {
	var b strings.Builder
	if result.Queued {
		b.WriteString(fmt.Sprintf("⏳ %s queued; it will be sent when the connection opens", result.Type))
	} else {
		b.WriteString(fmt.Sprintf("✓ %s sent", result.Type))
	}
	if result.GameID != "" {
		b.WriteString(fmt.Sprintf(" (game %s)", result.GameID))
	}
	return b.String()
}

func formatStatus(status *service.StatusInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Connection: %s | Connected: %t\n", status.State, status.Connected))
	b.WriteString(fmt.Sprintf("Reconnect attempt: %d | Pending frames: %d\n", status.ReconnectAttempt, status.Pending))
	b.WriteString(fmt.Sprintf("Frames sent: %d | Frames received: %d\n", status.FramesSent, status.FramesReceived))
	if status.GameID != "" {
		b.WriteString(fmt.Sprintf("Game: %s (%s) | You: %s\n", status.GameID, status.GameStatus, status.PlayerID))
	} else {
		b.WriteString("Game: none\n")
	}
	return b.String()
}

func formatGameState(view *service.GameView) string {
	if view == nil || view.State == nil {
		return "No game state available"
	}
	state := view.State

	var result strings.Builder

	// Header
	result.WriteString(fmt.Sprintf("Game: %s | Status: %s | You: %s", state.ID, state.Status, state.PlayerID))
	if view.IsAdmin {
		result.WriteString(" (admin)")
	}
	if !view.Connected {
		result.WriteString(" | OFFLINE")
	}
	result.WriteString("\n\n")

	// Table
	result.WriteString("Players:\n")
	for _, p := range state.Players {
		marker := "  "
		if p.ID == state.PlayerID {
			marker = "→ "
		}
		line := fmt.Sprintf("%s%s: %d cards", marker, p.ID, p.HandCount)
		if p.ID == state.AdminID {
			line += " [admin]"
		}
		result.WriteString(line + "\n")
	}

	if view.TopCard != "" {
		result.WriteString(fmt.Sprintf("\nTop card: %s\n", view.TopCard))
	}
	result.WriteString(fmt.Sprintf("Your hand: %s\n", strings.Join(view.Hand, " ")))

	// Pending proposal
	if a := state.CurrentAction; a != nil {
		result.WriteString(fmt.Sprintf("\nPending: %s\n", formatAction(a)))
		result.WriteString(fmt.Sprintf("  Accepted by: %s\n", joinOrNone(a.AcceptedBy)))
		result.WriteString(fmt.Sprintf("  Challenged by: %s\n", joinOrNone(a.ChallengedBy)))
	}

	if a := state.LastAction; a != nil {
		line := fmt.Sprintf("\nLast: %s", formatAction(a))
		if a.Resolution != "" {
			line += fmt.Sprintf(" → %s", a.Resolution)
		}
		result.WriteString(line + "\n")
	}

	// Available actions
	var actions []string
	if view.CanStart {
		actions = append(actions, "start_game")
	}
	if view.CanProposeDraw {
		actions = append(actions, "propose_play", "propose_draw")
	}
	if view.CanReact {
		actions = append(actions, "accept_action", "challenge_action")
	}
	if view.CanResolve {
		actions = append(actions, "resolve_action")
	}
	if view.IsAdmin && state.Status == protocol.StatusActive {
		actions = append(actions, "penalize_player")
	}
	result.WriteString(fmt.Sprintf("\nAvailable: %s\n", joinOrNone(actions)))

	if len(state.RecentEvents) > 0 {
		result.WriteString("\nRecent events:\n")
		for _, e := range state.RecentEvents {
			result.WriteString("  " + formatEvent(e) + "\n")
		}
	}

	// Status
	if state.Status == protocol.StatusEnded {
		if state.WinnerID == state.PlayerID {
			result.WriteString("\n🎉 YOU WON!")
		} else if state.WinnerID != "" {
			result.WriteString(fmt.Sprintf("\n🏁 GAME OVER - winner: %s", state.WinnerID))
		} else {
			result.WriteString("\n🏁 GAME OVER")
		}
	}

	return result.String()
}

func formatAction(a *protocol.Action) string {
	if a.Type == protocol.ActionPlayCard && a.Card != nil {
		return fmt.Sprintf("%s plays %s", a.PlayerID, a.Card)
	}
	if a.Type == protocol.ActionDraw {
		return fmt.Sprintf("%s draws", a.PlayerID)
	}
	return fmt.Sprintf("%s %s", a.PlayerID, a.Type)
}

func formatEvent(e protocol.Event) string {
	switch e.Type {
	case protocol.EventPenalty:
		line := fmt.Sprintf("⚠ %s penalized %d", e.PlayerID, e.Penalty)
		if e.Detail != "" {
			line += ": " + e.Detail
		}
		return line
	case protocol.EventAction:
		line := fmt.Sprintf("%s %s", e.PlayerID, e.ActionType)
		if e.Card != nil {
			line += " " + e.Card.String()
		}
		if e.Detail != "" {
			line += " (" + e.Detail + ")"
		}
		return line
	}
	return fmt.Sprintf("%s %s", e.Type, e.Detail)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
