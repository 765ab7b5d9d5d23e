// Command mao-client runs a Mao card game client.
//
// It holds one self-healing connection to the game server and exposes it
// locally:
//  1. "run" (default) – HTTP server with the REST API, a viewer WebSocket,
//     Prometheus metrics and an /mcp HTTP endpoint
//  2. "mcp" – MCP stdio server backed by an internal HTTP API on a loopback port
//
// Configuration comes from an optional TOML file, MAO_* environment
// variables (a .env file is honored) and flags, in increasing precedence.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mao-client/api"
	"github.com/wricardo/mao-client/game/config"
	"github.com/wricardo/mao-client/game/protocol"
	"github.com/wricardo/mao-client/game/service"
	"github.com/wricardo/mao-client/game/session"
	"github.com/wricardo/mao-client/transport/mcp"
	"github.com/wricardo/mao-client/transport/websocket"
	"go.opentelemetry.io/otel"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "mao-client"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newApp builds the command tree.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "Mao card game client with REST, WebSocket and MCP front ends",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "TOML config file"},
			&cli.StringFlag{Name: "url", Usage: "game server WebSocket URL"},
			&cli.StringFlag{Name: "http-addr", Usage: "local HTTP listen address"},
			&cli.StringFlag{Name: "name", Usage: "player name; creates or joins a game on startup"},
			&cli.StringFlag{Name: "game", Usage: "game code to join on startup"},
			&cli.StringFlag{Name: "queue-dir", Usage: "directory for the persisted outbound queue"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: runCommand,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the HTTP server with REST API, WebSocket and /mcp endpoint (default)",
				Action: runCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Run an MCP stdio server with an internal HTTP API",
				Action: mcpCommand,
			},
			{
				Name:   "check-config",
				Usage:  "Validate the configuration and print it as JSON",
				Action: checkConfigCommand,
			},
		},
	}
}

// loadConfig layers file, environment and flags.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if cmd.IsSet("url") {
		cfg.URL = cmd.String("url")
	}
	if cmd.IsSet("http-addr") {
		cfg.HTTPAddr = cmd.String("http-addr")
	}
	if cmd.IsSet("name") {
		cfg.PlayerName = cmd.String("name")
	}
	if cmd.IsSet("game") {
		cfg.GameID = cmd.String("game")
	}
	if cmd.IsSet("queue-dir") {
		cfg.QueueDir = cmd.String("queue-dir")
	}
	if cmd.Bool("debug") {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.Validate()
}

// newLogger builds the process logger and installs it as the global one.
// Logs always go to stderr; stdout belongs to the MCP stdio transport.
func newLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", AppName).Logger()
	log.Logger = logger
	return logger
}

// client bundles everything built around one session
type client struct {
	session  *session.Session
	service  service.GameService
	hub      *websocket.Hub
	registry *prometheus.Registry
	api      *api.Server
}

// newClient wires the session to the hub, metrics, queue store and service.
func newClient(cfg config.Config, logger zerolog.Logger) (*client, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	hub := websocket.NewHub()
	go hub.Run()

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithMetrics(session.NewMetrics(registry)),
		session.WithTracer(otel.Tracer("github.com/wricardo/mao-client")),
		session.WithSnapshotHandler(func(state *protocol.GameState) {
			hub.BroadcastState(state, true)
		}),
		session.WithConnectivityHandler(hub.BroadcastConnectivity),
	}

	if cfg.QueueDir != "" {
		store, err := session.NewFileQueueStore(cfg.QueueDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue store: %w", err)
		}
		logger.Info().Str("path", store.Path()).Str("client_id", store.ClientID()).Msg("persisting outbound queue")
		opts = append(opts, session.WithQueueStore(store))
	}

	sess := session.New(cfg.SessionConfig(), opts...)
	gameService := service.NewGameService(sess)

	return &client{
		session:  sess,
		service:  gameService,
		hub:      hub,
		registry: registry,
		api:      api.NewServer(gameService, hub, registry),
	}, nil
}

// close tears down the session, then stops the viewer hub it feeds.
func (c *client) close() error {
	err := c.session.Close()
	c.hub.Stop()
	return err
}

// start connects and, when a player name is configured, creates or joins a
// game. The intent is queued until the connection opens.
func (c *client) start(ctx context.Context, cfg config.Config) error {
	if err := c.service.Connect(ctx); err != nil {
		return err
	}
	if cfg.PlayerName == "" {
		return nil
	}

	var (
		result *service.IntentResult
		err    error
	)
	if cfg.GameID != "" {
		result, err = c.service.JoinGame(ctx, cfg.GameID, cfg.PlayerName)
	} else {
		result, err = c.service.CreateGame(ctx, cfg.PlayerName)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("type", string(result.Type)).
		Str("player", cfg.PlayerName).
		Str("game_id", cfg.GameID).
		Bool("queued", result.Queued).
		Msg("lobby intent submitted")
	return nil
}

func runCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	c, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	return runHTTPServer(ctx, cfg, c)
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the API at root and the MCP endpoint at /mcp.
func newRouter(c *client, baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", c.api)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// runHTTPServer serves the local API until a shutdown signal arrives.
func runHTTPServer(ctx context.Context, cfg config.Config, c *client) error {
	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTPAddr, err)
	}
	addr := listener.Addr().String()

	httpServer := &http.Server{
		Handler:     newRouter(c, "http://"+addr),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws", addr)
		log.Info().Msgf("Metrics: http://%s/metrics", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := c.start(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("failed to start session")
	}

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		log.Info().Msg("context cancelled, shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := c.close(); err != nil {
		log.Error().Err(err).Msg("session close error")
	}

	log.Info().Msg("client stopped")
	return nil
}

// mcpCommand runs an MCP stdio server. The MCP client proxies to an
// internal HTTP API bound to a random loopback port.
func mcpCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	c, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to get available port: %w", err)
	}
	internalAddr := listener.Addr().String()

	httpServer := &http.Server{Handler: c.api}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()
	defer httpServer.Close()

	if err := c.start(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("failed to start session")
	}

	mcpClient := mcp.NewClient("http://" + internalAddr)
	log.Info().Str("api", internalAddr).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func checkConfigCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
