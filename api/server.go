package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/mao-client/game/protocol"
	"github.com/wricardo/mao-client/game/service"
	"github.com/wricardo/mao-client/game/session"
	"github.com/wricardo/mao-client/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service  service.GameService
	hub      *websocket.Hub
	gatherer prometheus.Gatherer
	router   *mux.Router
}

// NewServer creates a new API server. hub and gatherer may be nil, which
// disables /ws and /metrics respectively.
func NewServer(gameService service.GameService, hub *websocket.Hub, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		service:  gameService,
		hub:      hub,
		gatherer: gatherer,
		router:   mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// API routes live on the root router so a method mismatch answers 405.
	api := func(path string, handler http.HandlerFunc) *mux.Route {
		return s.router.Handle(path, requestLogger(handler))
	}

	// Connection
	api("/api", s.handleIndex).Methods("GET")
	api("/api/status", s.handleStatus).Methods("GET")
	api("/api/connect", s.handleConnect).Methods("POST")

	// Game state
	api("/api/state", s.handleGetState).Methods("GET")

	// Lobby
	api("/api/games", s.handleCreateOrJoin).Methods("POST")
	api("/api/games/start", s.handleStart).Methods("POST")

	// Turn actions
	api("/api/actions/draw", s.handleDraw).Methods("POST")
	api("/api/actions/play", s.handlePlay).Methods("POST")
	api("/api/actions/accept", s.handleAccept).Methods("POST")
	api("/api/actions/challenge", s.handleChallenge).Methods("POST")

	// Admin actions
	api("/api/actions/resolve", s.handleResolve).Methods("POST")
	api("/api/penalties", s.handlePenalize).Methods("POST")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}

	// Metrics
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, protocol.ErrInvalidMessage):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoGame):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondIntent(w http.ResponseWriter, result *service.IntentResult, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, result)
}

// decodeBody decodes an optional JSON body into v
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Connection Handlers

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":   "mao-client",
		"status": status,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Connect(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "Connecting",
	})
}

// Game State Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetView(r.Context())
	if errors.Is(err, service.ErrNoGame) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Lobby Handlers

func (s *Server) handleCreateOrJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		GameID string `json:"game_id,omitempty"`
	}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// A blank game id creates a new game
	if req.GameID == "" {
		result, err := s.service.CreateGame(r.Context(), req.Name)
		respondIntent(w, result, err)
		return
	}

	result, err := s.service.JoinGame(r.Context(), req.GameID, req.Name)
	respondIntent(w, result, err)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.StartGame(r.Context())
	respondIntent(w, result, err)
}

// Turn Action Handlers

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ProposeDraw(r.Context())
	respondIntent(w, result, err)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Card protocol.Card `json:"card"`
	}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.ProposePlay(r.Context(), req.Card)
	respondIntent(w, result, err)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.AcceptAction(r.Context())
	respondIntent(w, result, err)
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ChallengeAction(r.Context())
	respondIntent(w, result, err)
}

// Admin Handlers

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resolution   protocol.Resolution `json:"resolution"`
		PenaltyCount int                 `json:"penalty_count,omitempty"`
	}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.ResolveAction(r.Context(), req.Resolution, req.PenaltyCount)
	respondIntent(w, result, err)
}

func (s *Server) handlePenalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetPlayerID string `json:"target_player_id"`
		PenaltyCount   int    `json:"penalty_count,omitempty"`
	}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Penalize(r.Context(), req.TargetPlayerID, req.PenaltyCount)
	respondIntent(w, result, err)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per API request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		event := log.Debug()
		if rec.status >= 500 {
			event = log.Error()
		} else if rec.status >= 400 {
			event = log.Warn()
		}

		event.
			Str("method", r.Method).
			Str("path", path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}
