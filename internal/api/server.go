// Package api provides the HTTP surface for the game core.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token or are rate limited per IP.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Mati279/SuperX/internal/clock"
	"github.com/Mati279/SuperX/internal/economy"
	"github.com/Mati279/SuperX/internal/mrg"
	"github.com/Mati279/SuperX/internal/persistence"
	"github.com/Mati279/SuperX/internal/prestige"
)

// Server serves the world state over HTTP. Every request path runs the
// lazy tick check first, so the world only advances when someone looks
// at it.
type Server struct {
	Clock    *clock.Clock
	Sim      *economy.Simulator
	Resolver *mrg.Resolver
	DB       *persistence.DB
	Prestige prestige.Config
	Port     int
	AdminKey string // Bearer token for admin POST endpoints. Empty = disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	actionLimiter := NewIPLimiter(1, 5)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.lazyTick(s.handleStatus))
	mux.HandleFunc("/api/v1/ranking", s.lazyTick(s.handleRanking))
	mux.HandleFunc("/api/v1/planets", s.lazyTick(s.handlePlanets))
	mux.HandleFunc("/api/v1/events", s.lazyTick(s.handleEvents))

	// Player endpoints (POST, rate limited per IP).
	mux.HandleFunc("/api/v1/actions", actionLimiter.Middleware(s.lazyTick(s.handleQueueAction)))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/tick", s.adminOnly(s.handleForceTick))
	mux.HandleFunc("/api/v1/resolve", s.adminOnly(s.handleResolve))
	mux.HandleFunc("/api/v1/conflicts", s.adminOnly(s.handleConflict))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// lazyTick runs the day check before the handler. The losing callers and
// already-processed days fall straight through; a failed check is logged
// but never blocks the request.
func (s *Server) lazyTick(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.Clock.MaybeAdvance(time.Now()); err != nil {
			slog.Error("lazy tick check failed", "error", err)
		}
		next(w, r)
	}
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no SUPERX_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// handleStatus returns the clock widget snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Clock.Status(time.Now())
	if err != nil {
		http.Error(w, "world state unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status)
}

type rankingEntry struct {
	*prestige.Faction
	State string `json:"state"`
}

// handleRanking returns factions ordered by prestige with their standing.
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	factions, err := s.DB.Factions()
	if err != nil {
		http.Error(w, "factions unavailable", http.StatusInternalServerError)
		return
	}
	ledger := prestige.NewLedger(s.Prestige, factions)

	ranked := ledger.Ranking()
	entries := make([]rankingEntry, len(ranked))
	for i, f := range ranked {
		entries[i] = rankingEntry{Faction: f, State: ledger.StateOf(f).String()}
	}
	writeJSON(w, entries)
}

// handlePlanets returns one player's planets with a production projection.
func (s *Server) handlePlanets(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "player query parameter required", http.StatusBadRequest)
		return
	}

	planets, err := s.DB.PlanetsByPlayer(playerID)
	if err != nil {
		http.Error(w, "planets unavailable", http.StatusInternalServerError)
		return
	}

	buildingsByPlanet := make(map[string][]*economy.Building, len(planets))
	for _, p := range planets {
		buildings, err := s.DB.BuildingsByPlanet(p.ID)
		if err != nil {
			http.Error(w, "buildings unavailable", http.StatusInternalServerError)
			return
		}
		buildingsByPlanet[p.ID] = buildings
	}

	writeJSON(w, map[string]any{
		"planets":    planets,
		"buildings":  buildingsByPlanet,
		"projection": s.Sim.Projection(planets, buildingsByPlanet),
	})
}

// handleEvents returns the most recent world events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.DB.RecentEvents(50)
	if err != nil {
		http.Error(w, "events unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

type queueActionRequest struct {
	PlayerID   string `json:"player_id"`
	ActionText string `json:"action_text"`
}

// handleQueueAction inserts a player order for the next tick.
func (s *Server) handleQueueAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queueActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" || strings.TrimSpace(req.ActionText) == "" {
		http.Error(w, "player_id and action_text required", http.StatusBadRequest)
		return
	}
	if _, err := s.DB.PlayerByID(req.PlayerID); err != nil {
		http.Error(w, "unknown player", http.StatusNotFound)
		return
	}

	action, err := s.Clock.QueueAction(req.PlayerID, req.ActionText)
	if err != nil {
		http.Error(w, "queue failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, action)
}

// handleForceTick advances the world skipping the date check.
func (s *Server) handleForceTick(w http.ResponseWriter, r *http.Request) {
	tick, err := s.Clock.ForceAdvance()
	if err != nil {
		http.Error(w, "tick failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"tick": tick})
}

// handleResolve runs one dice resolution. Admin tooling for the narration
// layer; gameplay resolutions go through the action queue.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req mrg.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.Resolver.Resolve(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, result)
}

type conflictRequest struct {
	AttackerID string  `json:"attacker_id"`
	DefenderID string  `json:"defender_id"`
	BaseEvent  float64 `json:"base_event"`
	Reason     string  `json:"reason"`
}

// handleConflict applies a resolved conflict's prestige movement.
func (s *Server) handleConflict(w http.ResponseWriter, r *http.Request) {
	var req conflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AttackerID == "" || req.DefenderID == "" {
		http.Error(w, "attacker_id and defender_id required", http.StatusBadRequest)
		return
	}

	record, err := s.Clock.ApplyConflictOutcome(req.AttackerID, req.DefenderID, req.BaseEvent, req.Reason)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if record == nil {
		writeJSON(w, map[string]any{"amount": 0})
		return
	}
	writeJSON(w, record)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
