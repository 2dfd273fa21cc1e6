// Package api serves games over HTTP.
// Read-only endpoints (status, ranges, leaderboard) are public.
// Every /games/{id} endpoint requires the bearer token issued with the game.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/engine"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/leaderboard"
	"github.com/talgya/blackmarket/internal/world"
)

// Journal persists per-game event history.
type Journal interface {
	SaveEvents(gameID string, entries []engine.Entry) error
	RecentEvents(gameID string, limit int) ([]engine.Entry, error)
}

// Counter keeps server-wide tallies across restarts.
type Counter interface {
	Increment(key string) (int, error)
}

// Server hosts games over HTTP and WebSocket.
type Server struct {
	Rules       engine.Rules
	NewSource   func() entropy.Source // one source per game
	Board       *leaderboard.Service
	Journal     Journal // nil keeps history in memory only
	Counter     Counter // nil counts since boot only
	Port        int
	TokenSecret string   // HS256 key for game tokens. Empty = random per process.
	CORSOrigins []string // "*" allows any origin
	ScoreLimit  int      // score submissions per IP per minute
	MaxGames    int
	TrustProxy  bool     // key the score limit on X-Forwarded-For

	initOnce     sync.Once
	secret       []byte
	games        *registry
	scoreLimiter *RateLimiter
	upgrader     websocket.Upgrader
	started      atomic.Int64
}

func (s *Server) init() {
	s.initOnce.Do(func() {
		s.secret = []byte(s.TokenSecret)
		if len(s.secret) == 0 {
			slog.Warn("no token secret configured, game tokens will not survive a restart")
			s.secret = randomSecret()
		}
		if s.NewSource == nil {
			s.NewSource = func() entropy.Source { return entropy.Crypto{} }
		}
		if s.Board == nil {
			s.Board = leaderboard.NewService(leaderboard.NewMemory(), leaderboard.DefaultLimit, 1, 0)
		}
		if s.ScoreLimit < 1 {
			s.ScoreLimit = 5
		}
		s.games = newRegistry(s.MaxGames)
		s.scoreLimiter = NewRateLimiter(s.ScoreLimit, time.Minute)
		s.scoreLimiter.trustProxy = s.TrustProxy
		s.upgrader = websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     s.originAllowed,
		}
	})
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	s.init()

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Public endpoints.
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/ranges", s.handleRanges).Methods(http.MethodGet)
	v1.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/games", s.handleNewGame).Methods(http.MethodPost)

	// Per-game endpoints (bearer token scoped to {id}).
	v1.HandleFunc("/games/{id}", s.gameOnly(s.handleGame)).Methods(http.MethodGet)
	v1.HandleFunc("/games/{id}/buy", s.gameOnly(s.handleMove(moveBuy))).Methods(http.MethodPost)
	v1.HandleFunc("/games/{id}/sell", s.gameOnly(s.handleMove(moveSell))).Methods(http.MethodPost)
	v1.HandleFunc("/games/{id}/travel", s.gameOnly(s.handleMove(moveTravel))).Methods(http.MethodPost)
	v1.HandleFunc("/games/{id}/offer", s.gameOnly(s.handleMove(moveOffer))).Methods(http.MethodPost)
	v1.HandleFunc("/games/{id}/events", s.gameOnly(s.handleEvents)).Methods(http.MethodGet)
	v1.Handle("/games/{id}/score", s.scoreLimiter.Middleware(s.gameOnly(s.handleScore))).Methods(http.MethodPost)

	// WebSocket play channel (token in query).
	r.HandleFunc("/ws/games/{id}", s.gameOnly(s.handleWS)).Methods(http.MethodGet)

	return corsMiddleware(s.CORSOrigins, r)
}

// Start begins serving the HTTP API in a goroutine. The returned server is
// for shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "days", s.Rules.Days, "price_model", s.Rules.PriceModel)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := allowedOrigins(origins)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed(origin) {
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

func allowedOrigins(origins []string) func(string) bool {
	set := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	wildcard := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			wildcard = true
		}
		if o != "" {
			set[o] = true
		}
	}
	return func(origin string) bool {
		return origin != "" && (wildcard || set[origin])
	}
}

// originAllowed gates WebSocket upgrades. Non-browser clients send no Origin.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || allowedOrigins(s.CORSOrigins)(origin)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"name":          "blackmarket",
		"games_active":  s.games.len(),
		"games_started": s.started.Load(),
		"days":          s.Rules.Days,
		"start_cash":    s.Rules.StartCash,
		"price_model":   s.Rules.PriceModel,
		"locations":     world.Locations(),
	})
}

// handleRanges lists the commodity price ranges, priciest floor first.
func (s *Server) handleRanges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, economy.RangesByMinDesc())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	entries, err := s.Board.Board(ctx)
	if limit := queryInt(r, "limit", 0, 1, 100); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	resp := boardResponse{Entries: entries}
	if err != nil {
		resp.Error = "could not load leaderboard, showing last known scores"
		resp.Stale = true
	}
	writeJSON(w, resp)
}

type boardResponse struct {
	Entries []leaderboard.Entry `json:"entries"`
	Stale   bool                `json:"stale,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type newGameResponse struct {
	ID    string   `json:"id"`
	Token string   `json:"token"`
	Game  gameView `json:"game"`
}

// handleNewGame deals a fresh game. A valid token for an existing game
// discards that game first (restart).
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	if tok := bearerToken(r); tok != "" {
		if oldID, err := s.gameFromToken(tok); err == nil {
			s.games.remove(oldID)
			slog.Info("game restarted", "previous", oldID)
		}
	}

	eng := engine.NewEngine(s.Rules, s.NewSource())
	g := newGame(eng)
	eng.OnGameOver = func(st engine.State) {
		slog.Info("game over", "game", g.id, "score", st.Score())
	}
	if evicted := s.games.add(g); evicted != "" {
		slog.Info("game evicted", "game", evicted)
	}
	s.countStart()

	token, err := s.issueToken(g.id)
	if err != nil {
		s.games.remove(g.id)
		writeError(w, err)
		return
	}

	g.mu.Lock()
	s.flushJournal(g)
	view := s.view(g)
	g.mu.Unlock()

	slog.Info("game started", "game", g.id, "cash", view.State.Cash)
	writeJSONStatus(w, http.StatusCreated, newGameResponse{ID: g.id, Token: token, Game: view})
}

func (s *Server) countStart() {
	if s.Counter == nil {
		s.started.Add(1)
		return
	}
	n, err := s.Counter.Increment("games_started")
	if err != nil {
		slog.Warn("could not count game", "error", err)
		s.started.Add(1)
		return
	}
	s.started.Store(int64(n))
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.mu.Lock()
	view := s.view(g)
	g.mu.Unlock()
	writeJSON(w, view)
}

// handleMove runs one player action decoded from the request body.
func (s *Server) handleMove(kind moveKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := s.lookup(w, r)
		if !ok {
			return
		}
		var req moveRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			writeJSONStatus(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
			return
		}
		view, err := s.play(g, kind, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, view)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 50, 1, 500)

	g.mu.Lock()
	s.flushJournal(g)
	var entries []engine.Entry
	if s.Journal == nil {
		journal := g.eng.Journal
		entries = append(entries, journal[max(0, len(journal)-limit):]...)
	}
	g.mu.Unlock()

	if s.Journal != nil {
		var err error
		entries, err = s.Journal.RecentEvents(g.id, limit)
		if err != nil {
			writeError(w, fmt.Errorf("load events: %w", err))
			return
		}
	}
	if entries == nil {
		entries = []engine.Entry{}
	}
	writeJSON(w, entries)
}

type scoreRequest struct {
	Name string `json:"name"`
}

type scoreResponse struct {
	Entry   leaderboard.Entry   `json:"entry"`
	Entries []leaderboard.Entry `json:"entries"`
}

var (
	errNotOver       = errors.New("the game is still running")
	errAlreadyScored = errors.New("score already submitted for this game")
)

// handleScore submits the final cash of a finished game to the leaderboard.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeJSONStatus(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case !g.eng.State.Over:
		writeError(w, errNotOver)
		return
	case g.scored:
		writeError(w, errAlreadyScored)
		return
	}
	entry, err := leaderboard.NewEntry(req.Name, g.eng.State.Score())
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	board, err := s.Board.Submit(ctx, entry)
	if err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, boardResponse{
			Entries: board,
			Stale:   true,
			Error:   "could not submit score, try again",
		})
		return
	}
	g.scored = true
	slog.Info("score submitted", "game", g.id, "name", entry.Name, "score", entry.Score)
	writeJSONStatus(w, http.StatusCreated, scoreResponse{Entry: entry, Entries: board})
}

// lookup resolves {id}, writing 404 when the game is unknown or evicted.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*game, bool) {
	g, ok := s.games.get(mux.Vars(r)["id"])
	if !ok {
		writeJSONStatus(w, http.StatusNotFound, errorBody{Error: "game not found"})
	}
	return g, ok
}

// flushJournal persists journal entries recorded since the last flush.
// Caller holds g.mu.
func (s *Server) flushJournal(g *game) {
	if s.Journal == nil || g.saved >= len(g.eng.Journal) {
		return
	}
	if err := s.Journal.SaveEvents(g.id, g.eng.Journal[g.saved:]); err != nil {
		slog.Warn("could not save game events", "game", g.id, "error", err)
		return
	}
	g.saved = len(g.eng.Journal)
}

func queryInt(r *http.Request, key string, def, lo, hi int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= lo && n <= hi {
			return n
		}
	}
	return def
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, economy.ErrUnknownCommodity),
		errors.Is(err, world.ErrUnknownLocation),
		errors.Is(err, engine.ErrSameLocation),
		errors.Is(err, leaderboard.ErrInvalidName),
		errors.Is(err, errBadMove):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotEnoughCash),
		errors.Is(err, engine.ErrNotEnoughStash),
		errors.Is(err, engine.ErrInventoryFull),
		errors.Is(err, engine.ErrGameOver),
		errors.Is(err, engine.ErrOfferPending),
		errors.Is(err, engine.ErrNoOffer),
		errors.Is(err, errNotOver),
		errors.Is(err, errAlreadyScored):
		return http.StatusConflict
	case errors.Is(err, leaderboard.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSONStatus(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
