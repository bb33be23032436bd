package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/log"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
	"github.com/peterkuimelis/lanesim/internal/storage"
)

// DeckInfo is the JSON representation of a deck for the /api/decks endpoint.
type DeckInfo struct {
	Number     int      `json:"number"`
	Name       string   `json:"name"`
	Cards      []string `json:"cards"`
	Creatures  int      `json:"creatures"`
	Sacrifices int      `json:"sacrifices"`
}

// OpponentInfo is the JSON representation of an opponent script.
type OpponentInfo struct {
	Name  string   `json:"name"`
	Moves []string `json:"moves"`
}

// RunDetail is a stored run with its card performance rows.
type RunDetail struct {
	Run         *storage.RunRecord     `json:"run"`
	PlayerCards []lanenet.CardStatView `json:"player_cards"`
	EnemyCards  []lanenet.CardStatView `json:"enemy_cards"`
}

// SimulateResponse is returned by POST /api/simulate.
type SimulateResponse struct {
	RunID  string              `json:"run_id,omitempty"`
	Result *lanenet.ResultView `json:"result"`
}

// Server is the lanesim HTTP API.
type Server struct {
	runner  *lanenet.Runner
	limiter *rate.Limiter
	logger  *zap.Logger
	mux     *http.ServeMux
}

// NewServer creates a server. Simulation requests are admitted at most once
// per every, with bursts of burst; a zero every disables the limit.
func NewServer(runner *lanenet.Runner, every time.Duration, burst int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	if burst < 1 {
		burst = 1
	}
	s := &Server{
		runner:  runner,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/decks", s.handleDecks)
	s.mux.HandleFunc("GET /api/opponents", s.handleOpponents)
	s.mux.HandleFunc("POST /api/simulate", s.handleSimulate)
	s.mux.HandleFunc("GET /api/runs", s.handleRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleRun)

	// Streams trace events for one request
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cards := []lanenet.CardView{}
	for _, c := range s.runner.Library.Pool.Cards() {
		cards = append(cards, lanenet.NewCardView(c))
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	lib := s.runner.Library
	decks := []DeckInfo{}
	for i, name := range lib.DeckNames() {
		cards, err := lib.Deck(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		di := DeckInfo{Number: i + 1, Name: name}
		// Unique card names for display
		seen := make(map[string]bool)
		for _, c := range cards {
			if c.Rarity == game.RaritySacrifice {
				di.Sacrifices++
			} else {
				di.Creatures++
			}
			if !seen[c.Name()] {
				di.Cards = append(di.Cards, c.Name())
				seen[c.Name()] = true
			}
		}
		decks = append(decks, di)
	}
	writeJSON(w, http.StatusOK, decks)
}

func (s *Server) handleOpponents(w http.ResponseWriter, r *http.Request) {
	lib := s.runner.Library
	opponents := []OpponentInfo{}
	for _, name := range lib.OpponentNames() {
		moves, err := lib.OpponentMoves(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		oi := OpponentInfo{Name: name, Moves: []string{}}
		for _, m := range moves {
			oi.Moves = append(oi.Moves, m.String())
		}
		opponents = append(opponents, oi)
	}
	writeJSON(w, http.StatusOK, opponents)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req lanenet.RequestView
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.runner.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, id, err := s.runner.Run(r.Context(), req, nil)
	if err != nil {
		s.logger.Warn("simulation failed", zap.String("deck", req.Deck), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SimulateResponse{RunID: id, Result: lanenet.NewResultView(res)})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		writeError(w, http.StatusNotFound, "run storage is disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runner.Store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []*storage.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		writeError(w, http.StatusNotFound, "run storage is disabled")
		return
	}
	id := r.PathValue("id")

	run, err := s.runner.Store.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("run %q not found", id))
		return
	}
	if err != nil {
		s.logger.Error("get run", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	stats, err := s.runner.Store.CardStats(r.Context(), id)
	if err != nil {
		s.logger.Error("card stats", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load card stats")
		return
	}

	detail := RunDetail{Run: run, PlayerCards: []lanenet.CardStatView{}, EnemyCards: []lanenet.CardStatView{}}
	for _, st := range stats {
		view := lanenet.NewCardStatView(st.CardPerformance)
		if st.Side == storage.SidePlayer {
			detail.PlayerCards = append(detail.PlayerCards, view)
		} else {
			detail.EnemyCards = append(detail.EnemyCards, view)
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleWebSocket reads one simulate message, streams every trace event as
// an "event" message and finishes with the "result" or "error" message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		s.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()
	_, data, err := wsConn.Read(ctx)
	if err != nil {
		s.logger.Debug("websocket read request", zap.Error(err))
		return
	}

	var msg lanenet.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != lanenet.TypeSimulate || msg.Request == nil {
		s.send(ctx, wsConn, lanenet.ServerMessage{Type: lanenet.TypeError, Error: "expected simulate message"})
		wsConn.Close(websocket.StatusPolicyViolation, "expected simulate message")
		return
	}
	if !s.limiter.Allow() {
		s.send(ctx, wsConn, lanenet.ServerMessage{Type: lanenet.TypeError, Error: "rate limit exceeded"})
		wsConn.Close(websocket.StatusTryAgainLater, "rate limit exceeded")
		return
	}

	var writeErr error
	trace := log.NewFuncLogger(func(e log.GameEvent) {
		if writeErr != nil {
			return
		}
		ev := lanenet.NewEventView(e)
		writeErr = s.send(ctx, wsConn, lanenet.ServerMessage{Type: lanenet.TypeEvent, Event: &ev})
	})

	res, id, err := s.runner.Run(ctx, *msg.Request, trace)
	if writeErr != nil {
		s.logger.Debug("websocket write event", zap.Error(writeErr))
		return
	}
	reply := lanenet.ServerMessage{Type: lanenet.TypeResult, RunID: id}
	if err != nil {
		reply = lanenet.ServerMessage{Type: lanenet.TypeError, Error: err.Error()}
	} else {
		reply.Result = lanenet.NewResultView(res)
	}
	if err := s.send(ctx, wsConn, reply); err != nil {
		s.logger.Debug("websocket write result", zap.Error(err))
		return
	}
	wsConn.Close(websocket.StatusNormalClosure, "simulation finished")
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, msg lanenet.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// ListenAndServe serves HTTP on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("http api listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
