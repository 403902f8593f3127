package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/internal/game"
	"github.com/user/wealth-builder/internal/interfaces"
	"github.com/user/wealth-builder/internal/metrics"
	"github.com/user/wealth-builder/internal/types"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Server exposes the game manager over HTTP
type Server struct {
	gameManager interfaces.GameManager
	metrics     *metrics.Metrics
	Logger      *zap.Logger
	mux         *chi.Mux
}

// New creates the server and registers its routes. A nil metrics value
// leaves /metrics answering 404.
func New(gameManager interfaces.GameManager, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		gameManager: gameManager,
		metrics:     m,
		Logger:      logger,
		mux:         chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Router exposes the mux so the host can mount extra routes
func (s *Server) Router() chi.Router {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Get("/v1/assets", s.handleAssets)

	r.Route("/v1/players/{player}", func(r chi.Router) {
		r.Post("/game", s.handleStart)
		r.Get("/game", s.handleState)
		r.Delete("/game", s.handleReset)
		r.Get("/snapshot", s.handleSnapshot)

		r.Post("/invest", s.handlePooled(s.gameManager.Invest))
		r.Post("/withdraw", s.handlePooled(s.gameManager.Withdraw))
		r.Post("/buy", s.handleTrade(s.gameManager.Buy))
		r.Post("/sell", s.handleTrade(s.gameManager.Sell))

		r.Post("/pause", s.handlePause(true))
		r.Post("/resume", s.handlePause(false))
		r.Post("/expense/cash", s.handleExpense(false))
		r.Post("/expense/investments", s.handleExpense(true))

		r.Get("/history", s.handleHistory)
	})
}

type startRequest struct {
	Difficulty string `json:"difficulty"`
}

type pooledRequest struct {
	Asset  types.AssetID   `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

type tradeRequest struct {
	Class    types.AssetClass `json:"class"`
	Symbol   types.AssetID    `json:"symbol"`
	Quantity decimal.Decimal  `json:"quantity"`
}

type expenseRequest struct {
	EventID string `json:"event_id"`
}

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.Catalog())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	difficulty := types.Difficulty("")
	if req.Difficulty != "" {
		d, ok := types.ParseDifficulty(req.Difficulty)
		if !ok {
			writeError(w, http.StatusBadRequest, game.ErrUnknownDifficulty.Error())
			return
		}
		difficulty = d
	}

	state, err := s.gameManager.StartGame(playerID(r), difficulty)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.gameManager.GetState(playerID(r))
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.gameManager.ResetGame(playerID(r)); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.gameManager.Snapshot(playerID(r))
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type pooledCommand func(playerID string, asset types.AssetID, amount decimal.Decimal) (types.StateView, error)

func (s *Server) handlePooled(command pooledCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pooledRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		state, err := command(playerID(r), req.Asset, req.Amount)
		if err != nil {
			s.writeGameError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

type tradeCommand func(playerID string, class types.AssetClass, symbol types.AssetID, quantity decimal.Decimal) (types.StateView, error)

func (s *Server) handleTrade(command tradeCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tradeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		state, err := command(playerID(r), req.Class, types.AssetID(strings.ToUpper(string(req.Symbol))), req.Quantity)
		if err != nil {
			s.writeGameError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := s.gameManager.SetPaused(playerID(r), paused)
		if err != nil {
			s.writeGameError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handleExpense(withInvestments bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req expenseRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
				return
			}
		}
		state, err := s.gameManager.PayExpense(playerID(r), req.EventID, withInvestments)
		if err != nil {
			s.writeGameError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	results, err := s.gameManager.History(r.Context(), playerID(r), limit)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// statusFor maps manager errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidQuantity),
		errors.Is(err, game.ErrUnknownAsset),
		errors.Is(err, game.ErrTradableAsset),
		errors.Is(err, game.ErrNotTradable),
		errors.Is(err, game.ErrWrongAssetClass),
		errors.Is(err, game.ErrUnknownDifficulty),
		errors.Is(err, game.ErrInvalidEvent):
		return http.StatusBadRequest
	case game.IsRejection(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func playerID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "player"))
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
