package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"crashserver/config"
	"crashserver/db"
	"crashserver/engine"
	"crashserver/ledger"
)

/* =========================
   REQUEST/RESPONSE TYPES
========================= */

type BetRequest struct {
	Amount int64 `json:"amount"`
}

type BetResponse struct {
	Success     bool   `json:"success"`
	NewBalance  int64  `json:"newBalance"`
	PlayerCount int    `json:"playerCount"`
	RoundID     string `json:"roundId"`
}

type CashoutResponse struct {
	Success    bool    `json:"success"`
	Multiplier float64 `json:"multiplier"`
	Payout     int64   `json:"payout"`
	NewBalance int64   `json:"newBalance"`
	RoundID    string  `json:"roundId"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// ErrorResponse carries a machine reason code and a human message.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

// Reason codes for rejected commands.
const (
	CodeValidation       = "validation_error"
	CodeInsufficient     = "insufficient_funds"
	CodeDoubleAction     = "double_action"
	CodeGameState        = "game_state"
	CodeNotParticipating = "not_participating"
	CodeUnauthorized     = "unauthorized"
	CodeInternal         = "internal_error"
)

/* =========================
   HANDLER
========================= */

// Handler exposes the polling wire surface over the engine.
type Handler struct {
	engine *engine.Engine
	ledger ledger.Service
	store  *db.Store  // may be nil, health only
	mirror *db.Mirror // may be nil, health only
}

func NewHandler(eng *engine.Engine, svc ledger.Service, store *db.Store, mirror *db.Mirror) *Handler {
	return &Handler{engine: eng, ledger: svc, store: store, mirror: mirror}
}

// Register wires every route onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/game/state", h.HandleState)
	mux.HandleFunc("/api/game/bet", h.HandleBet)
	mux.HandleFunc("/api/game/cashout", h.HandleCashout)
	mux.HandleFunc("/api/game/history", h.HandleHistory)
	mux.HandleFunc("/api/balance", h.HandleBalance)
	mux.HandleFunc("/api/health", h.HandleHealth)
}

// HandleState handles GET /api/game/state. No auth; reads are idempotent.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, CodeValidation, "Method not allowed")
		return
	}
	sendJSON(w, http.StatusOK, h.engine.Snapshot())
}

// HandleBet handles POST /api/game/bet.
func (h *Handler) HandleBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, CodeValidation, "Method not allowed")
		return
	}
	userID, username, ok := Identity(r)
	if !ok {
		sendError(w, http.StatusUnauthorized, CodeUnauthorized, "Missing user identity")
		return
	}

	var req BetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return
	}

	result, err := h.engine.PlaceBet(r.Context(), userID, username, req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, BetResponse{
		Success:     true,
		NewBalance:  result.NewBalance,
		PlayerCount: result.PlayerCount,
		RoundID:     result.RoundID,
	})
}

// HandleCashout handles POST /api/game/cashout.
func (h *Handler) HandleCashout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, CodeValidation, "Method not allowed")
		return
	}
	userID, _, ok := Identity(r)
	if !ok {
		sendError(w, http.StatusUnauthorized, CodeUnauthorized, "Missing user identity")
		return
	}

	result, err := h.engine.CashOut(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, CashoutResponse{
		Success:    true,
		Multiplier: result.Multiplier,
		Payout:     result.Payout,
		NewBalance: result.NewBalance,
		RoundID:    result.RoundID,
	})
}

// HandleHistory handles GET /api/game/history?limit=N.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, CodeValidation, "Method not allowed")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendError(w, http.StatusBadRequest, CodeValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > config.MaxHistoryQueryLimit {
		limit = config.MaxHistoryQueryLimit
	}

	history := h.engine.RecentHistory(limit)
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"count":   len(history),
	})
}

// HandleBalance handles GET /api/balance for the authenticated user.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, CodeValidation, "Method not allowed")
		return
	}
	userID, _, ok := Identity(r)
	if !ok {
		sendError(w, http.StatusUnauthorized, CodeUnauthorized, "Missing user identity")
		return
	}

	balance, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		log.Printf("balance lookup failed - user: %s: %v", userID, err)
		sendError(w, http.StatusInternalServerError, CodeInternal, "Failed to get balance")
		return
	}
	sendJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, CodeValidation, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"postgres": "disabled", "redis": "disabled"}
	healthy := true

	if h.store != nil {
		if err := h.store.Health(ctx); err != nil {
			status["postgres"] = "down"
			healthy = false
		} else {
			status["postgres"] = "ok"
		}
	}
	if h.mirror != nil {
		if err := h.mirror.Health(ctx); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "ok"
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	sendJSON(w, code, map[string]interface{}{
		"healthy":    healthy,
		"components": status,
	})
}

/* =========================
   HELPER FUNCTIONS
========================= */

func sendJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func sendError(w http.ResponseWriter, statusCode int, code, message string) {
	sendJSON(w, statusCode, ErrorResponse{Success: false, Code: code, Error: message})
}

// writeEngineError maps engine rejections to reason codes and statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		sendError(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		sendError(w, http.StatusBadRequest, CodeInsufficient, "Insufficient funds")
	case errors.Is(err, engine.ErrDoubleAction):
		sendError(w, http.StatusConflict, CodeDoubleAction, err.Error())
	case errors.Is(err, engine.ErrGameState):
		sendError(w, http.StatusConflict, CodeGameState, err.Error())
	case errors.Is(err, engine.ErrNotParticipating):
		sendError(w, http.StatusNotFound, CodeNotParticipating, err.Error())
	default:
		log.Printf("internal error: %v", err)
		sendError(w, http.StatusInternalServerError, CodeInternal, "Internal error")
	}
}
