package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"crashserver/engine"
	"crashserver/state"
)

type stubLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

func (s *stubLedger) Debit(_ context.Context, userID string, amount int64, _, _, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] -= amount
	return s.balances[userID], nil
}

func (s *stubLedger) Credit(_ context.Context, userID string, amount int64, _, _, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	return s.balances[userID], nil
}

func (s *stubLedger) Balance(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func newTestHandler() *Handler {
	cfg := engine.Config{
		BettingDuration: time.Second,
		WaitingDuration: time.Second,
		TickInterval:    time.Millisecond,
		MinBet:          10,
		MaxBet:          10_000,
		HistorySize:     10,
	}
	svc := &stubLedger{balances: map[string]int64{"u1": 1000}}
	eng := engine.New(cfg, svc, nil, nil)
	return NewHandler(eng, svc, nil, nil)
}

func TestHandleStateIsPublic(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/game/state", nil)
	rec := httptest.NewRecorder()

	h.HandleState(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap engine.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snap.Phase != state.PhaseWaiting {
		t.Errorf("phase = %s, want waiting before the first round", snap.Phase)
	}
	if snap.Players == nil {
		t.Error("players must serialize as an empty list, not null")
	}
}

func TestHandleBetRequiresIdentity(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/game/bet", strings.NewReader(`{"amount":100}`))
	rec := httptest.NewRecorder()

	h.HandleBet(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != CodeUnauthorized {
		t.Errorf("code = %s, want %s", resp.Code, CodeUnauthorized)
	}
}

func TestHandleBetOutsideBettingWindow(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/game/bet", strings.NewReader(`{"amount":100}`))
	req.Header.Set(HeaderUserID, "u1")
	req.Header.Set(HeaderUsername, "alice")
	rec := httptest.NewRecorder()

	h.HandleBet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != CodeValidation {
		t.Errorf("code = %s, want %s", resp.Code, CodeValidation)
	}
}

func TestHandleCashoutOutsidePlay(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/game/cashout", strings.NewReader(`{}`))
	req.Header.Set(HeaderUserID, "u1")
	rec := httptest.NewRecorder()

	h.HandleCashout(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != CodeGameState {
		t.Errorf("code = %s, want %s", resp.Code, CodeGameState)
	}
}

func TestHandleHistoryValidatesLimit(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/game/history?limit=abc", nil)
	rec := httptest.NewRecorder()

	h.HandleHistory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBalance(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/balance", nil)
	req.Header.Set(HeaderUserID, "u1")
	rec := httptest.NewRecorder()

	h.HandleBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Balance != 1000 {
		t.Errorf("balance = %d, want 1000", resp.Balance)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/game/bet", nil)
	rec := httptest.NewRecorder()

	h.HandleBet(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestCORSAnswersPreflight(t *testing.T) {
	wrapped := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/game/bet", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS headers on preflight")
	}
}
