package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"crashserver/config"
	"crashserver/game"
	"crashserver/ledger"
	"crashserver/state"
)

// Config carries the timing and limit knobs for one engine instance.
// Defaults come from the config package; tests shrink the durations.
type Config struct {
	BettingDuration time.Duration
	WaitingDuration time.Duration
	TickInterval    time.Duration
	MinBet          int64
	MaxBet          int64
	HistorySize     int
}

func DefaultConfig() Config {
	return Config{
		BettingDuration: config.BettingDuration,
		WaitingDuration: config.WaitingDuration,
		TickInterval:    config.TickInterval,
		MinBet:          config.MinBet,
		MaxBet:          config.MaxBet,
		HistorySize:     config.MaxHistory,
	}
}

// BetMirror is an optional live view of the round's bets kept in Redis for
// ops visibility. All calls are best effort; the in-memory registry stays
// authoritative.
type BetMirror interface {
	RecordBet(ctx context.Context, roundID string, entry state.PlayerEntry) error
	RecordCashout(ctx context.Context, roundID string, entry state.PlayerEntry) error
	ClearRound(ctx context.Context, roundID string) error
}

// RoundArchive durably stores round summaries and reloads recent ones at
// startup. Optional; losing it only loses history across restarts.
type RoundArchive interface {
	StoreRound(ctx context.Context, entry state.HistoryEntry, seed string) error
	RecentRounds(ctx context.Context, limit int) ([]state.HistoryEntry, error)
}

// Engine owns the single live round. Every mutation of round state — the
// scheduler tick, bets, cashouts — funnels through e.mu; ledger I/O happens
// outside the lock so a slow debit or credit cannot stall the tick loop.
type Engine struct {
	cfg     Config
	ledger  ledger.Service
	mirror  BetMirror    // may be nil
	archive RoundArchive // may be nil

	mu      sync.Mutex
	round   *state.Round
	history *state.History

	// drawCrashPoint is swappable so tests can fix the outcome.
	drawCrashPoint func(rng *rand.Rand) float64
}

func New(cfg Config, svc ledger.Service, mirror BetMirror, archive RoundArchive) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = config.TickInterval
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = config.MaxHistory
	}
	return &Engine{
		cfg:            cfg,
		ledger:         svc,
		mirror:         mirror,
		archive:        archive,
		history:        state.NewHistory(cfg.HistorySize),
		drawCrashPoint: game.GenerateCrashPoint,
	}
}

// LoadHistory seeds the in-memory ring from the archive, oldest first.
func (e *Engine) LoadHistory(entries []state.HistoryEntry) {
	for i := len(entries) - 1; i >= 0; i-- {
		e.history.Add(entries[i])
	}
}
