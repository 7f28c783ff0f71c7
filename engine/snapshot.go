package engine

import (
	"time"

	"crashserver/state"
)

// Snapshot is the poll-friendly read model. Reads are idempotent and safe
// at any cadence; the crash point only appears once the round has crashed.
type Snapshot struct {
	Phase             state.Phase          `json:"phase"`
	RoundID           string               `json:"roundId,omitempty"`
	CurrentMultiplier float64              `json:"currentMultiplier"`
	ElapsedTime       float64              `json:"elapsedTime"`
	BettingCountdown  float64              `json:"bettingCountdown"`
	WaitingCountdown  float64              `json:"waitingCountdown"`
	CrashPoint        float64              `json:"crashPoint,omitempty"`
	Players           []state.PlayerEntry  `json:"players"`
	RecentHistory     []state.HistoryEntry `json:"recentHistory"`
}

// Snapshot serializes the live round for client polling.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	round := e.round
	snap := Snapshot{
		Phase:             state.PhaseWaiting,
		CurrentMultiplier: 1.0,
		Players:           []state.PlayerEntry{},
	}
	if round != nil {
		now := time.Now()
		snap.Phase = round.Phase
		snap.RoundID = round.ID
		snap.CurrentMultiplier = round.CurrentMultiplier
		snap.Players = round.PlayerList()

		switch round.Phase {
		case state.PhaseBetting:
			snap.BettingCountdown = secondsUntil(now, round.BettingDeadline)
		case state.PhasePlaying:
			snap.ElapsedTime = now.Sub(round.StartTime).Seconds()
		case state.PhaseCrashed:
			snap.CrashPoint = round.CrashPoint
			snap.WaitingCountdown = secondsUntil(now, round.NextRoundAt)
		}
	}
	e.mu.Unlock()

	snap.RecentHistory = e.history.Recent(0)
	return snap
}

// RecentHistory returns up to limit finished-round summaries, newest first.
func (e *Engine) RecentHistory(limit int) []state.HistoryEntry {
	return e.history.Recent(limit)
}

func secondsUntil(now, deadline time.Time) float64 {
	s := deadline.Sub(now).Seconds()
	if s < 0 {
		return 0
	}
	return s
}
