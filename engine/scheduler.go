package engine

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"crashserver/game"
	"crashserver/state"
)

// Run drives the round cycle until ctx is cancelled:
//
//	waiting -> betting -> playing -> crashed -> waiting -> ...
//
// A panic inside one round is contained and logged; the loop always starts
// the next round. Rounds with zero bets run the full cycle like any other.
func (e *Engine) Run(ctx context.Context) {
	log.Println("crash round loop started")
	for {
		select {
		case <-ctx.Done():
			log.Println("crash round loop stopped")
			return
		default:
		}
		e.runRound(ctx)
	}
}

func (e *Engine) runRound(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ALERT: round loop recovered from panic: %v", r)
			// Leave a beat before the next round so a hot panic cannot spin.
			sleepCtx(ctx, e.cfg.WaitingDuration)
		}
	}()

	e.startNewRound()
	if !sleepCtx(ctx, e.cfg.BettingDuration) {
		return
	}

	e.startPlaying()

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for crashed := false; !crashed; {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			crashed = e.tick()
		}
	}

	e.settleCrash(ctx)
	sleepCtx(ctx, e.cfg.WaitingDuration)
}

// startNewRound resets the player registry, fixes the hidden crash point
// and opens the betting window. The crash point is drawn before any bet can
// be accepted and never changes afterward.
func (e *Engine) startNewRound() {
	roundID := uuid.NewString()
	seed := game.NewRoundSeed()
	rng := game.NewSeededRNG(seed + "-" + roundID)
	crashPoint := e.drawCrashPoint(rng)

	round := state.NewRound(roundID, seed, crashPoint, time.Now().Add(e.cfg.BettingDuration))

	e.mu.Lock()
	e.round = round
	e.mu.Unlock()

	log.Printf("round %s: betting open for %s", roundID, e.cfg.BettingDuration)
}

func (e *Engine) startPlaying() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.round == nil {
		return
	}
	e.round.Phase = state.PhasePlaying
	e.round.StartTime = time.Now()
	e.round.CurrentMultiplier = 1.0
	log.Printf("round %s: playing, crash hidden", e.round.ID)
}

// tick advances the multiplier and reports whether the round crashed. On
// crash the multiplier is frozen at the crash point and the phase flips to
// crashed, so no cashout can observe a value past the terminal one.
func (e *Engine) tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	round := e.round
	if round == nil || round.Phase != state.PhasePlaying {
		return true
	}

	elapsed := time.Since(round.StartTime).Seconds()
	m := game.Multiplier(elapsed)
	if m >= round.CrashPoint {
		round.CurrentMultiplier = round.CrashPoint
		round.Phase = state.PhaseCrashed
		round.NextRoundAt = time.Now().Add(e.cfg.WaitingDuration)
		return true
	}
	round.CurrentMultiplier = m
	return false
}

// settleCrash finalizes the round: entries that never cashed out stand as
// losses (their stake was debited at bet time, no further ledger action),
// the summary goes into the history ring and, best effort, into the
// archive. A failure settling one player never blocks the others.
func (e *Engine) settleCrash(ctx context.Context) {
	e.mu.Lock()
	round := e.round
	if round == nil {
		e.mu.Unlock()
		return
	}
	players := round.PlayerList()
	summary := state.HistoryEntry{
		RoundID:        round.ID,
		CrashPoint:     round.CrashPoint,
		PlayerCount:    len(round.Players),
		TotalBetAmount: round.TotalBets(),
		TotalPayout:    round.TotalPayouts(),
		Timestamp:      time.Now(),
	}
	seed := round.Seed
	e.mu.Unlock()

	for i := range players {
		e.settlePlayer(summary.RoundID, players[i])
	}

	e.history.Add(summary)

	if e.archive != nil {
		go func() {
			storeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.archive.StoreRound(storeCtx, summary, seed); err != nil {
				log.Printf("warning: failed to archive round %s: %v", summary.RoundID, err)
			}
		}()
	}
	if e.mirror != nil {
		go func() {
			clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.mirror.ClearRound(clearCtx, summary.RoundID); err != nil {
				log.Printf("warning: failed to clear bet mirror for round %s: %v", summary.RoundID, err)
			}
		}()
	}

	log.Printf("round %s: crashed at %.2fx - players: %d, staked: %d, paid: %d",
		summary.RoundID, summary.CrashPoint, summary.PlayerCount,
		summary.TotalBetAmount, summary.TotalPayout)
}

func (e *Engine) settlePlayer(roundID string, entry state.PlayerEntry) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ALERT: settlement failed for user %s in round %s: %v", entry.UserID, roundID, r)
		}
	}()

	if entry.CashedOut {
		return
	}
	log.Printf("round %s: %s lost %d", roundID, entry.Username, entry.BetAmount)
}

// sleepCtx sleeps for d or until ctx is done. Reports false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
