package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"crashserver/config"
	"crashserver/ledger"
	"crashserver/state"
)

// BetResult is returned to a player whose bet was accepted.
type BetResult struct {
	RoundID     string
	NewBalance  int64
	PlayerCount int
}

// CashoutResult is returned to a player whose cashout was accepted.
type CashoutResult struct {
	RoundID    string
	Multiplier float64
	Payout     int64
	NewBalance int64
}

// PlaceBet validates, debits the ledger and registers the player, as one
// unit: if any step fails none of the others stick. The debit runs outside
// the state lock; a reservation blocks a concurrent second bet from the
// same user while it is in flight, and the round is re-checked before the
// entry is committed.
func (e *Engine) PlaceBet(ctx context.Context, userID, username string, amount int64) (*BetResult, error) {
	if userID == "" || username == "" {
		return nil, fmt.Errorf("%w: missing user identity", ErrValidation)
	}
	if amount < e.cfg.MinBet || amount > e.cfg.MaxBet {
		return nil, fmt.Errorf("%w: amount must be between %d and %d", ErrValidation, e.cfg.MinBet, e.cfg.MaxBet)
	}

	e.mu.Lock()
	round := e.round
	if round == nil || round.Phase != state.PhaseBetting {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: betting is closed", ErrValidation)
	}
	if _, ok := round.Players[userID]; ok {
		e.mu.Unlock()
		return nil, ErrDoubleAction
	}
	if _, ok := round.Reserved[userID]; ok {
		e.mu.Unlock()
		return nil, ErrDoubleAction
	}
	round.Reserved[userID] = struct{}{}
	roundID := round.ID
	e.mu.Unlock()

	newBalance, err := e.ledger.Debit(ctx, userID, amount, config.LedgerCategoryBet,
		fmt.Sprintf("crash bet, round %s", roundID), roundID)
	if err != nil {
		e.releaseReservation(roundID, userID)
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, fmt.Errorf("ledger debit: %w", err)
	}

	e.mu.Lock()
	round = e.round
	if round == nil || round.ID != roundID || round.Phase != state.PhaseBetting {
		e.mu.Unlock()
		// Betting closed while the debit was in flight. Refund the stake.
		if _, rerr := e.ledger.Credit(ctx, userID, amount, config.LedgerCategoryRefund,
			fmt.Sprintf("bet refund, betting closed, round %s", roundID), roundID); rerr != nil {
			log.Printf("ALERT: refund failed after late bet - user: %s, round: %s, amount: %d: %v",
				userID, roundID, amount, rerr)
		}
		return nil, fmt.Errorf("%w: betting closed", ErrValidation)
	}
	delete(round.Reserved, userID)
	entry := &state.PlayerEntry{
		UserID:    userID,
		Username:  username,
		BetAmount: amount,
		BetTime:   time.Now(),
	}
	round.Players[userID] = entry
	count := len(round.Players)
	e.mu.Unlock()

	log.Printf("round %s: bet accepted - user: %s, amount: %d", roundID, username, amount)
	e.mirrorBet(roundID, *entry)

	return &BetResult{RoundID: roundID, NewBalance: newBalance, PlayerCount: count}, nil
}

// CashOut locks in the server's current multiplier for the caller and
// credits floor(bet * multiplier). The cashed-out flag is test-and-set
// under the lock, so concurrent requests for the same user resolve exactly
// once.
func (e *Engine) CashOut(ctx context.Context, userID string) (*CashoutResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user identity", ErrValidation)
	}

	e.mu.Lock()
	round := e.round
	if round == nil || round.Phase != state.PhasePlaying {
		e.mu.Unlock()
		return nil, ErrGameState
	}
	entry, ok := round.Players[userID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNotParticipating
	}
	if entry.CashedOut {
		e.mu.Unlock()
		return nil, ErrDoubleAction
	}

	multiplier := round.CurrentMultiplier
	entry.CashedOut = true
	entry.CashoutMultiplier = &multiplier
	payout := int64(math.Floor(float64(entry.BetAmount) * multiplier))
	entry.Payout = payout
	roundID := round.ID
	snapshot := *entry
	e.mu.Unlock()

	newBalance, err := e.ledger.Credit(ctx, userID, payout, config.LedgerCategoryPayout,
		fmt.Sprintf("crash cashout at %.2fx, round %s", multiplier, roundID), roundID)
	if err != nil {
		// The credit never landed, so the in-memory cashout is rolled back
		// rather than leaving memory and ledger disagreeing.
		e.mu.Lock()
		if e.round != nil && e.round.ID == roundID {
			if cur, ok := e.round.Players[userID]; ok {
				cur.CashedOut = false
				cur.CashoutMultiplier = nil
				cur.Payout = 0
			}
		}
		e.mu.Unlock()
		log.Printf("ALERT: cashout credit failed, rolled back - user: %s, round: %s, payout: %d: %v",
			userID, roundID, payout, err)
		return nil, fmt.Errorf("ledger credit: %w", err)
	}

	log.Printf("round %s: cashout - user: %s, multiplier: %.2fx, payout: %d",
		roundID, userID, multiplier, payout)
	e.mirrorCashout(roundID, snapshot)

	return &CashoutResult{
		RoundID:    roundID,
		Multiplier: multiplier,
		Payout:     payout,
		NewBalance: newBalance,
	}, nil
}

func (e *Engine) releaseReservation(roundID, userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.round != nil && e.round.ID == roundID {
		delete(e.round.Reserved, userID)
	}
}

func (e *Engine) mirrorBet(roundID string, entry state.PlayerEntry) {
	if e.mirror == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := e.mirror.RecordBet(ctx, roundID, entry); err != nil {
			log.Printf("warning: bet mirror write failed - round: %s, user: %s: %v", roundID, entry.UserID, err)
		}
	}()
}

func (e *Engine) mirrorCashout(roundID string, entry state.PlayerEntry) {
	if e.mirror == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := e.mirror.RecordCashout(ctx, roundID, entry); err != nil {
			log.Printf("warning: cashout mirror write failed - round: %s, user: %s: %v", roundID, entry.UserID, err)
		}
	}()
}
