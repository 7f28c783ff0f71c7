package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"crashserver/ledger"
	"crashserver/state"
)

// Integration test against a real PostgreSQL. Skipped unless DATABASE_URL
// is set.
func TestStore(t *testing.T) {
	_ = godotenv.Load("../.env")

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx)
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	testUser := "test-user-" + uuid.NewString()

	// Cleanup after test
	defer func() {
		store.pool.Exec(ctx, "DELETE FROM ledger_transactions WHERE user_id = $1", testUser)
		store.pool.Exec(ctx, "DELETE FROM wallet_balances WHERE user_id = $1", testUser)
	}()

	t.Run("BalanceOfUnknownUserIsZero", func(t *testing.T) {
		balance, err := store.Balance(ctx, testUser)
		if err != nil {
			t.Fatalf("Balance failed: %v", err)
		}
		if balance != 0 {
			t.Errorf("want 0, got %d", balance)
		}
	})

	t.Run("DebitUnknownUserIsInsufficient", func(t *testing.T) {
		if _, err := store.Debit(ctx, testUser, 10, "crash_bet", "test", "r0"); !errors.Is(err, ledger.ErrInsufficientFunds) {
			t.Fatalf("want ErrInsufficientFunds, got %v", err)
		}
	})

	t.Run("CreditThenDebit", func(t *testing.T) {
		balance, err := store.Credit(ctx, testUser, 500, "grant", "test grant", "r0")
		if err != nil {
			t.Fatalf("Credit failed: %v", err)
		}
		if balance != 500 {
			t.Errorf("want 500, got %d", balance)
		}

		balance, err = store.Debit(ctx, testUser, 200, "crash_bet", "test bet", "r1")
		if err != nil {
			t.Fatalf("Debit failed: %v", err)
		}
		if balance != 300 {
			t.Errorf("want 300, got %d", balance)
		}
	})

	t.Run("DebitNeverGoesNegative", func(t *testing.T) {
		if _, err := store.Debit(ctx, testUser, 1_000_000, "crash_bet", "too big", "r2"); !errors.Is(err, ledger.ErrInsufficientFunds) {
			t.Fatalf("want ErrInsufficientFunds, got %v", err)
		}

		// The failed debit must leave no trace.
		balance, _ := store.Balance(ctx, testUser)
		if balance != 300 {
			t.Errorf("balance changed by failed debit: want 300, got %d", balance)
		}
	})

	t.Run("TransactionsRecorded", func(t *testing.T) {
		txs, err := store.Transactions(ctx, testUser, 10)
		if err != nil {
			t.Fatalf("Transactions failed: %v", err)
		}
		// One earn (grant) and one burn (bet); the rejected debit must not
		// appear.
		if len(txs) != 2 {
			t.Fatalf("want 2 transactions, got %d", len(txs))
		}
		var signed int64
		for _, tx := range txs {
			switch tx.Direction {
			case ledger.DirectionEarn:
				signed += tx.Amount
			case ledger.DirectionBurn:
				signed -= tx.Amount
			default:
				t.Errorf("unexpected direction %q", tx.Direction)
			}
		}
		if signed != 300 {
			t.Errorf("signed sum of transactions = %d, want 300", signed)
		}
	})

	t.Run("RoundArchive", func(t *testing.T) {
		roundID := uuid.NewString()
		defer store.pool.Exec(ctx, "DELETE FROM round_history WHERE round_id = $1", roundID)

		entry := state.HistoryEntry{
			RoundID:        roundID,
			CrashPoint:     2.37,
			PlayerCount:    3,
			TotalBetAmount: 450,
			TotalPayout:    312,
			Timestamp:      time.Now().UTC(),
		}
		if err := store.StoreRound(ctx, entry, "test-seed"); err != nil {
			t.Fatalf("StoreRound failed: %v", err)
		}
		// Storing the same round twice is a no-op, not an error.
		if err := store.StoreRound(ctx, entry, "test-seed"); err != nil {
			t.Fatalf("duplicate StoreRound failed: %v", err)
		}

		recent, err := store.RecentRounds(ctx, 50)
		if err != nil {
			t.Fatalf("RecentRounds failed: %v", err)
		}
		found := false
		for _, r := range recent {
			if r.RoundID == roundID {
				found = true
				if r.CrashPoint != 2.37 || r.PlayerCount != 3 {
					t.Errorf("unexpected archived entry: %+v", r)
				}
			}
		}
		if !found {
			t.Error("archived round not returned by RecentRounds")
		}
	})
}
