package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crashserver/config"
	"crashserver/ledger"
	"crashserver/state"
)

// Store wraps the PostgreSQL pool. It implements the currency ledger (the
// durable source of truth for balances) and the round-history archive.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects using DATABASE_URL and initializes the schema.
func NewStore(ctx context.Context) (*Store, error) {
	log.Println("connecting to PostgreSQL...")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = config.MaxOpenConns
	poolConfig.MinConns = config.MinConns
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("PostgreSQL connected")
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		log.Println("closing PostgreSQL connection...")
		s.pool.Close()
	}
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS wallet_balances (
		user_id TEXT PRIMARY KEY,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
	);

	CREATE TABLE IF NOT EXISTS ledger_transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		category TEXT NOT NULL,
		amount BIGINT NOT NULL CHECK (amount >= 0),
		description TEXT NOT NULL DEFAULT '',
		reference_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_transactions_user ON ledger_transactions(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_ledger_transactions_reference ON ledger_transactions(reference_id);

	CREATE TABLE IF NOT EXISTS round_history (
		round_id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		crash_point DOUBLE PRECISION NOT NULL,
		player_count INTEGER NOT NULL,
		total_bet_amount BIGINT NOT NULL,
		total_payout BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_round_history_created_at ON round_history(created_at DESC);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

/* =========================
   CURRENCY LEDGER
========================= */

// Debit burns amount from the user's balance. Balance check, balance update
// and transaction record commit in one database transaction; if the balance
// would go negative nothing is written and ErrInsufficientFunds comes back.
func (s *Store) Debit(ctx context.Context, userID string, amount int64, category, description, referenceID string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin debit: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		UPDATE wallet_balances
		SET balance = balance - $2
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ledger.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_transactions (user_id, direction, category, amount, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, ledger.DirectionBurn, category, amount, description, referenceID); err != nil {
		return 0, fmt.Errorf("failed to record debit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit debit: %w", err)
	}
	return balance, nil
}

// Credit earns amount into the user's balance, creating the wallet row on
// first use.
func (s *Store) Credit(ctx context.Context, userID string, amount int64, category, description, referenceID string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must not be negative, got %d", amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin credit: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		INSERT INTO wallet_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallet_balances.balance + $2
		RETURNING balance
	`, userID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_transactions (user_id, direction, category, amount, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, ledger.DirectionEarn, category, amount, description, referenceID); err != nil {
		return 0, fmt.Errorf("failed to record credit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit credit: %w", err)
	}
	return balance, nil
}

// Balance returns the user's current balance; unknown users have zero.
func (s *Store) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx, `
		SELECT balance FROM wallet_balances WHERE user_id = $1
	`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Transactions returns the user's most recent ledger movements.
func (s *Store) Transactions(ctx context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, direction, category, amount, description, reference_id, created_at
		FROM ledger_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var t ledger.Transaction
		var direction string
		if err := rows.Scan(&t.ID, &t.UserID, &direction, &t.Category, &t.Amount,
			&t.Description, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		t.Direction = ledger.Direction(direction)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return txs, nil
}

/* =========================
   ROUND HISTORY ARCHIVE
========================= */

// StoreRound archives a finished round summary.
func (s *Store) StoreRound(ctx context.Context, entry state.HistoryEntry, seed string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO round_history
		(round_id, seed, crash_point, player_count, total_bet_amount, total_payout, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (round_id) DO NOTHING
	`, entry.RoundID, seed, entry.CrashPoint, entry.PlayerCount,
		entry.TotalBetAmount, entry.TotalPayout, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to store round history: %w", err)
	}
	return nil
}

// RecentRounds returns the most recent archived rounds, newest first.
func (s *Store) RecentRounds(ctx context.Context, limit int) ([]state.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT round_id, crash_point, player_count, total_bet_amount, total_payout, created_at
		FROM round_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query round history: %w", err)
	}
	defer rows.Close()

	var entries []state.HistoryEntry
	for rows.Next() {
		var e state.HistoryEntry
		if err := rows.Scan(&e.RoundID, &e.CrashPoint, &e.PlayerCount,
			&e.TotalBetAmount, &e.TotalPayout, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

/* =========================
   HEALTH CHECK
========================= */

func (s *Store) Health(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("PostgreSQL connection pool not initialized")
	}
	return s.pool.Ping(ctx)
}
