// Package ledger defines the currency ledger the game engine settles
// against. The ledger owns balances: a user's balance is the signed sum of
// their transactions and never goes negative.
package ledger

import (
	"context"
	"errors"
	"time"
)

type Direction string

const (
	DirectionEarn Direction = "earn"
	DirectionBurn Direction = "burn"
)

// Transaction is one ledger movement. ReferenceID ties the movement back to
// the round that caused it.
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Direction   Direction `json:"direction"`
	Category    string    `json:"category"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	ReferenceID string    `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
}

var ErrInsufficientFunds = errors.New("insufficient funds")

// Service is the collaborator interface the engine consumes. Debit and
// Credit are atomic: the balance check, balance update and transaction
// record commit together or not at all. Debit returns ErrInsufficientFunds
// rather than driving a balance negative.
type Service interface {
	Debit(ctx context.Context, userID string, amount int64, category, description, referenceID string) (newBalance int64, err error)
	Credit(ctx context.Context, userID string, amount int64, category, description, referenceID string) (newBalance int64, err error)
	Balance(ctx context.Context, userID string) (int64, error)
}
