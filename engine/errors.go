package engine

import "errors"

// Rejection reasons surfaced to players. The API layer maps these to reason
// codes; anything else coming out of the engine is an internal error.
var (
	// ErrValidation covers malformed amounts and bets outside the betting
	// window.
	ErrValidation = errors.New("invalid bet")

	// ErrDoubleAction means the user already bet (or already cashed out)
	// this round. Safe for clients to treat as "already handled".
	ErrDoubleAction = errors.New("action already taken this round")

	// ErrGameState means a cashout arrived while the round was not playing.
	ErrGameState = errors.New("round is not in play")

	// ErrNotParticipating means a cashout arrived from a user with no bet
	// in the current round.
	ErrNotParticipating = errors.New("no active bet this round")
)
