package state

import "time"

type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseBetting Phase = "betting"
	PhasePlaying Phase = "playing"
	PhaseCrashed Phase = "crashed"
)

// PlayerEntry is one player's position in the current round. A user ID maps
// to at most one entry per round. CashoutMultiplier is set at most once,
// and only while the round is playing.
type PlayerEntry struct {
	UserID            string    `json:"userId"`
	Username          string    `json:"username"`
	BetAmount         int64     `json:"betAmount"`
	CashedOut         bool      `json:"cashedOut"`
	CashoutMultiplier *float64  `json:"cashoutMultiplier,omitempty"`
	Payout            int64     `json:"payout,omitempty"`
	BetTime           time.Time `json:"betTime"`
}

// Round is the single live round. It is owned by the engine and mutated only
// under the engine's lock; CrashPoint never changes after assignment.
type Round struct {
	ID         string
	Seed       string
	Phase      Phase
	CrashPoint float64

	CreatedAt       time.Time
	StartTime       time.Time // instant the playing phase began
	BettingDeadline time.Time
	NextRoundAt     time.Time

	CurrentMultiplier float64

	Players map[string]*PlayerEntry

	// Reserved holds user IDs whose bet debit is in flight. A reservation
	// blocks a second bet for the same user until the first one is
	// confirmed or released.
	Reserved map[string]struct{}
}

func NewRound(id, seed string, crashPoint float64, bettingDeadline time.Time) *Round {
	return &Round{
		ID:                id,
		Seed:              seed,
		Phase:             PhaseBetting,
		CrashPoint:        crashPoint,
		CreatedAt:         time.Now(),
		BettingDeadline:   bettingDeadline,
		CurrentMultiplier: 1.0,
		Players:           make(map[string]*PlayerEntry),
		Reserved:          make(map[string]struct{}),
	}
}

// TotalBets sums every stake in the round.
func (r *Round) TotalBets() int64 {
	var total int64
	for _, p := range r.Players {
		total += p.BetAmount
	}
	return total
}

// TotalPayouts sums every settled cashout in the round.
func (r *Round) TotalPayouts() int64 {
	var total int64
	for _, p := range r.Players {
		total += p.Payout
	}
	return total
}

// PlayerList returns a value copy of every entry, safe to serialize after
// the engine lock is released.
func (r *Round) PlayerList() []PlayerEntry {
	list := make([]PlayerEntry, 0, len(r.Players))
	for _, p := range r.Players {
		entry := *p
		if p.CashoutMultiplier != nil {
			v := *p.CashoutMultiplier
			entry.CashoutMultiplier = &v
		}
		list = append(list, entry)
	}
	return list
}
