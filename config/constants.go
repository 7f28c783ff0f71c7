package config

import "time"

/* =========================
   GAME TIMING
========================= */

const (
	// BettingDuration is how long the betting window stays open each round.
	BettingDuration = 10 * time.Second

	// WaitingDuration is the pause after a crash before the next round opens.
	WaitingDuration = 5 * time.Second

	// TickInterval drives crash detection during the playing phase.
	// Smaller values lower crash-detection latency at some CPU cost.
	TickInterval = 50 * time.Millisecond

	// MaxHistory is the capacity of the in-memory ring of past rounds.
	MaxHistory = 100
)

/* =========================
   BET LIMITS
========================= */

// Bet amounts are whole currency units.
const (
	MinBet = int64(10)
	MaxBet = int64(10_000)
)

/* =========================
   LEDGER CATEGORIES
========================= */

const (
	LedgerCategoryBet    = "crash_bet"
	LedgerCategoryPayout = "crash_payout"
	LedgerCategoryRefund = "crash_refund"
)

/* =========================
   POSTGRESQL CONFIGURATION
========================= */

const (
	// Connection pool settings
	MaxOpenConns    = 25
	MinConns        = 5
	ConnMaxLifetime = 5 * time.Minute
)

/* =========================
   REDIS TTL CONFIGURATION
========================= */

const (
	// Live bet mirror TTL per round
	// Key: crash:{roundId}
	RoundMirrorTTL = 1 * time.Hour

	// Cashed-out marker TTL
	// Key: crash:cashedout:{roundId}:{userId}
	CashedOutTTL = 10 * time.Minute
)

/* =========================
   REDIS KEY PATTERNS
========================= */

const (
	RedisRoundBetsKey = "crash:%s"              // crash:{roundId} (HASH userId -> bet)
	RedisCashedOutKey = "crash:cashedout:%s:%s" // crash:cashedout:{roundId}:{userId}
)

/* =========================
   API CONFIGURATION
========================= */

const (
	// Server settings
	DefaultServerAddr = "0.0.0.0:8080"

	// CORS settings
	AllowOrigin = "*"

	// Maximum rows a single history query may return.
	MaxHistoryQueryLimit = 100
)
