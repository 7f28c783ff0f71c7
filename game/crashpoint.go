package game

import "math/rand"

// Crash point distribution. Cumulative thresholds; each tier is sampled
// uniformly within its range before the house edge is applied.
const (
	TierLow     = 0.60 // 60% chance: 1.01x - 2.00x
	TierMid     = 0.90 // 30% chance: 2.00x - 5.00x (cumulative)
	TierHigh    = 0.97 // 7% chance:  5.00x - 20.00x (cumulative)
	TierExtreme = 1.00 // 3% chance:  20.00x - 100.00x (cumulative)

	TierLowMin     = 1.01
	TierLowMax     = 2.0
	TierMidMax     = 5.0
	TierHighMax    = 20.0
	TierExtremeMax = 100.0

	// HouseEdge shaves the drawn crash point so expected value favors the
	// operator.
	HouseEdge = 0.03

	MinCrashPoint = 1.01
	MaxCrashPoint = 100.0
)

// GenerateCrashPoint draws the terminal multiplier for one round. It is
// called exactly once per round, before betting opens, so no code path can
// observe player bets before the outcome is fixed.
func GenerateCrashPoint(rng *rand.Rand) float64 {
	r := rng.Float64()

	var point float64
	switch {
	case r < TierLow:
		normalized := r / TierLow
		point = TierLowMin + normalized*(TierLowMax-TierLowMin)
	case r < TierMid:
		normalized := (r - TierLow) / (TierMid - TierLow)
		point = TierLowMax + normalized*(TierMidMax-TierLowMax)
	case r < TierHigh:
		normalized := (r - TierMid) / (TierHigh - TierMid)
		point = TierMidMax + normalized*(TierHighMax-TierMidMax)
	default:
		normalized := (r - TierHigh) / (TierExtreme - TierHigh)
		point = TierHighMax + normalized*(TierExtremeMax-TierHighMax)
	}

	point *= 1 - HouseEdge

	if point < MinCrashPoint {
		point = MinCrashPoint
	}
	if point > MaxCrashPoint {
		point = MaxCrashPoint
	}
	return point
}
