package game

import "math"

// GrowthRate is the exponent applied to elapsed seconds during the playing
// phase. Any client-side interpolation must use the same constant, otherwise
// client and server disagree about the payout at a given instant.
const GrowthRate = 0.06

// Multiplier returns the payout multiplier after elapsedSeconds of play:
// e^(GrowthRate * elapsed), floored at 1.00. It is pure and deterministic.
func Multiplier(elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 1.0
	}
	m := math.Exp(GrowthRate * elapsedSeconds)
	if m < 1.0 {
		return 1.0
	}
	return m
}
