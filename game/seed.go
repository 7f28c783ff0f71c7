package game

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRoundSeed returns 32 bytes of CSPRNG entropy, hex encoded. Each round
// gets a fresh seed; combined with the round ID it drives the crash point
// draw. The seed stays server-side: a commit-reveal scheme for verifiable
// fairness is an open product question, not implemented here.
func NewRoundSeed() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
