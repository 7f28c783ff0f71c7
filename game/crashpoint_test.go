package game

import "testing"

func TestGenerateCrashPointBounds(t *testing.T) {
	rng := NewSeededRNG("bounds-test")
	for i := 0; i < 100_000; i++ {
		point := GenerateCrashPoint(rng)
		if point < MinCrashPoint || point > MaxCrashPoint {
			t.Fatalf("crash point %v outside [%v, %v]", point, MinCrashPoint, MaxCrashPoint)
		}
	}
}

func TestGenerateCrashPointIsDeterministicPerSeed(t *testing.T) {
	a := GenerateCrashPoint(NewSeededRNG("seed-a"))
	b := GenerateCrashPoint(NewSeededRNG("seed-a"))
	if a != b {
		t.Errorf("same seed drew %v and %v", a, b)
	}

	c := GenerateCrashPoint(NewSeededRNG("seed-b"))
	if a == c {
		t.Errorf("different seeds drew the same point %v", a)
	}
}

func TestGenerateCrashPointDistributionShape(t *testing.T) {
	rng := NewSeededRNG("distribution-test")

	const draws = 200_000
	var low, rest int
	for i := 0; i < draws; i++ {
		point := GenerateCrashPoint(rng)
		// The house edge shifts tier boundaries down slightly, so compare
		// against the scaled low-tier ceiling.
		if point <= TierLowMax*(1-HouseEdge) {
			low++
		} else {
			rest++
		}
	}

	lowShare := float64(low) / draws
	if lowShare < 0.55 || lowShare > 0.65 {
		t.Errorf("low tier share %v, want about 0.60", lowShare)
	}
}

func TestNewSeededRNGIsStable(t *testing.T) {
	a := NewSeededRNG("stable").Float64()
	b := NewSeededRNG("stable").Float64()
	if a != b {
		t.Errorf("seeded RNG not stable: %v != %v", a, b)
	}
}
