package state

import (
	"fmt"
	"testing"
	"time"
)

func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(HistoryEntry{RoundID: fmt.Sprintf("r%d", i), Timestamp: time.Now()})
	}

	if h.Len() != 3 {
		t.Fatalf("want 3 entries after eviction, got %d", h.Len())
	}

	recent := h.Recent(0)
	want := []string{"r5", "r4", "r3"}
	for i, id := range want {
		if recent[i].RoundID != id {
			t.Errorf("recent[%d] = %s, want %s", i, recent[i].RoundID, id)
		}
	}
}

func TestHistoryRecentLimit(t *testing.T) {
	h := NewHistory(10)
	for i := 1; i <= 6; i++ {
		h.Add(HistoryEntry{RoundID: fmt.Sprintf("r%d", i)})
	}

	recent := h.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("want 2 entries, got %d", len(recent))
	}
	if recent[0].RoundID != "r6" || recent[1].RoundID != "r5" {
		t.Errorf("want newest first, got %s, %s", recent[0].RoundID, recent[1].RoundID)
	}

	if got := h.Recent(100); len(got) != 6 {
		t.Errorf("limit beyond size: want 6 entries, got %d", len(got))
	}
}

func TestHistoryRecentEmpty(t *testing.T) {
	h := NewHistory(5)
	if got := h.Recent(10); len(got) != 0 {
		t.Errorf("want no entries, got %d", len(got))
	}
}
