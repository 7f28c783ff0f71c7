package state

import (
	"sync"
	"time"
)

// HistoryEntry is the summary kept for a finished round. The ledger, not
// this ring, is the durable record of financial outcomes.
type HistoryEntry struct {
	RoundID        string    `json:"roundId"`
	CrashPoint     float64   `json:"crashPoint"`
	PlayerCount    int       `json:"playerCount"`
	TotalBetAmount int64     `json:"totalBetAmount"`
	TotalPayout    int64     `json:"totalPayout"`
	Timestamp      time.Time `json:"timestamp"`
}

// History is a fixed-capacity ring of recent round summaries. Oldest
// entries are evicted first.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	max     int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = 1
	}
	return &History{
		entries: make([]HistoryEntry, 0, max),
		max:     max,
	}
}

func (h *History) Add(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (h *History) Recent(limit int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]HistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
