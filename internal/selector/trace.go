package selector

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTraceCapacity bounds the in-memory run history.
const DefaultTraceCapacity = 50

// Meta identifies the call a selection run served.
type Meta struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Turn      int    `json:"turn"`
}

// TraceEntry is one retained selection run.
type TraceEntry struct {
	RunID      string          `json:"run_id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Meta       Meta            `json:"meta"`
	Result     SelectionResult `json:"result"`
}

// Trace retains a bounded history of selection runs for audits. Appends
// and reads are guarded by one mutex; the oldest run is evicted when the
// ring is full.
type Trace struct {
	mu      sync.Mutex
	cap     int
	entries []TraceEntry
}

// NewTrace creates a trace retaining up to capacity runs. Non-positive
// capacities fall back to DefaultTraceCapacity.
func NewTrace(capacity int) *Trace {
	if capacity <= 0 {
		capacity = DefaultTraceCapacity
	}
	return &Trace{cap: capacity}
}

// SetCapacity resizes the ring, evicting the oldest runs if the new
// capacity is smaller than the retained history. Non-positive
// capacities fall back to DefaultTraceCapacity.
func (t *Trace) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultTraceCapacity
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cap = capacity
	if len(t.entries) > t.cap {
		t.entries = t.entries[len(t.entries)-t.cap:]
	}
}

// Record stores a copy of the result with a fresh run id.
func (t *Trace) Record(meta Meta, res SelectionResult) TraceEntry {
	entry := TraceEntry{
		RunID:      uuid.NewString(),
		RecordedAt: time.Now(),
		Meta:       meta,
		Result:     res,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if len(t.entries) > t.cap {
		t.entries = t.entries[len(t.entries)-t.cap:]
	}
	return entry
}

// Logs returns the n most recent runs, most recent first. n <= 0 or
// larger than the retained history returns everything retained.
func (t *Trace) Logs(n int) []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || n > len(t.entries) {
		n = len(t.entries)
	}
	out := make([]TraceEntry, n)
	for i := 0; i < n; i++ {
		out[i] = t.entries[len(t.entries)-1-i]
	}
	return out
}

// Len reports how many runs are currently retained.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// ExclusionSummary groups exclusion counts by reason code.
func ExclusionSummary(excluded []ExclusionRecord) map[ReasonCode]int {
	summary := make(map[ReasonCode]int, len(excluded))
	for _, e := range excluded {
		summary[e.Reason]++
	}
	return summary
}

// FormatSelectionDebug renders a multi-section human-readable report of
// one selection run for operator debugging.
func FormatSelectionDebug(res SelectionResult) string {
	var b strings.Builder

	b.WriteString("=== Selection Debug ===\n")
	fmt.Fprintf(&b, "included: %d items, %d chars (%.0f%% of budget)\n",
		res.Metrics.TotalItems, res.Metrics.TotalChars, res.Metrics.BudgetUtilization*100)
	fmt.Fprintf(&b, "excluded: %d items\n", res.Metrics.ExcludedCount)
	fmt.Fprintf(&b, "avg relevance: %.1f  avg confidence: %.2f  diversity: %.2f\n",
		res.Metrics.AvgRelevanceScore, res.Metrics.AvgConfidenceScore, res.Metrics.DiversityScore)
	fmt.Fprintf(&b, "processing: %.2fms\n", res.Metrics.ProcessingTimeMs)

	if len(res.Metrics.DomainUsage) > 0 {
		b.WriteString("\n--- Per-category usage ---\n")
		cats := make([]Category, 0, len(res.Metrics.DomainUsage))
		for cat := range res.Metrics.DomainUsage {
			cats = append(cats, cat)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, cat := range cats {
			u := res.Metrics.DomainUsage[cat]
			fmt.Fprintf(&b, "%-14s %2d items %5d chars\n", cat, u.Items, u.Chars)
		}
	}

	if len(res.Included) > 0 {
		b.WriteString("\n--- Included ---\n")
		for _, it := range res.Included {
			fmt.Fprintf(&b, "[%3d] %-14s %s\n", it.Score, it.Category, snippet(it.Content, 60))
		}
	}

	if len(res.Excluded) > 0 {
		b.WriteString("\n--- Exclusions by reason ---\n")
		summary := ExclusionSummary(res.Excluded)
		reasons := make([]ReasonCode, 0, len(summary))
		for r := range summary {
			reasons = append(reasons, r)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, r := range reasons {
			fmt.Fprintf(&b, "%-28s %d\n", r, summary[r])
		}
	}

	return b.String()
}

// snippet collapses whitespace and truncates to max runes, never
// splitting a multi-byte character.
func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
