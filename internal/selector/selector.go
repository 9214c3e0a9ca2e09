package selector

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Selector scores candidates and admits them under budget. A host
// application constructs one Selector at startup and shares it across
// request workers; per-call scoring is lock-free, and the live config is
// snapshotted at the start of each call so a concurrent UpdateConfig is
// never observed half-applied.
type Selector struct {
	mu    sync.RWMutex
	cfg   BudgetConfig
	trace *Trace
}

// New creates a Selector with the given budget. Invalid configuration
// fails fast with a *ConfigError.
func New(cfg BudgetConfig) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Selector{cfg: cfg.clone(), trace: NewTrace(DefaultTraceCapacity)}, nil
}

// NewDefault creates a Selector with the default budget.
func NewDefault() *Selector {
	s, err := New(DefaultBudget())
	if err != nil {
		panic(err) // default budget is always valid
	}
	return s
}

// Config returns a snapshot of the live configuration.
func (s *Selector) Config() BudgetConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// UpdateConfig validates and swaps the live configuration. Selections
// already in flight keep the snapshot they started with.
func (s *Selector) UpdateConfig(cfg BudgetConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg.clone()
	s.mu.Unlock()
	return nil
}

// Trace exposes the bounded run history.
func (s *Selector) Trace() *Trace {
	return s.trace
}

// SetTraceCapacity resizes the run history ring.
func (s *Selector) SetTraceCapacity(capacity int) {
	s.trace.SetCapacity(capacity)
}

// SelectContext scores every candidate, admits the best under budget,
// and returns a fully accounted result: every input id lands in either
// Included or Excluded, never both, never neither. The run is recorded
// in the trace with the given metadata.
func (s *Selector) SelectContext(candidates []CandidateItem, quality float64, sctx ScoringContext, meta Meta) SelectionResult {
	return s.SelectRun(candidates, quality, sctx, meta).Result
}

// SelectRun is SelectContext plus the recorded trace entry, for callers
// that persist runs and need the run id.
func (s *Selector) SelectRun(candidates []CandidateItem, quality float64, sctx ScoringContext, meta Meta) TraceEntry {
	start := time.Now()
	cfg := s.Config()

	included, excluded := selectUnderBudget(candidates, quality, sctx, cfg)

	res := SelectionResult{
		Included: included,
		Excluded: excluded,
		Metrics:  computeMetrics(included, excluded, cfg),
	}
	res.Metrics.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000

	return s.trace.Record(meta, res)
}

// selectUnderBudget is the deterministic core of a run: pure function of
// its arguments.
func selectUnderBudget(candidates []CandidateItem, quality float64, sctx ScoringContext, cfg BudgetConfig) ([]ScoredItem, []ExclusionRecord) {
	included := make([]ScoredItem, 0, len(candidates))
	excluded := make([]ExclusionRecord, 0)

	// Phase 1: score each candidate independently. Scorer-level
	// exclusions are final; the rest compete for budget.
	provisional := make([]ScoredItem, 0, len(candidates))
	for _, cand := range candidates {
		scored := Score(cand, quality, sctx, cfg)
		if scored.Decision == DecisionExclude {
			id := scored.ID
			if id == "" {
				id = "(missing id)"
			}
			excluded = append(excluded, ExclusionRecord{
				ItemID:      id,
				Reason:      scored.Reason,
				Explanation: scored.Explanation,
			})
			continue
		}
		provisional = append(provisional, scored)
	}

	// Phase 2: total order. Include-decision items outrank deprioritized
	// ones, then score descending; ties break on ascending id so the
	// order never depends on input arrangement.
	sort.Slice(provisional, func(i, j int) bool {
		a, b := provisional[i], provisional[j]
		if a.Decision != b.Decision {
			return a.Decision == DecisionInclude
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID < b.ID
	})

	// Phase 3: one greedy pass. Checks run in fixed order and the first
	// failed check names the exclusion reason; the item is never
	// re-evaluated against later checks.
	totalItems := 0
	totalChars := 0
	catItems := make(map[Category]int)
	catChars := make(map[Category]int)
	topicCounts := make(map[string]int)

	for _, item := range provisional {
		chars := len(item.Content)
		cb, hasBudget := cfg.Categories[item.Category]

		if rec, blocked := admitCheck(item, chars, cb, hasBudget, cfg, totalItems, totalChars, catItems, catChars, topicCounts, included); blocked {
			excluded = append(excluded, rec)
			continue
		}

		included = append(included, item)
		totalItems++
		totalChars += chars
		catItems[item.Category]++
		catChars[item.Category] += chars
		if topic := ExtractTopic(item.Content); topic != "" {
			topicCounts[topic]++
		}
	}

	return included, excluded
}

// admitCheck runs the fixed admission check sequence for one item.
func admitCheck(item ScoredItem, chars int, cb CategoryBudget, hasBudget bool, cfg BudgetConfig,
	totalItems, totalChars int, catItems, catChars map[Category]int, topicCounts map[string]int,
	admitted []ScoredItem) (ExclusionRecord, bool) {

	reject := func(reason ReasonCode, explanation string) (ExclusionRecord, bool) {
		return ExclusionRecord{ItemID: item.ID, Reason: reason, Explanation: explanation}, true
	}

	// (a) category item cap
	if hasBudget && catItems[item.Category] >= cb.MaxItems {
		return reject(ReasonDomainItemCap,
			fmt.Sprintf("category %q item cap %d reached", item.Category, cb.MaxItems))
	}
	// (b) category char cap
	if hasBudget && catChars[item.Category]+chars > cb.MaxChars {
		return reject(ReasonDomainCharCap,
			fmt.Sprintf("category %q char cap %d would be exceeded", item.Category, cb.MaxChars))
	}
	// (c) global item cap
	if totalItems >= cfg.TotalItemLimit {
		return reject(ReasonTotalItemLimit,
			fmt.Sprintf("total item limit %d reached", cfg.TotalItemLimit))
	}
	// (d) global char cap
	if totalChars+chars > cfg.TotalBudgetChars {
		return reject(ReasonTotalCharBudget,
			fmt.Sprintf("total char budget %d would be exceeded", cfg.TotalBudgetChars))
	}
	// (e) topic saturation, skipped for identity-bearing categories so
	// identity facts are never starved by a chatty topic
	if !cfg.IdentityExemptCategories[item.Category] {
		if topic := ExtractTopic(item.Content); topic != "" && topicCounts[topic] >= cfg.TopicSaturationCap {
			return reject(ReasonTopicSaturated,
				fmt.Sprintf("topic %q already has %d items", topic, topicCounts[topic]))
		}
	}
	// (f) redundancy against already-admitted items in the same category
	for _, kept := range admitted {
		if kept.Category != item.Category {
			continue
		}
		if sim := ContentSimilarity(kept.Content, item.Content); sim >= cfg.RedundancySimilarityThreshold {
			return reject(ReasonRedundantContent,
				fmt.Sprintf("%.0f%% similar to already included item %s", sim*100, kept.ID))
		}
	}

	return ExclusionRecord{}, false
}

func computeMetrics(included []ScoredItem, excluded []ExclusionRecord, cfg BudgetConfig) Metrics {
	m := Metrics{
		TotalItems:     len(included),
		ExcludedCount:  len(excluded),
		DomainUsage:    make(map[Category]CategoryUsage),
		DiversityScore: Diversity(included),
	}

	var scoreSum, confSum float64
	for _, it := range included {
		chars := len(it.Content)
		m.TotalChars += chars
		u := m.DomainUsage[it.Category]
		u.Items++
		u.Chars += chars
		m.DomainUsage[it.Category] = u
		scoreSum += float64(it.Score)
		confSum += it.Confidence
	}
	if len(included) > 0 {
		m.AvgRelevanceScore = scoreSum / float64(len(included))
		m.AvgConfidenceScore = confSum / float64(len(included))
	}
	if cfg.TotalBudgetChars > 0 {
		m.BudgetUtilization = float64(m.TotalChars) / float64(cfg.TotalBudgetChars)
	}
	return m
}
