package selector

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func sampleResult() SelectionResult {
	return SelectionResult{
		Included: []ScoredItem{
			{CandidateItem: CandidateItem{ID: "a", Category: CategoryHealth, Content: "walked today"}, Score: 82, Confidence: 0.8},
			{CandidateItem: CandidateItem{ID: "b", Category: CategoryPersonal, Content: "grew up in lisbon"}, Score: 74, Confidence: 0.7},
		},
		Excluded: []ExclusionRecord{
			{ItemID: "c", Reason: ReasonBelowRelevance, Explanation: "score 12 below threshold 25"},
			{ItemID: "d", Reason: ReasonBelowRelevance, Explanation: "score 20 below threshold 25"},
			{ItemID: "e", Reason: ReasonRedundantContent, Explanation: "91% similar to already included item a"},
		},
		Metrics: Metrics{
			TotalItems: 2, TotalChars: 29, ExcludedCount: 3,
			DomainUsage: map[Category]CategoryUsage{
				CategoryHealth:   {Items: 1, Chars: 12},
				CategoryPersonal: {Items: 1, Chars: 17},
			},
			AvgRelevanceScore: 78, AvgConfidenceScore: 0.75,
			DiversityScore: 0.9, BudgetUtilization: 0.004,
		},
	}
}

func TestTraceRecordAndLogs(t *testing.T) {
	tr := NewTrace(3)

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		entry := tr.Record(Meta{SessionID: "s1", Turn: i}, sampleResult())
		if entry.RunID == "" {
			t.Fatal("Record returned empty run id")
		}
		if ids[entry.RunID] {
			t.Fatalf("duplicate run id %s", entry.RunID)
		}
		ids[entry.RunID] = true
	}

	logs := tr.Logs(2)
	if len(logs) != 2 {
		t.Fatalf("Logs(2) returned %d entries", len(logs))
	}
	if logs[0].Meta.Turn != 2 || logs[1].Meta.Turn != 1 {
		t.Errorf("logs not most-recent-first: turns %d, %d", logs[0].Meta.Turn, logs[1].Meta.Turn)
	}
}

func TestTraceEvictsOldest(t *testing.T) {
	tr := NewTrace(2)

	for i := 0; i < 5; i++ {
		tr.Record(Meta{Turn: i}, sampleResult())
	}

	if tr.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tr.Len())
	}
	logs := tr.Logs(0)
	if logs[0].Meta.Turn != 4 || logs[1].Meta.Turn != 3 {
		t.Errorf("retained turns [%d %d], want [4 3]", logs[0].Meta.Turn, logs[1].Meta.Turn)
	}
}

func TestTraceDefaultCapacity(t *testing.T) {
	tr := NewTrace(0)
	for i := 0; i < DefaultTraceCapacity+10; i++ {
		tr.Record(Meta{Turn: i}, SelectionResult{})
	}
	if tr.Len() != DefaultTraceCapacity {
		t.Errorf("Len = %d, want %d", tr.Len(), DefaultTraceCapacity)
	}
}

func TestTraceSetCapacity(t *testing.T) {
	tr := NewTrace(0)
	for i := 0; i < DefaultTraceCapacity+10; i++ {
		tr.Record(Meta{Turn: i}, SelectionResult{})
	}

	// growing keeps everything retained and raises the ceiling
	tr.SetCapacity(DefaultTraceCapacity + 20)
	for i := 0; i < 15; i++ {
		tr.Record(Meta{}, SelectionResult{})
	}
	if got := tr.Len(); got != DefaultTraceCapacity+15 {
		t.Fatalf("Len after growing = %d, want %d", got, DefaultTraceCapacity+15)
	}

	// shrinking evicts the oldest immediately
	tr.SetCapacity(3)
	if got := tr.Len(); got != 3 {
		t.Fatalf("Len after shrinking = %d, want 3", got)
	}

	tr.SetCapacity(0)
	for i := 0; i < DefaultTraceCapacity+5; i++ {
		tr.Record(Meta{}, SelectionResult{})
	}
	if got := tr.Len(); got != DefaultTraceCapacity {
		t.Errorf("Len with fallback capacity = %d, want %d", got, DefaultTraceCapacity)
	}
}

func TestSnippetKeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("café au lait ", 10)

	got := snippet(long, 20)
	if !utf8.ValidString(got) {
		t.Fatalf("snippet produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 20 {
		t.Errorf("snippet has %d runes, want <= 20", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated snippet missing ellipsis: %q", got)
	}

	if got := snippet("café", 20); got != "café" {
		t.Errorf("short snippet = %q, want unchanged", got)
	}
}

func TestExclusionSummary(t *testing.T) {
	res := sampleResult()
	summary := ExclusionSummary(res.Excluded)

	if summary[ReasonBelowRelevance] != 2 {
		t.Errorf("below_relevance count = %d, want 2", summary[ReasonBelowRelevance])
	}
	if summary[ReasonRedundantContent] != 1 {
		t.Errorf("redundant count = %d, want 1", summary[ReasonRedundantContent])
	}
	if len(summary) != 2 {
		t.Errorf("summary has %d reasons, want 2", len(summary))
	}

	if got := ExclusionSummary(nil); len(got) != 0 {
		t.Errorf("empty summary has %d entries", len(got))
	}
}

func TestFormatSelectionDebug(t *testing.T) {
	out := FormatSelectionDebug(sampleResult())

	for _, want := range []string{
		"=== Selection Debug ===",
		"included: 2 items",
		"excluded: 3 items",
		"Per-category usage",
		"health",
		"personal",
		"Included",
		"walked today",
		"Exclusions by reason",
		string(ReasonBelowRelevance),
		string(ReasonRedundantContent),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q\n%s", want, out)
		}
	}
}

func TestFormatSelectionDebugEmptyRun(t *testing.T) {
	out := FormatSelectionDebug(SelectionResult{})
	if !strings.Contains(out, "included: 0 items") {
		t.Errorf("empty run report malformed:\n%s", out)
	}
	if strings.Contains(out, "--- Included ---") {
		t.Error("empty run should not render an included section")
	}
}
