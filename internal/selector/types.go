// Package selector assembles a bounded, ranked, fully accounted subset of
// candidate memory items for injection into an LLM prompt. Scoring and
// admission are deterministic: given the same candidates, context, and
// budget, two calls produce the same selection in the same order.
package selector

import "time"

// Category tags a memory item with its domain.
type Category string

// Known categories. The admission algorithm itself is category-agnostic;
// adding a category is a data change in the lookup tables, not a code change.
const (
	CategoryHealth        Category = "health"
	CategoryPersonal      Category = "personal"
	CategoryRelationships Category = "relationships"
	CategoryPreferences   Category = "preferences"
	CategoryConversation  Category = "conversation"
	CategoryEvents        Category = "events"
	CategoryTasks         Category = "tasks"
)

// Categories lists all known categories in stable order.
var Categories = []Category{
	CategoryHealth,
	CategoryPersonal,
	CategoryRelationships,
	CategoryPreferences,
	CategoryConversation,
	CategoryEvents,
	CategoryTasks,
}

// Source records how a memory item was captured.
type Source string

const (
	SourceVoice  Source = "voice"
	SourceText   Source = "text"
	SourceSystem Source = "system"
)

// Role is the access role of the viewer a selection is assembled for.
type Role string

const (
	RoleOwner     Role = "owner"     // unrestricted
	RoleCaregiver Role = "caregiver" // partial access to sensitive content
	RoleAssistant Role = "assistant" // no sensitivity clearance
)

// CandidateItem is one memory fragment offered for selection. Candidates
// are supplied per call by the caller and never mutated by the engine.
type CandidateItem struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Source     Source    `json:"source"`
	Content    string    `json:"content"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
	Importance int       `json:"importance"` // 0-100, externally assigned
}

// IDSet is a set of candidate item ids.
type IDSet map[string]bool

// NewIDSet builds an IDSet from the given ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// ScoringContext carries everything about the current turn that scoring
// depends on. CurrentTime is explicit so recency is never read from the
// wall clock, which would break determinism.
type ScoringContext struct {
	Intent      Intent    `json:"intent"`
	Domain      Domain    `json:"domain"` // empty = no explicit domain filter
	Role        Role      `json:"role"`
	Pinned      IDSet     `json:"pinned,omitempty"`
	Reused      IDSet     `json:"reused,omitempty"`
	Corrected   IDSet     `json:"corrected,omitempty"`
	Dismissed   IDSet     `json:"dismissed,omitempty"`
	CurrentTime time.Time `json:"current_time"`
}

// Intent is the primary conversational intent tag for the current turn.
type Intent string

const (
	IntentHealth    Intent = "health"
	IntentPlanning  Intent = "planning"
	IntentEmotional Intent = "emotional"
	IntentRecall    Intent = "recall"
	IntentGeneral   Intent = "general"
)

// Domain is an optional explicit topical filter supplied by the caller.
type Domain string

const (
	DomainHealth   Domain = "health"
	DomainFamily   Domain = "family"
	DomainSchedule Domain = "schedule"
	DomainDaily    Domain = "daily"
)

// RelevanceFactors breaks a relevance score into its six bounded
// components. Each factor is capped at its declared maximum; only
// reinforcement may go below zero before the total clamp.
type RelevanceFactors struct {
	IntentMatch   int `json:"intent_match"`
	DomainMatch   int `json:"domain_match"`
	Recency       int `json:"recency"`
	Confidence    int `json:"confidence"`
	Reinforcement int `json:"reinforcement"`
	RoleFit       int `json:"role_fit"`
}

// Per-factor maximum weights. They sum to 100, so an item that maxes
// every factor scores exactly 100 before clamping.
const (
	MaxIntentMatch   = 25
	MaxDomainMatch   = 20
	MaxRecency       = 15
	MaxConfidence    = 20
	MaxReinforcement = 10
	MaxRoleFit       = 10
)

// Total sums the six factors without clamping.
func (f RelevanceFactors) Total() int {
	return f.IntentMatch + f.DomainMatch + f.Recency + f.Confidence + f.Reinforcement + f.RoleFit
}

// Decision is the scorer's provisional verdict for a single item,
// independent of every other candidate.
type Decision string

const (
	DecisionInclude      Decision = "include"
	DecisionDeprioritize Decision = "deprioritize"
	DecisionExclude      Decision = "exclude"
)

// ReasonCode is the closed enum of exclusion reasons.
type ReasonCode string

const (
	ReasonMalformedItem    ReasonCode = "malformed_item"
	ReasonRoleRestricted   ReasonCode = "role_restricted"
	ReasonBelowRelevance   ReasonCode = "below_relevance_threshold"
	ReasonBelowConfidence  ReasonCode = "below_confidence_threshold"
	ReasonSensitivityBar   ReasonCode = "sensitivity_threshold"
	ReasonDomainItemCap    ReasonCode = "domain_item_cap"
	ReasonDomainCharCap    ReasonCode = "domain_char_cap"
	ReasonTotalItemLimit   ReasonCode = "total_item_limit"
	ReasonTotalCharBudget  ReasonCode = "total_char_budget"
	ReasonTopicSaturated   ReasonCode = "topic_saturated"
	ReasonRedundantContent ReasonCode = "redundant_content"
)

// ScoredItem is a candidate plus everything the scorer derived from it.
type ScoredItem struct {
	CandidateItem

	Score       int               `json:"score"` // 0-100
	Factors     RelevanceFactors  `json:"factors"`
	Confidence  float64           `json:"confidence"` // 0-1, gates minConfidence categories
	Sensitivity []SensitivityFlag `json:"sensitivity,omitempty"`
	Decision    Decision          `json:"decision"`

	// Set only when Decision is exclude.
	Reason      ReasonCode `json:"reason,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
}

// ExclusionRecord accounts for one candidate that did not make the cut.
// Every excluded candidate gets exactly one record; nothing is dropped
// silently.
type ExclusionRecord struct {
	ItemID      string     `json:"item_id"`
	Reason      ReasonCode `json:"reason"`
	Explanation string     `json:"explanation"`
}

// CategoryUsage counts what one category consumed of the budget.
type CategoryUsage struct {
	Items int `json:"items"`
	Chars int `json:"chars"`
}

// Metrics aggregates a selection run. ProcessingTimeMs is the only
// wall-clock-derived field; everything else is a pure function of the
// inputs.
type Metrics struct {
	TotalItems         int                        `json:"total_items"`
	TotalChars         int                        `json:"total_chars"`
	DomainUsage        map[Category]CategoryUsage `json:"domain_usage"`
	DiversityScore     float64                    `json:"diversity_score"`
	ExcludedCount      int                        `json:"excluded_count"`
	AvgRelevanceScore  float64                    `json:"avg_relevance_score"`
	AvgConfidenceScore float64                    `json:"avg_confidence_score"`
	ProcessingTimeMs   float64                    `json:"processing_time_ms"`
	BudgetUtilization  float64                    `json:"budget_utilization"`
}

// SelectionResult is the complete, fully accounted outcome of one
// selection run.
type SelectionResult struct {
	Included []ScoredItem      `json:"included"`
	Excluded []ExclusionRecord `json:"excluded"`
	Metrics  Metrics           `json:"metrics"`
}
