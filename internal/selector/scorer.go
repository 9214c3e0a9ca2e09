package selector

import (
	"fmt"
	"time"
)

// intentAffinity maps a conversational intent to the categories it most
// wants surfaced. Primary gets full intent weight, secondary 60%, every
// other category 20%.
type intentAffinity struct {
	primary   Category
	secondary map[Category]bool
}

func catSet(cats ...Category) map[Category]bool {
	s := make(map[Category]bool, len(cats))
	for _, c := range cats {
		s[c] = true
	}
	return s
}

var intentAffinities = map[Intent]intentAffinity{
	IntentHealth:    {primary: CategoryHealth, secondary: catSet(CategoryPersonal, CategoryEvents)},
	IntentPlanning:  {primary: CategoryTasks, secondary: catSet(CategoryEvents, CategoryPreferences)},
	IntentEmotional: {primary: CategoryRelationships, secondary: catSet(CategoryPersonal, CategoryHealth)},
	IntentRecall:    {primary: CategoryConversation, secondary: catSet(CategoryEvents, CategoryTasks)},
	IntentGeneral:   {primary: CategoryPersonal, secondary: catSet(CategoryPreferences, CategoryConversation)},
}

// domainAffinities maps an explicit domain filter to per-category weight
// out of MaxDomainMatch. Categories absent from a domain's row score 0.
var domainAffinities = map[Domain]map[Category]int{
	DomainHealth: {
		CategoryHealth:   MaxDomainMatch,
		CategoryPersonal: 8,
		CategoryEvents:   6,
	},
	DomainFamily: {
		CategoryRelationships: MaxDomainMatch,
		CategoryPersonal:      10,
		CategoryEvents:        8,
	},
	DomainSchedule: {
		CategoryEvents:       MaxDomainMatch,
		CategoryTasks:        14,
		CategoryConversation: 4,
	},
	DomainDaily: {
		CategoryPreferences: MaxDomainMatch,
		CategoryPersonal:    10,
		CategoryTasks:       8,
	},
}

// confidenceBoosts gives identity-bearing categories a small edge over
// transient chatter in the confidence factor.
var confidenceBoosts = map[Category]int{
	CategoryPersonal:    3,
	CategoryHealth:      3,
	CategoryPreferences: 1,
}

// sourceReliability feeds the 0-1 confidence score used for per-category
// confidence gating. Voice capture is first-hand, text is near, system
// derivations are weakest.
var sourceReliability = map[Source]float64{
	SourceVoice:  1.0,
	SourceText:   0.8,
	SourceSystem: 0.5,
}

var sourceBoosts = map[Source]int{
	SourceVoice:  5,
	SourceText:   3,
	SourceSystem: 0,
}

// Score computes the full scored form of one candidate. It is a pure
// function of its arguments: no clock reads, no randomness, no state.
// quality is the upstream retrieval quality signal in [0,1].
func Score(item CandidateItem, quality float64, sctx ScoringContext, cfg BudgetConfig) ScoredItem {
	scored := ScoredItem{CandidateItem: item}

	if item.ID == "" || item.Content == "" {
		scored.Decision = DecisionExclude
		scored.Reason = ReasonMalformedItem
		scored.Explanation = "candidate missing id or content"
		return scored
	}

	scored.Sensitivity = DetectSensitivity(item.Content)
	roleForced := false

	f := RelevanceFactors{
		IntentMatch: intentMatch(item.Category, sctx.Intent),
		DomainMatch: domainMatch(item.Category, sctx.Domain),
		Recency:     recencyScore(sctx.CurrentTime.Sub(item.OccurredAt)),
		Confidence:  confidenceFactor(item),
	}
	f.Reinforcement = reinforcementScore(item.ID, sctx)
	f.RoleFit, roleForced = roleFit(sctx.Role, scored.Sensitivity)

	scored.Factors = f
	scored.Score = clampScore(f.Total())
	scored.Confidence = confidenceScore(item, quality)

	decide(&scored, roleForced, sctx.Role, cfg)
	return scored
}

func intentMatch(cat Category, intent Intent) int {
	aff, ok := intentAffinities[intent]
	if !ok {
		return MaxIntentMatch * 20 / 100
	}
	switch {
	case cat == aff.primary:
		return MaxIntentMatch
	case aff.secondary[cat]:
		return MaxIntentMatch * 60 / 100
	default:
		return MaxIntentMatch * 20 / 100
	}
}

func domainMatch(cat Category, domain Domain) int {
	if domain == "" {
		// No explicit filter: neutral half weight for everything.
		return MaxDomainMatch / 2
	}
	return domainAffinities[domain][cat]
}

// recencyScore is banded, not continuous: two items in the same band
// score identically regardless of exact age. A non-positive age (event
// clocked after current_time) lands in the freshest band.
func recencyScore(age time.Duration) int {
	switch {
	case age <= time.Hour:
		return MaxRecency
	case age <= 24*time.Hour:
		return 12
	case age <= 7*24*time.Hour:
		return 8
	default:
		return 3
	}
}

func confidenceFactor(item CandidateItem) int {
	score := 8
	score += sourceBoosts[item.Source]
	switch {
	case item.Importance >= 80:
		score += 4
	case item.Importance >= 50:
		score += 2
	}
	score += confidenceBoosts[item.Category]
	if score > MaxConfidence {
		score = MaxConfidence
	}
	return score
}

// confidenceScore blends the upstream quality signal with source
// reliability and importance into the 0-1 value gated by a category's
// MinConfidence.
func confidenceScore(item CandidateItem, quality float64) float64 {
	rel, ok := sourceReliability[item.Source]
	if !ok {
		rel = 0.5
	}
	imp := float64(item.Importance) / 100
	c := 0.6*quality + 0.25*rel + 0.15*imp
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// reinforcementScore combines user feedback additively. It is the only
// factor allowed below zero before the total clamp.
func reinforcementScore(id string, sctx ScoringContext) int {
	score := 0
	if sctx.Pinned[id] {
		score += MaxReinforcement
	}
	if sctx.Reused[id] {
		score += 5
	}
	if sctx.Corrected[id] {
		score += 3
	}
	if sctx.Dismissed[id] {
		score -= 15
	}
	if score > MaxReinforcement {
		score = MaxReinforcement
	}
	return score
}

// roleFit returns the role factor and whether the role forces a hard
// exclusion. Items with no sensitivity flags are visible to every role
// at full weight. Unknown roles are treated as the most restricted.
func roleFit(role Role, flags []SensitivityFlag) (int, bool) {
	if len(flags) == 0 {
		return MaxRoleFit, false
	}
	switch role {
	case RoleOwner:
		return MaxRoleFit, false
	case RoleCaregiver:
		return 6, false
	default:
		return 0, true
	}
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// decide assigns the provisional include/deprioritize/exclude verdict.
// Each exclusion path carries its own reason code so the audit trail
// distinguishes why an item fell out.
func decide(scored *ScoredItem, roleForced bool, role Role, cfg BudgetConfig) {
	cb := cfg.Categories[scored.Category]

	switch {
	case roleForced:
		scored.Decision = DecisionExclude
		scored.Reason = ReasonRoleRestricted
		scored.Explanation = fmt.Sprintf("role %q has no clearance for sensitive content", role)
	case scored.Score < cfg.DeprioritizeThreshold:
		scored.Decision = DecisionExclude
		scored.Reason = ReasonBelowRelevance
		scored.Explanation = fmt.Sprintf("score %d below threshold %d", scored.Score, cfg.DeprioritizeThreshold)
	case scored.Score < cb.MinRelevanceScore:
		scored.Decision = DecisionExclude
		scored.Reason = ReasonBelowRelevance
		scored.Explanation = fmt.Sprintf("score %d below category %q minimum %d", scored.Score, scored.Category, cb.MinRelevanceScore)
	case cb.MinConfidence > 0 && scored.Confidence < cb.MinConfidence:
		scored.Decision = DecisionExclude
		scored.Reason = ReasonBelowConfidence
		scored.Explanation = fmt.Sprintf("confidence %.2f below category %q minimum %.2f", scored.Confidence, scored.Category, cb.MinConfidence)
	case requiresElevated(scored.Sensitivity) && scored.Score < cfg.ElevatedThreshold:
		scored.Decision = DecisionExclude
		scored.Reason = ReasonSensitivityBar
		scored.Explanation = fmt.Sprintf("sensitive content needs score >= %d, got %d", cfg.ElevatedThreshold, scored.Score)
	case scored.Score < cfg.IncludeThreshold:
		scored.Decision = DecisionDeprioritize
	default:
		scored.Decision = DecisionInclude
	}
}
