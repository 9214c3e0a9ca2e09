package selector

import "fmt"

// CategoryBudget caps what one category may consume of a selection.
type CategoryBudget struct {
	MaxItems          int     `json:"max_items"`
	MaxChars          int     `json:"max_chars"`
	MinRelevanceScore int     `json:"min_relevance_score"`
	MinConfidence     float64 `json:"min_confidence"`
}

// BudgetConfig holds every knob of the admission algorithm. A config is
// validated once, up front; selection never clamps or repairs it.
type BudgetConfig struct {
	Categories map[Category]CategoryBudget `json:"categories"`

	TotalItemLimit                int     `json:"total_item_limit"`
	TotalBudgetChars              int     `json:"total_budget_chars"`
	RedundancySimilarityThreshold float64 `json:"redundancy_similarity_threshold"`
	TopicSaturationCap            int     `json:"topic_saturation_cap"`

	// Identity-bearing categories are exempt from topic saturation so
	// identity facts are never starved by a chatty topic.
	IdentityExemptCategories map[Category]bool `json:"identity_exempt_categories"`

	// Decision thresholds applied by the scorer.
	DeprioritizeThreshold int `json:"deprioritize_threshold"`
	IncludeThreshold      int `json:"include_threshold"`
	ElevatedThreshold     int `json:"elevated_threshold"`
}

// DefaultBudget returns the process-wide default configuration. Callers
// that need different caps build their own BudgetConfig and validate it
// through New or UpdateConfig.
func DefaultBudget() BudgetConfig {
	return BudgetConfig{
		Categories: map[Category]CategoryBudget{
			CategoryHealth:        {MaxItems: 4, MaxChars: 2000, MinRelevanceScore: 30, MinConfidence: 0.5},
			CategoryPersonal:      {MaxItems: 6, MaxChars: 3000, MinRelevanceScore: 20, MinConfidence: 0.3},
			CategoryRelationships: {MaxItems: 5, MaxChars: 2500, MinRelevanceScore: 25, MinConfidence: 0.3},
			CategoryPreferences:   {MaxItems: 4, MaxChars: 1500, MinRelevanceScore: 20, MinConfidence: 0.3},
			CategoryConversation:  {MaxItems: 3, MaxChars: 1500, MinRelevanceScore: 35, MinConfidence: 0.4},
			CategoryEvents:        {MaxItems: 4, MaxChars: 2000, MinRelevanceScore: 25, MinConfidence: 0.4},
			CategoryTasks:         {MaxItems: 4, MaxChars: 1600, MinRelevanceScore: 25, MinConfidence: 0.4},
		},
		TotalItemLimit:                15,
		TotalBudgetChars:              8000,
		RedundancySimilarityThreshold: 0.85,
		TopicSaturationCap:            2,
		IdentityExemptCategories: map[Category]bool{
			CategoryPersonal:      true,
			CategoryRelationships: true,
		},
		DeprioritizeThreshold: 25,
		IncludeThreshold:      40,
		ElevatedThreshold:     60,
	}
}

// ConfigError reports an invalid BudgetConfig. Configuration errors are
// fatal: they surface at construction or update time and are never
// silently clamped.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid budget config: %s: %s", e.Field, e.Reason)
}

func configErrf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every cap and threshold. It returns a *ConfigError
// describing the first problem found, or nil.
func (c BudgetConfig) Validate() error {
	if len(c.Categories) == 0 {
		return configErrf("categories", "at least one category budget required")
	}
	for _, cat := range Categories {
		cb, ok := c.Categories[cat]
		if !ok {
			continue
		}
		field := "categories." + string(cat)
		if cb.MaxItems < 0 {
			return configErrf(field+".max_items", "negative cap %d", cb.MaxItems)
		}
		if cb.MaxChars < 0 {
			return configErrf(field+".max_chars", "negative cap %d", cb.MaxChars)
		}
		if cb.MinRelevanceScore < 0 || cb.MinRelevanceScore > 100 {
			return configErrf(field+".min_relevance_score", "%d outside [0,100]", cb.MinRelevanceScore)
		}
		if cb.MinConfidence < 0 || cb.MinConfidence > 1 {
			return configErrf(field+".min_confidence", "%.2f outside [0,1]", cb.MinConfidence)
		}
	}
	for cat := range c.Categories {
		if !knownCategory(cat) {
			return configErrf("categories", "unknown category %q", cat)
		}
	}
	if c.TotalItemLimit <= 0 {
		return configErrf("total_item_limit", "must be positive, got %d", c.TotalItemLimit)
	}
	if c.TotalBudgetChars <= 0 {
		return configErrf("total_budget_chars", "must be positive, got %d", c.TotalBudgetChars)
	}
	if c.RedundancySimilarityThreshold <= 0 || c.RedundancySimilarityThreshold > 1 {
		return configErrf("redundancy_similarity_threshold", "%.2f outside (0,1]", c.RedundancySimilarityThreshold)
	}
	if c.TopicSaturationCap <= 0 {
		return configErrf("topic_saturation_cap", "must be positive, got %d", c.TopicSaturationCap)
	}
	for cat := range c.IdentityExemptCategories {
		if !knownCategory(cat) {
			return configErrf("identity_exempt_categories", "unknown category %q", cat)
		}
	}
	if c.DeprioritizeThreshold < 0 || c.DeprioritizeThreshold > 100 {
		return configErrf("deprioritize_threshold", "%d outside [0,100]", c.DeprioritizeThreshold)
	}
	if c.IncludeThreshold < c.DeprioritizeThreshold {
		return configErrf("include_threshold", "%d below deprioritize threshold %d", c.IncludeThreshold, c.DeprioritizeThreshold)
	}
	if c.ElevatedThreshold < c.IncludeThreshold {
		return configErrf("elevated_threshold", "%d below include threshold %d", c.ElevatedThreshold, c.IncludeThreshold)
	}
	if c.ElevatedThreshold > 100 {
		return configErrf("elevated_threshold", "%d outside [0,100]", c.ElevatedThreshold)
	}
	return nil
}

// clone deep-copies the config so a snapshot taken at the start of a
// selection can never observe a concurrent update half-applied.
func (c BudgetConfig) clone() BudgetConfig {
	out := c
	out.Categories = make(map[Category]CategoryBudget, len(c.Categories))
	for k, v := range c.Categories {
		out.Categories[k] = v
	}
	out.IdentityExemptCategories = make(map[Category]bool, len(c.IdentityExemptCategories))
	for k, v := range c.IdentityExemptCategories {
		out.IdentityExemptCategories[k] = v
	}
	return out
}

func knownCategory(cat Category) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}
