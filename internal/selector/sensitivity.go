package selector

import "strings"

// SensitivityDomain tags content that matched one of the fixed
// sensitive-topic keyword sets.
type SensitivityDomain string

const (
	SensitivityMedical      SensitivityDomain = "medical"
	SensitivityEmotional    SensitivityDomain = "emotional"
	SensitivityFinancial    SensitivityDomain = "financial"
	SensitivityRelationship SensitivityDomain = "relationship"
	SensitivityLegal        SensitivityDomain = "legal"
)

// SensitivityFlag is one matched sensitivity domain. Medical and
// emotional matches raise the inclusion bar to the elevated threshold;
// the other domains flag without raising it.
type SensitivityFlag struct {
	Type                      SensitivityDomain `json:"type"`
	MatchedKeywords           []string          `json:"matched_keywords"`
	RequiresElevatedThreshold bool              `json:"requires_elevated_threshold"`
}

// sensitivityDomain pairs a domain with its keyword set. This is a
// deliberately simple, auditable classifier: literal case-insensitive
// keyword presence, no suppression heuristics, no model. Keyword lists
// mix languages because captured content does too.
type sensitivityDomain struct {
	domain   SensitivityDomain
	elevated bool
	keywords []string
}

// Domains are checked in fixed order and keywords in fixed order so the
// flag list is deterministic for a given text.
var sensitivityDomains = []sensitivityDomain{
	{
		domain:   SensitivityMedical,
		elevated: true,
		keywords: []string{
			"diagnosis", "diagnosed", "medication", "prescription",
			"doctor", "hospital", "surgery", "symptom", "illness",
			"cancer", "diabetes", "blood pressure", "chemotherapy",
			"médico", "enfermedad", "medicación", "krankheit",
		},
	},
	{
		domain:   SensitivityEmotional,
		elevated: true,
		keywords: []string{
			"anxious", "anxiety", "depressed", "depression", "grief",
			"grieving", "lonely", "loneliness", "overwhelmed", "panic",
			"hopeless", "crying", "ansiedad", "deprimido", "traurig",
		},
	},
	{
		domain:   SensitivityFinancial,
		elevated: false,
		keywords: []string{
			"debt", "loan", "mortgage", "bankruptcy", "salary",
			"savings", "overdue", "foreclosure", "deuda", "schulden",
		},
	},
	{
		domain:   SensitivityRelationship,
		elevated: false,
		keywords: []string{
			"divorce", "breakup", "broke up", "separation", "estranged",
			"affair", "custody", "argument", "divorcio", "scheidung",
		},
	},
	{
		domain:   SensitivityLegal,
		elevated: false,
		keywords: []string{
			"lawsuit", "lawyer", "attorney", "court", "subpoena",
			"custody", "arrested", "probation", "abogado", "anwalt",
		},
	},
}

// DetectSensitivity classifies text into sensitivity domains by keyword
// matching. Multiple domains may match the same text; all are reported.
// Returns nil when nothing matches.
func DetectSensitivity(text string) []SensitivityFlag {
	if text == "" {
		return nil
	}
	norm := normalizeForMatch(text)

	var flags []SensitivityFlag
	for _, d := range sensitivityDomains {
		var matched []string
		for _, kw := range d.keywords {
			if strings.Contains(norm, " "+kw+" ") {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			flags = append(flags, SensitivityFlag{
				Type:                      d.domain,
				MatchedKeywords:           matched,
				RequiresElevatedThreshold: d.elevated,
			})
		}
	}
	return flags
}

// requiresElevated reports whether any flag raises the inclusion bar.
func requiresElevated(flags []SensitivityFlag) bool {
	for _, f := range flags {
		if f.RequiresElevatedThreshold {
			return true
		}
	}
	return false
}

// normalizeForMatch lowercases text and collapses every non-letter,
// non-digit rune to a single space, padded so whole-word Contains checks
// work at the string edges. Multi-word keywords survive because their
// internal spaces normalize the same way.
func normalizeForMatch(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	prevSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127:
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	if !prevSpace {
		b.WriteByte(' ')
	}
	return b.String()
}
