package selector

import "strings"

// tokenize splits text into lowercase tokens, stripping punctuation.
// Single-char tokens are dropped as noise.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r > 127 {
			current.WriteRune(r)
		} else {
			if current.Len() > 1 {
				tokens = append(tokens, current.String())
			}
			current.Reset()
		}
	}
	if current.Len() > 1 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenize(text) {
		set[t] = true
	}
	return set
}

// ContentSimilarity computes token-set Jaccard similarity between two
// texts. Order-independent and symmetric: near-duplicate phrasings score
// high, distinct content scores low. Identical text is 1, disjoint 0.
func ContentSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		if strings.TrimSpace(a) == strings.TrimSpace(b) {
			return 1
		}
		return 0
	}
	return jaccard(setA, setB)
}

// stopwords excluded from topic extraction. Small on purpose: the goal
// is a coarse bucket, not linguistics.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "was": true, "are": true, "has": true, "had": true,
	"have": true, "not": true, "about": true, "from": true, "they": true,
	"their": true, "her": true, "his": true, "she": true, "him": true,
	"its": true, "were": true, "been": true, "will": true, "would": true,
	"there": true, "when": true, "what": true, "into": true, "your": true,
	"user": true, "said": true, "says": true, "also": true, "very": true,
	"today": true, "yesterday": true, "tomorrow": true,
}

// stem trims common English suffixes so "walking"/"walks"/"walked" bucket
// together. Crude by design; topics only need to be stable, not correct.
func stem(token string) string {
	for _, suffix := range []string{"ing", "ies", "ed", "es", "s"} {
		if strings.HasSuffix(token, suffix) && len(token)-len(suffix) >= 3 {
			return token[:len(token)-len(suffix)]
		}
	}
	return token
}

// ExtractTopic derives a coarse topic bucket for saturation capping:
// the most frequent stemmed non-stopword token, ties broken
// lexicographically. Deterministic and independent of input ordering.
// Returns "" when the text has no usable tokens.
func ExtractTopic(text string) string {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		if stopwords[tok] {
			continue
		}
		st := stem(tok)
		if len(st) < 3 {
			continue
		}
		counts[st]++
	}
	if len(counts) == 0 {
		return ""
	}

	best := ""
	bestCount := 0
	for st, n := range counts {
		if n > bestCount || (n == bestCount && st < best) {
			best = st
			bestCount = n
		}
	}
	return best
}
