package selector

// Diversity measures how spread out a finalized included set is:
// the mean pairwise Jaccard distance (1 - similarity) across all item
// pairs, in [0,1]. Purely observational — redundancy and topic
// saturation are enforced during admission, never from this number.
// Sets with fewer than two items are trivially diverse.
func Diversity(items []ScoredItem) float64 {
	if len(items) < 2 {
		return 1
	}

	sets := make([]map[string]bool, len(items))
	for i, it := range items {
		sets[i] = tokenSet(it.Content)
	}

	var total float64
	pairs := 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			total += 1 - jaccard(sets[i], sets[j])
			pairs++
		}
	}
	return total / float64(pairs)
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if b[t] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
