package sources

import "strings"

// Score ranks how well title matches query. The tiers are fixed: exact 1.0,
// prefix 0.9, substring 0.7, title contained in query 0.6, otherwise the share
// of query tokens present in the title capped at 0.5, with a 0.1 floor.
func Score(query, title string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(title))
	if q == "" || t == "" {
		return 0.1
	}

	switch {
	case q == t:
		return 1.0
	case strings.HasPrefix(t, q):
		return 0.9
	case strings.Contains(t, q):
		return 0.7
	case strings.Contains(q, t):
		return 0.6
	}

	queryTokens := strings.Fields(q)
	titleTokens := make(map[string]bool)
	for _, tok := range strings.Fields(t) {
		titleTokens[tok] = true
	}
	matched := 0
	for _, tok := range queryTokens {
		if titleTokens[tok] {
			matched++
		}
	}
	if matched == 0 {
		return 0.1
	}
	ratio := float64(matched) / float64(len(queryTokens))
	if ratio > 0.5 {
		ratio = 0.5
	}
	if ratio < 0.1 {
		return 0.1
	}
	return ratio
}
