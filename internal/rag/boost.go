package rag

import (
	"sort"
	"strings"
)

const (
	defaultBoostFactor = 2.0
	// Context shorter than this carries too little signal to match on.
	minContextLen = 10
	// Long contexts are additionally matched fragment-by-fragment.
	fragmentMatchThreshold = 50
	minFragmentLen         = 20
)

// boostByContext re-ranks retrieved candidates by boosting chunks whose
// text overlaps the student's highlighted context. Matching chunks get
// score*boostFactor clamped to 1.0; non-matching chunks are unchanged.
// The re-sort is stable, so equal scores keep their retrieval order.
// Boosting can legitimately invert rank order: a 0.75 chunk that
// matches the highlight outranks a non-matching 0.90 chunk.
func boostByContext(candidates []RetrievedChunk, context string, boostFactor float64, topK int) []RetrievedChunk {
	boosted := make([]RetrievedChunk, len(candidates))
	copy(boosted, candidates)

	contextLower := strings.ToLower(strings.TrimSpace(context))
	for i := range boosted {
		if matchesContext(strings.ToLower(boosted[i].Text), contextLower) {
			boosted[i].Score = min(boosted[i].Score*boostFactor, 1.0)
		}
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].Score > boosted[j].Score
	})

	if len(boosted) > topK {
		boosted = boosted[:topK]
	}
	return boosted
}

// matchesContext reports whether a chunk overlaps the highlighted
// context. Both inputs must already be lowercased. The match is a
// heuristic: direct substring first, then, for long contexts,
// sentence fragments split on '.' that are longer than 20 characters.
func matchesContext(chunkText, context string) bool {
	if len(context) < minContextLen {
		return false
	}

	if strings.Contains(chunkText, context) {
		return true
	}

	if len(context) > fragmentMatchThreshold {
		for _, fragment := range strings.Split(context, ".") {
			fragment = strings.TrimSpace(fragment)
			if len(fragment) > minFragmentLen && strings.Contains(chunkText, fragment) {
				return true
			}
		}
	}

	return false
}

// contextSummary truncates highlighted context for log output, cutting
// at a word boundary.
func contextSummary(context string, maxLen int) string {
	if len(context) <= maxLen {
		return context
	}
	truncated := context[:maxLen]
	if i := strings.LastIndex(truncated, " "); i > 0 {
		truncated = truncated[:i]
	}
	return truncated + "..."
}
