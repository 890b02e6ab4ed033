package rag

import (
	"fmt"
	"math"
	"strings"
)

// confidenceSampleSize is how many top chunks feed the confidence mean.
const confidenceSampleSize = 5

// toCitations projects retrieved chunks into user-facing citations,
// preserving input order (already score-descending). Missing optional
// metadata stays absent rather than producing an error.
func toCitations(chunks []RetrievedChunk) []Citation {
	citations := make([]Citation, 0, len(chunks))
	for _, chunk := range chunks {
		section := chunk.Heading
		if section == "" {
			section = "Unknown Section"
		}
		url := chunk.NavigationURL
		if url == "" {
			url = "#"
		}
		citations = append(citations, Citation{
			Section:   section,
			URL:       url,
			Score:     chunk.Score,
			ModuleID:  chunk.ModuleID,
			ChapterID: chunk.ChapterID,
		})
	}
	return citations
}

// confidence aggregates retrieval scores into a single number: the mean
// score of at most the first five chunks, rounded to two decimals.
// An empty chunk set yields exactly 0.0, signalling "no grounding".
func confidence(chunks []RetrievedChunk) float64 {
	if len(chunks) == 0 {
		return 0.0
	}

	limit := min(len(chunks), confidenceSampleSize)
	var sum float64
	for _, chunk := range chunks[:limit] {
		sum += chunk.Score
	}
	mean := sum / float64(limit)
	return math.Round(mean*100) / 100
}

// formatCitations renders citations as numbered display lines, one per
// citation.
func formatCitations(citations []Citation) string {
	if len(citations) == 0 {
		return "No citations available"
	}

	lines := make([]string, 0, len(citations))
	for i, citation := range citations {
		moduleText := ""
		if citation.ModuleID != "" {
			moduleText = fmt.Sprintf("Module: %s", citation.ModuleID)
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s, Relevance: %.2f)", i+1, citation.Section, moduleText, citation.Score))
	}
	return strings.Join(lines, "\n")
}
