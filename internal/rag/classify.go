package rag

import "strings"

// ambiguousStarters are interrogative words that, opening a very short
// question, signal the question lacks enough detail to retrieve against.
var ambiguousStarters = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "who": {},
}

// broadKeywords mark questions that ask for exhaustive coverage rather
// than a specific answer.
var broadKeywords = []string{"all", "every", "list all", "everything about"}

const ambiguousWordLimit = 5

// isAmbiguous reports whether a question is too vague for grounded
// retrieval: fewer than five words and opening with a bare
// interrogative. Asking for clarification is cheaper than guessing.
func isAmbiguous(question string) bool {
	words := strings.Fields(question)
	if len(words) == 0 || len(words) >= ambiguousWordLimit {
		return false
	}
	_, ok := ambiguousStarters[strings.ToLower(words[0])]
	return ok
}

// isBroad reports whether a question asks for exhaustive coverage.
// Broad questions get a section summary instead of a generated answer.
func isBroad(question string) bool {
	lower := strings.ToLower(question)
	for _, keyword := range broadKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
