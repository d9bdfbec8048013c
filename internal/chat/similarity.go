package chat

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	trailingPunct = regexp.MustCompile(`[?.!]+$`)
)

// NormalizeQuery lowercases, collapses whitespace and strips trailing
// punctuation so near-identical phrasings hash to the same cache key.
func NormalizeQuery(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	normalized = trailingPunct.ReplaceAllString(normalized, "")
	return normalized
}

// Jaccard computes keyword-set similarity between two queries: the size of
// the word intersection over the size of the union, in [0, 1].
func Jaccard(a, b string) float64 {
	wordsA := tokenSet(NormalizeQuery(a))
	wordsB := tokenSet(NormalizeQuery(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
