package chunk

import (
	"regexp"
	"strings"
)

// tokenRegex matches maximal runs of Unicode letters and digits. Hangul,
// Latin, and digits all count; punctuation and whitespace separate tokens.
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize splits text into tokens, preserving original case.
func Tokenize(text string) []string {
	return tokenRegex.FindAllString(text, -1)
}

// CountTokens returns the number of tokens in text.
func CountTokens(text string) int {
	return len(tokenRegex.FindAllString(text, -1))
}

// NormalizeTerms tokenizes query text and returns the distinct terms,
// lowercased, in first-seen order.
func NormalizeTerms(text string) []string {
	raw := Tokenize(text)
	seen := make(map[string]bool, len(raw))
	terms := make([]string, 0, len(raw))
	for _, t := range raw {
		lower := strings.ToLower(t)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		terms = append(terms, lower)
	}
	return terms
}
