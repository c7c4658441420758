package heuristic

import (
	"regexp"
	"strings"
)

var (
	nonAlphaNumRE = regexp.MustCompile(`[^a-z0-9]+`)
	wordRE        = regexp.MustCompile(`[\p{L}\p{N}]+(?:['\-][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)
)

// rougeTokens lowercases text, replaces non-alphanumerics with spaces and
// optionally stems tokens longer than three characters, the same way the
// reference rouge-score package tokenizes.
func rougeTokens(text string, useStemmer bool) []string {
	text = nonAlphaNumRE.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, tok := range fields {
		if useStemmer && len(tok) > 3 {
			tok = stem(tok)
		}
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// wordTokens splits lowercased text into words and punctuation marks.
func wordTokens(text string) []string {
	return wordRE.FindAllString(strings.ToLower(text), -1)
}
