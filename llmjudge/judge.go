// Package llmjudge implements document-grounded factuality scorers and
// clinical extractors on top of a structured-output LLM.
package llmjudge

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// choiceScores maps the A-E verdict scale to [0,1].
var choiceScores = map[string]float64{
	"A": 1.0,
	"B": 0.75,
	"C": 0.5,
	"D": 0.25,
	"E": 0.0,
}

var choiceEnum = []string{"A", "B", "C", "D", "E"}

func stringField(resp map[string]interface{}, key string) (string, error) {
	v, ok := resp[key].(string)
	if !ok {
		return "", fmt.Errorf("failed to extract %s from structured response", key)
	}
	return v, nil
}

func numberField(resp map[string]interface{}, key string) (float64, error) {
	switch v := resp[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("failed to extract %s from structured response", key)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abstract returns the first line of a document, which lay-summarisation
// sources use for the article abstract.
func Abstract(document string) string {
	abstract, _, _ := strings.Cut(document, "\n")
	return abstract
}

// truncateChars keeps the first n characters of s. It never splits a
// multi-byte rune. n <= 0 keeps s whole.
func truncateChars(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
