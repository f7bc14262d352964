package search

import (
	"strings"
	"unicode"
)

// classifyComplex thresholds. A complex query charges the stricter bucket.
const (
	complexRuneThreshold = 100
	complexWordThreshold = 12
	complexHintThreshold = 2
)

// structuredHints are query fragments that typically extract into constraints.
var structuredHints = []string{
	"under", "below", "less than", "over", "above", "between",
	"cheap", "budget", "luxury",
	"wedding", "party", "office", "work", "beach", "summer", "winter",
	"casual", "formal", "vintage", "modern",
}

// IsComplex deterministically classifies a raw query before extraction, so
// the stricter rate bucket is charged without depending on the AI call.
// Complex: long queries, or two or more structured constraint hints.
func IsComplex(query string) bool {
	if len([]rune(query)) > complexRuneThreshold {
		return true
	}
	lower := strings.ToLower(query)
	if len(strings.Fields(lower)) >= complexWordThreshold {
		return true
	}

	hints := 0
	for _, h := range structuredHints {
		if strings.Contains(lower, h) {
			hints++
		}
	}
	if containsDigit(lower) {
		hints++ // a number usually means a price bound
	}
	return hints >= complexHintThreshold
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
