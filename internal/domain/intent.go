package domain

import "strings"

// Intent is the structured interpretation of a free-text query.
// Produced once per query by the extractor and never mutated afterward.
type Intent struct {
	Query       string   `json:"query"`
	Category    string   `json:"category,omitempty"`
	Occasion    string   `json:"occasion,omitempty"`
	Style       string   `json:"style,omitempty"`
	PriceMin    *float64 `json:"priceMin,omitempty"`
	PriceMax    *float64 `json:"priceMax,omitempty"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"-"`
	Refinements []string `json:"-"`

	// Degraded marks a fallback signal: the service was unreachable or the
	// confidence fell below the configured floor. Downstream policy decides
	// whether to run baseline retrieval or fail.
	Degraded bool `json:"-"`
}

// DegradedIntent builds the baseline interpretation used when the
// language-understanding path is unavailable: the raw query is the only filter.
func DegradedIntent(query string) Intent {
	return Intent{Query: query, Confidence: 0, Degraded: true}
}

// ClampConfidence bounds c to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Terms returns the lowercased scoring terms: structured fields first, then
// the query words. Used by the ranker for semantic alignment.
func (i Intent) Terms() []string {
	var terms []string
	for _, t := range []string{i.Category, i.Occasion, i.Style} {
		if t != "" {
			terms = append(terms, strings.ToLower(t))
		}
	}
	for _, w := range strings.Fields(strings.ToLower(i.Query)) {
		terms = append(terms, w)
	}
	return terms
}

// ConstraintCount returns how many structured constraints were extracted.
func (i Intent) ConstraintCount() int {
	n := 0
	for _, t := range []string{i.Category, i.Occasion, i.Style} {
		if t != "" {
			n++
		}
	}
	if i.PriceMin != nil || i.PriceMax != nil {
		n++
	}
	return n
}
