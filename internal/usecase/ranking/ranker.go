// Package ranking scores and orders candidates against an intent or a
// reference product.
package ranking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/glowmart/aisearch/internal/domain"
)

// Weights combines the scoring signals. Alignment dominates so the total
// stays monotonic in semantic fit; the rest are business signals. Tunables.
type Weights struct {
	Alignment    float64
	PriceFit     float64
	Availability float64
	Freshness    float64
}

// DefaultWeights returns the production scoring mix.
func DefaultWeights() Weights {
	return Weights{Alignment: 0.55, PriceFit: 0.20, Availability: 0.15, Freshness: 0.10}
}

// Ranker produces deterministically ordered, [0,1]-scored product sequences.
type Ranker struct {
	weights Weights
	now     func() time.Time
}

// New creates a ranker.
func New(weights Weights) *Ranker {
	return &Ranker{weights: weights, now: time.Now}
}

// WithClock overrides the freshness time source. Test hook.
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	r.now = now
	return r
}

// Rank scores candidates against an intent, ordered by descending score with
// the fixed popularity/id tie-break. Preferences, when present, contribute a
// small affinity component inside the business signals.
func (r *Ranker) Rank(candidates []domain.Candidate, intent domain.Intent, prefs *domain.Preferences) []domain.RankedProduct {
	terms := intent.Terms()
	now := r.now()

	ranked := make([]domain.RankedProduct, 0, len(candidates))
	for _, c := range candidates {
		alignment := alignmentScore(c, terms)
		score := r.weights.Alignment*alignment +
			r.weights.PriceFit*priceFitScore(c.Price, intent.PriceMin, intent.PriceMax) +
			r.weights.Availability*availabilityScore(c, prefs) +
			r.weights.Freshness*freshnessScore(c.CreatedAt, now)

		ranked = append(ranked, domain.RankedProduct{
			Candidate:   c,
			Score:       clamp(score),
			MatchReason: matchReason(c, intent, alignment),
		})
	}

	sortRanked(ranked)
	return ranked
}

// PriceVariant restricts similar-product candidates by price relative to the
// reference product.
type PriceVariant string

// Price variants for "find similar".
const (
	PriceAny     PriceVariant = "any"
	PriceLower   PriceVariant = "lower"
	PriceSimilar PriceVariant = "similar"
)

// ParsePriceVariant normalizes a caller-supplied variant, defaulting to any.
func ParsePriceVariant(s string) (PriceVariant, error) {
	switch PriceVariant(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriceAny:
		return PriceAny, nil
	case PriceLower:
		return PriceLower, nil
	case PriceSimilar:
		return PriceSimilar, nil
	default:
		return "", domain.NewValidationError("INVALID_PRICE_VARIANT",
			fmt.Sprintf("priceVariant must be lower, similar or any, got %q", s))
	}
}

// similarPriceBand is the ±fraction around the reference price accepted by
// the "similar" variant.
const similarPriceBand = 0.25

// RankSimilar scores candidates against a reference product. The reference
// itself is excluded; the variant filters candidates by relative price.
func (r *Ranker) RankSimilar(candidates []domain.Candidate, ref domain.Candidate, variant PriceVariant) []domain.RankedProduct {
	terms := referenceTerms(ref)
	now := r.now()

	ranked := make([]domain.RankedProduct, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == ref.ID || !admitPrice(c.Price, ref.Price, variant) {
			continue
		}
		alignment := alignmentScore(c, terms)
		score := r.weights.Alignment*alignment +
			r.weights.PriceFit*relativePriceScore(c.Price, ref.Price) +
			r.weights.Availability*availabilityScore(c, nil) +
			r.weights.Freshness*freshnessScore(c.CreatedAt, now)

		reason := "Similar to " + ref.Name
		if variant == PriceLower {
			reason = "Like " + ref.Name + ", for less"
		}
		ranked = append(ranked, domain.RankedProduct{
			Candidate:   c,
			Score:       clamp(score),
			MatchReason: reason,
		})
	}

	sortRanked(ranked)
	return ranked
}

// RankBaseline orders candidates for the non-AI fallback path: keyword
// alignment against the raw query plus popularity, tagged with a generic
// match reason and no AI confidence.
func (r *Ranker) RankBaseline(candidates []domain.Candidate, query string) []domain.RankedProduct {
	terms := strings.Fields(strings.ToLower(query))

	ranked := make([]domain.RankedProduct, 0, len(candidates))
	maxPop := 1
	for _, c := range candidates {
		if c.Popularity > maxPop {
			maxPop = c.Popularity
		}
	}
	for _, c := range candidates {
		score := 0.6*alignmentScore(c, terms) + 0.4*float64(c.Popularity)/float64(maxPop)
		ranked = append(ranked, domain.RankedProduct{
			Candidate:   c,
			Score:       clamp(score),
			MatchReason: "Matches your search",
		})
	}

	sortRanked(ranked)
	return ranked
}

func sortRanked(ranked []domain.RankedProduct) {
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Less(ranked[j]) })
}

// referenceTerms derives scoring terms from a reference product: its
// category plus the words of its name.
func referenceTerms(ref domain.Candidate) []string {
	var terms []string
	if ref.Category != "" {
		terms = append(terms, strings.ToLower(ref.Category))
	}
	terms = append(terms, strings.Fields(strings.ToLower(ref.Name))...)
	return terms
}

// alignmentScore is the normalized overlap between the candidate's text and
// the scoring terms. Monotonic: more matched terms never lowers the score.
func alignmentScore(c domain.Candidate, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	haystack := strings.ToLower(c.Name + " " + c.Category)
	matched := 0
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func priceFitScore(price float64, min, max *float64) float64 {
	if min == nil && max == nil {
		return 0.5 // no stated range: neutral
	}
	if (min == nil || price >= *min) && (max == nil || price <= *max) {
		return 1
	}
	// Out of range: decay with relative distance from the nearest bound.
	bound := 0.0
	if max != nil && price > *max {
		bound = *max
	} else if min != nil {
		bound = *min
	}
	if bound <= 0 {
		return 0
	}
	dist := (price - bound) / bound
	if dist < 0 {
		dist = -dist
	}
	return clamp(1 - dist)
}

// relativePriceScore favors candidates priced near the reference.
func relativePriceScore(price, refPrice float64) float64 {
	if refPrice <= 0 {
		return 0.5
	}
	dist := (price - refPrice) / refPrice
	if dist < 0 {
		dist = -dist
	}
	return clamp(1 - dist)
}

func availabilityScore(c domain.Candidate, prefs *domain.Preferences) float64 {
	score := 0.0
	if c.Available {
		score = 0.8
	}
	if prefs != nil {
		for _, cat := range prefs.FavoriteCategories {
			if strings.EqualFold(cat, c.Category) {
				score += 0.2
				break
			}
		}
	}
	return clamp(score)
}

// freshnessScore is 1 within 30 days of listing and decays linearly to 0 at
// one year. Dates come from the retrieval snapshot, so identical inputs give
// identical scores.
func freshnessScore(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	age := now.Sub(createdAt)
	const fresh, stale = 30 * 24 * time.Hour, 365 * 24 * time.Hour
	if age <= fresh {
		return 1
	}
	if age >= stale {
		return 0
	}
	return 1 - float64(age-fresh)/float64(stale-fresh)
}

func admitPrice(price, refPrice float64, variant PriceVariant) bool {
	switch variant {
	case PriceLower:
		return price < refPrice
	case PriceSimilar:
		if refPrice <= 0 {
			return true
		}
		return price >= refPrice*(1-similarPriceBand) && price <= refPrice*(1+similarPriceBand)
	default:
		return true
	}
}

func matchReason(c domain.Candidate, intent domain.Intent, alignment float64) string {
	switch {
	case intent.Degraded:
		return "Matches your search"
	case intent.Occasion != "" && alignment > 0:
		return "Great for " + intent.Occasion
	case intent.Category != "" && strings.Contains(strings.ToLower(c.Category), intent.Category):
		return "Matches " + intent.Category
	case alignment >= 0.5:
		return "Close match for \"" + intent.Query + "\""
	default:
		return ""
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
