package domain

// RecommendationType tags a recommendation set.
type RecommendationType string

// Recommendation set types.
const (
	RecSimilar          RecommendationType = "similar"
	RecBasedOnHistory   RecommendationType = "based_on_history"
	RecFrequentlyBought RecommendationType = "frequently_bought"
	RecCompleteTheLook  RecommendationType = "complete_the_look"
	RecTrending         RecommendationType = "trending"
	RecNewArrivals      RecommendationType = "new_arrivals"
	RecSimilarTaste     RecommendationType = "similar_taste"
)

// Recommendation is a named, ordered product set. A recommendation with zero
// products is never returned to a caller; the engine suppresses it.
type Recommendation struct {
	Type       RecommendationType `json:"type"`
	Title      string             `json:"title"`
	Reason     string             `json:"reason,omitempty"`
	Confidence float64            `json:"confidence"`
	Products   []RankedProduct    `json:"products"`
}

// IsEmpty reports whether the set carries no products.
func (r Recommendation) IsEmpty() bool { return len(r.Products) == 0 }

// Bundle is a frequently-bought-together recommendation with aggregate
// pricing over a member selection.
type Bundle struct {
	Recommendation
	BundlePrice   float64 `json:"bundlePrice"`
	BundleSavings float64 `json:"bundleSavings,omitempty"`
}

// PriceSelection computes bundle pricing for the selected member ids.
// BundlePrice is the sum of selected member prices. Savings apply only when
// the selection covers the full membership; partial selections pay list price.
// Savings are recomputed on every call, never carried over from a previous
// selection.
func (b Bundle) PriceSelection(selected map[string]bool, discount float64) (price, savings float64) {
	full := true
	for _, p := range b.Products {
		if selected[p.ID] {
			price += p.Price
		} else {
			full = false
		}
	}
	if full && len(b.Products) > 0 {
		savings = price * discount
	}
	return price, savings
}

// NewBundle builds a bundle over members with full-membership pricing applied.
func NewBundle(rec Recommendation, discount float64) Bundle {
	b := Bundle{Recommendation: rec}
	all := make(map[string]bool, len(rec.Products))
	for _, p := range rec.Products {
		all[p.ID] = true
	}
	b.BundlePrice, b.BundleSavings = b.PriceSelection(all, discount)
	return b
}
