package domain

import "time"

// Candidate is a read-only catalog product projection, snapshotted at
// retrieval time. Popularity and CreatedAt feed ranking tie-break and
// freshness scoring.
type Candidate struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	Category   string    `json:"category"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	Available  bool      `json:"available"`
	Popularity int       `json:"popularity"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RankedProduct is a candidate with its relevance score attached.
type RankedProduct struct {
	Candidate
	Score       float64 `json:"relevanceScore"`
	MatchReason string  `json:"matchReason,omitempty"`
}

// Less orders ranked products: descending score, ties broken by descending
// popularity, then ascending id. The fixed tie-break keeps pagination stable.
func (p RankedProduct) Less(other RankedProduct) bool {
	if p.Score != other.Score {
		return p.Score > other.Score
	}
	if p.Popularity != other.Popularity {
		return p.Popularity > other.Popularity
	}
	return p.ID < other.ID
}

// CandidateFilter is the coarse retrieval filter derived from an intent.
// Retrieval applies no relevance ordering; that stays with the ranker.
type CandidateFilter struct {
	Keyword  string
	Category string
	PriceMin *float64
	PriceMax *float64
}

// FilterFromIntent derives the coarse catalog filter from an intent.
// A degraded intent yields a keyword-only filter over the raw query.
func FilterFromIntent(intent Intent) CandidateFilter {
	if intent.Degraded {
		return CandidateFilter{Keyword: intent.Query}
	}
	return CandidateFilter{
		Keyword:  intent.Query,
		Category: intent.Category,
		PriceMin: intent.PriceMin,
		PriceMax: intent.PriceMax,
	}
}
