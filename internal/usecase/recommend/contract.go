package recommend

import (
	"context"

	"github.com/glowmart/aisearch/internal/domain"
)

// CandidateRetriever fetches a bounded, unordered candidate snapshot.
type CandidateRetriever interface {
	FetchCandidates(ctx context.Context, filter domain.CandidateFilter, channel string, maxCount int) ([]domain.Candidate, error)
}

// ProductReader looks up a single reference product.
type ProductReader interface {
	GetProduct(ctx context.Context, id, channel string) (domain.Candidate, error)
}

// PreferenceReader loads optional personalization input.
type PreferenceReader interface {
	Get(ctx context.Context, sessionID string) (domain.Preferences, error)
}

// Admitter is the rate-limiter contract for recommendation operations.
type Admitter interface {
	AllowRecommendation(actor string) error
}
