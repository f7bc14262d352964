package search

import (
	"context"

	"github.com/glowmart/aisearch/internal/domain"
)

// IntentService extracts structured intents, applying the retry and
// degradation policy.
type IntentService interface {
	Extract(ctx context.Context, query, channel string) (domain.Intent, error)
}

// CandidateRetriever fetches a bounded, unordered candidate snapshot.
type CandidateRetriever interface {
	FetchCandidates(ctx context.Context, filter domain.CandidateFilter, channel string, maxCount int) ([]domain.Candidate, error)
}

// PreferenceReader loads optional personalization input. Failures degrade to
// absent preferences, never to request failures.
type PreferenceReader interface {
	Get(ctx context.Context, sessionID string) (domain.Preferences, error)
}

// Admitter is the rate-limiter contract consumed by the search pipeline.
type Admitter interface {
	AllowSearch(actor string, complex bool) error
}
