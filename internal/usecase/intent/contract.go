package intent

import (
	"context"

	"github.com/glowmart/aisearch/internal/domain"
)

// Extractor is the language-understanding contract. A single call with a
// bounded latency; it may return a well-formed low-confidence intent rather
// than failing outright.
type Extractor interface {
	ExtractIntent(ctx context.Context, query, channel string) (domain.Intent, error)
}
