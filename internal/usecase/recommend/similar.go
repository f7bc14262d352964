package recommend

import (
	"context"
	"strconv"

	"github.com/glowmart/aisearch/internal/cache"
	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/metrics"
	"github.com/glowmart/aisearch/internal/ratelimit"
	"github.com/glowmart/aisearch/internal/usecase/ranking"
)

// SimilarParams identifies a standalone similar-products request.
type SimilarParams struct {
	ProductID    string
	Channel      string
	Limit        int
	PriceVariant ranking.PriceVariant
	Actor        string
}

// Similar returns products similar to the reference. The caller's limit is
// clamped to [1, 2x the configured default]; the price variant optionally
// restricts candidates relative to the reference price.
func (e *Engine) Similar(ctx context.Context, p SimilarParams) (domain.Recommendation, error) {
	if err := e.limiter.AllowRecommendation(p.Actor); err != nil {
		metrics.RateLimitedTotal.WithLabelValues(string(ratelimit.ClassRecommend)).Inc()
		return domain.Recommendation{}, err
	}
	if p.ProductID == "" {
		return domain.Recommendation{}, domain.NewValidationError("MISSING_PRODUCT_ID", "productId is required")
	}
	if p.Channel == "" {
		return domain.Recommendation{}, domain.NewValidationError("MISSING_CHANNEL", "channel is required")
	}
	if p.PriceVariant == "" {
		p.PriceVariant = ranking.PriceAny
	}

	limit := clampSimilarLimit(p.Limit, e.opts.SimilarLimit)

	key := cache.Key("similar", p.ProductID, p.Channel, strconv.Itoa(limit), string(p.PriceVariant))
	rec, err := e.similarCache.GetOrCompute(ctx, key, func(ctx context.Context) (domain.Recommendation, error) {
		metrics.CacheTotal.WithLabelValues("recommendation", "miss").Inc()
		return e.buildSimilar(ctx, p, limit)
	})
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("similar", "error").Inc()
		return domain.Recommendation{}, err
	}
	if rec.IsEmpty() {
		metrics.RecommendationsTotal.WithLabelValues("similar", "empty").Inc()
		return domain.Recommendation{}, domain.NewNoDataError("NO_RECOMMENDATIONS", "no similar products found")
	}
	metrics.RecommendationsTotal.WithLabelValues("similar", "success").Inc()
	return rec, nil
}

func (e *Engine) buildSimilar(ctx context.Context, p SimilarParams, limit int) (domain.Recommendation, error) {
	ref, err := e.products.GetProduct(ctx, p.ProductID, p.Channel)
	if err != nil {
		return domain.Recommendation{}, err
	}

	candidates, err := e.catalog.FetchCandidates(
		ctx, domain.CandidateFilter{Category: ref.Category}, p.Channel, e.opts.CandidatePool,
	)
	if err != nil {
		return domain.Recommendation{}, err
	}

	products := e.capped(e.ranker.RankSimilar(candidates, ref, p.PriceVariant), limit)
	title := "Similar to " + ref.Name
	if p.PriceVariant == ranking.PriceLower {
		title = "More affordable alternatives"
	}
	return domain.Recommendation{
		Type:       domain.RecSimilar,
		Title:      title,
		Reason:     "Based on " + ref.Name,
		Confidence: 0.75,
		Products:   products,
	}, nil
}

// clampSimilarLimit bounds a caller limit to [1, 2x the configured default].
func clampSimilarLimit(limit, configured int) int {
	if limit <= 0 {
		return configured
	}
	if ceiling := configured * 2; limit > ceiling {
		return ceiling
	}
	return limit
}
