package recommend

import (
	"context"

	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/cache"
	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/metrics"
	"github.com/glowmart/aisearch/internal/ratelimit"
	"github.com/glowmart/aisearch/internal/usecase/ranking"
)

// PDPParams identifies a product-detail-page recommendation request.
type PDPParams struct {
	ProductID string
	Channel   string
	UserID    string
	SessionID string
	Actor     string
}

// PDPResult carries the populated product-page sections. Any subset may be
// absent; the caller sees only populated sections.
type PDPResult struct {
	FrequentlyBoughtTogether *domain.Bundle         `json:"frequentlyBoughtTogether,omitempty"`
	CompleteTheLook          *domain.Recommendation `json:"completeTheLook,omitempty"`
	SimilarItems             *domain.Recommendation `json:"similarItems,omitempty"`
	SimilarTasteBought       *domain.Recommendation `json:"similarTasteBought,omitempty"`
}

func (r PDPResult) isEmpty() bool {
	return r.FrequentlyBoughtTogether == nil && r.CompleteTheLook == nil &&
		r.SimilarItems == nil && r.SimilarTasteBought == nil
}

// PDP assembles the product-page recommendation sets.
func (e *Engine) PDP(ctx context.Context, p PDPParams) (PDPResult, error) {
	if err := e.limiter.AllowRecommendation(p.Actor); err != nil {
		metrics.RateLimitedTotal.WithLabelValues(string(ratelimit.ClassRecommend)).Inc()
		return PDPResult{}, err
	}
	if p.ProductID == "" {
		return PDPResult{}, domain.NewValidationError("MISSING_PRODUCT_ID", "productId is required")
	}
	if p.Channel == "" {
		return PDPResult{}, domain.NewValidationError("MISSING_CHANNEL", "channel is required")
	}

	key := cache.Key("pdp", p.ProductID, p.UserID, p.SessionID, p.Channel)
	res, err := e.pdpCache.GetOrCompute(ctx, key, func(ctx context.Context) (PDPResult, error) {
		metrics.CacheTotal.WithLabelValues("recommendation", "miss").Inc()
		return e.buildPDP(ctx, p)
	})
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("pdp", "error").Inc()
		return PDPResult{}, err
	}
	if res.isEmpty() {
		metrics.RecommendationsTotal.WithLabelValues("pdp", "empty").Inc()
		return PDPResult{}, domain.NewNoDataError("NO_RECOMMENDATIONS", "no recommendations for this product")
	}
	metrics.RecommendationsTotal.WithLabelValues("pdp", "success").Inc()
	return res, nil
}

func (e *Engine) buildPDP(ctx context.Context, p PDPParams) (PDPResult, error) {
	ref, err := e.products.GetProduct(ctx, p.ProductID, p.Channel)
	if err != nil {
		return PDPResult{}, err
	}

	var res PDPResult

	// Same-category pool feeds similar items; the complement pool (other
	// categories) feeds bundles and complete-the-look.
	sameCat, err := e.catalog.FetchCandidates(
		ctx, domain.CandidateFilter{Category: ref.Category}, p.Channel, e.opts.CandidatePool,
	)
	if err != nil {
		e.logger.Warn("PDP same-category retrieval failed", zap.Error(err))
	} else if similar := e.capped(e.ranker.RankSimilar(sameCat, ref, ranking.PriceAny), e.opts.SimilarLimit); len(similar) > 0 {
		res.SimilarItems = &domain.Recommendation{
			Type:       domain.RecSimilar,
			Title:      "Similar items",
			Reason:     "Items like " + ref.Name,
			Confidence: 0.75,
			Products:   similar,
		}
	}

	complements, err := e.catalog.FetchCandidates(
		ctx, domain.CandidateFilter{Keyword: ref.Name}, p.Channel, e.opts.CandidatePool,
	)
	if err != nil {
		e.logger.Warn("PDP complement retrieval failed", zap.Error(err))
		complements = nil
	}
	otherCat := excludeCategory(complements, ref.Category)

	bought := e.capped(e.ranker.RankBaseline(otherCat, ref.Name), e.opts.FrequentlyBoughtMax)
	if len(bought) > 0 {
		rec := domain.Recommendation{
			Type:       domain.RecFrequentlyBought,
			Title:      "Frequently bought together",
			Reason:     "Often purchased with " + ref.Name,
			Confidence: 0.65,
			Products:   append([]domain.RankedProduct{rankedRef(ref)}, bought...),
		}
		bundle := domain.NewBundle(rec, e.opts.BundleDiscount)
		res.FrequentlyBoughtTogether = &bundle
	}

	lookPool := excludeMembers(otherCat, bought)
	if look := e.capped(e.ranker.RankBaseline(lookPool, ""), e.opts.CompleteTheLookMax); len(look) > 0 {
		res.CompleteTheLook = &domain.Recommendation{
			Type:       domain.RecCompleteTheLook,
			Title:      "Complete the look",
			Reason:     "Pairs well with " + ref.Name,
			Confidence: 0.6,
			Products:   look,
		}
	}

	if prefs := e.loadPrefs(ctx, p.SessionID); prefs != nil && len(prefs.RecentlyViewed) > 0 {
		if taste, ok := e.similarTaste(ctx, p.Channel, ref, prefs); ok {
			res.SimilarTasteBought = &taste
		}
	}

	return res, nil
}

// similarTaste builds the "shoppers with similar taste bought" section from
// the session's recently viewed items.
func (e *Engine) similarTaste(ctx context.Context, channel string, ref domain.Candidate, prefs *domain.Preferences) (domain.Recommendation, bool) {
	candidates, err := e.catalog.FetchCandidates(ctx, domain.CandidateFilter{}, channel, e.opts.CandidatePool)
	if err != nil {
		e.logger.Warn("Similar-taste retrieval failed", zap.Error(err))
		return domain.Recommendation{}, false
	}

	viewed := make(map[string]bool, len(prefs.RecentlyViewed))
	for _, id := range prefs.RecentlyViewed {
		viewed[id] = true
	}

	pool := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != ref.ID && !viewed[c.ID] {
			pool = append(pool, c)
		}
	}

	products := e.capped(e.ranker.Rank(pool, domain.Intent{Query: ref.Category, Category: ref.Category, Confidence: 1}, prefs), e.opts.SimilarLimit)
	if len(products) == 0 {
		return domain.Recommendation{}, false
	}
	return domain.Recommendation{
		Type:       domain.RecSimilarTaste,
		Title:      "Shoppers with similar taste bought",
		Reason:     "Popular with shoppers who viewed the same items",
		Confidence: 0.55,
		Products:   products,
	}, true
}

func (e *Engine) capped(products []domain.RankedProduct, max int) []domain.RankedProduct {
	if len(products) > max {
		return products[:max]
	}
	return products
}

// excludeMembers drops the bundle members from the complement pool so
// complete-the-look never repeats them.
func excludeMembers(candidates []domain.Candidate, members []domain.RankedProduct) []domain.Candidate {
	if len(members) == 0 {
		return candidates
	}
	taken := make(map[string]bool, len(members))
	for _, m := range members {
		taken[m.ID] = true
	}
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !taken[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func excludeCategory(candidates []domain.Candidate, category string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Category != category {
			out = append(out, c)
		}
	}
	return out
}

func rankedRef(ref domain.Candidate) domain.RankedProduct {
	return domain.RankedProduct{Candidate: ref, Score: 1, MatchReason: "This item"}
}
