// Package recommend composes retrieval, ranking, and caching into named
// recommendation sets for the homepage, product detail pages, and standalone
// similar-product lookups.
package recommend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/cache"
	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/metrics"
	"github.com/glowmart/aisearch/internal/ratelimit"
	"github.com/glowmart/aisearch/internal/usecase/ranking"
)

// Options holds recommendation engine settings.
type Options struct {
	SimilarLimit        int
	FrequentlyBoughtMax int
	CompleteTheLookMax  int
	HomepageSections    int
	ProductsPerSection  int
	MinConfidence       float64
	BundleDiscount      float64
	CacheTTL            time.Duration
	// CandidatePool bounds each retrieval behind a section.
	CandidatePool int
}

// Engine produces recommendation sets. All public operations are cached and
// rate limited; sets with zero products or confidence below the floor are
// suppressed, never padded.
type Engine struct {
	catalog  CandidateRetriever
	products ProductReader
	ranker   *ranking.Ranker
	prefs    PreferenceReader
	limiter  Admitter
	opts     Options
	logger   *zap.Logger

	homeCache    *cache.Cache[[]domain.Recommendation]
	pdpCache     *cache.Cache[PDPResult]
	similarCache *cache.Cache[domain.Recommendation]
}

// NewEngine creates a recommendation engine. prefs may be nil.
func NewEngine(
	catalog CandidateRetriever,
	products ProductReader,
	ranker *ranking.Ranker,
	prefs PreferenceReader,
	limiter Admitter,
	opts Options,
	logger *zap.Logger,
) *Engine {
	if opts.SimilarLimit <= 0 {
		opts.SimilarLimit = 6
	}
	if opts.FrequentlyBoughtMax <= 0 {
		opts.FrequentlyBoughtMax = 3
	}
	if opts.CompleteTheLookMax <= 0 {
		opts.CompleteTheLookMax = 4
	}
	if opts.HomepageSections <= 0 {
		opts.HomepageSections = 3
	}
	if opts.ProductsPerSection <= 0 {
		opts.ProductsPerSection = 8
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = 0.5
	}
	if opts.BundleDiscount <= 0 {
		opts.BundleDiscount = 0.10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.CandidatePool <= 0 {
		opts.CandidatePool = 50
	}
	return &Engine{
		catalog:      catalog,
		products:     products,
		ranker:       ranker,
		prefs:        prefs,
		limiter:      limiter,
		opts:         opts,
		logger:       logger,
		homeCache:    cache.New[[]domain.Recommendation](opts.CacheTTL),
		pdpCache:     cache.New[PDPResult](opts.CacheTTL),
		similarCache: cache.New[domain.Recommendation](opts.CacheTTL),
	}
}

// HomepageParams identifies a homepage recommendation request.
type HomepageParams struct {
	Channel   string
	UserID    string
	SessionID string
	Actor     string
}

// Homepage returns up to the configured number of sections, each capped and
// filtered to the confidence floor. Sections failing the threshold are
// omitted, not padded.
func (e *Engine) Homepage(ctx context.Context, p HomepageParams) ([]domain.Recommendation, error) {
	if err := e.limiter.AllowRecommendation(p.Actor); err != nil {
		metrics.RateLimitedTotal.WithLabelValues(string(ratelimit.ClassRecommend)).Inc()
		return nil, err
	}
	if p.Channel == "" {
		return nil, domain.NewValidationError("MISSING_CHANNEL", "channel is required")
	}

	key := cache.Key("homepage", p.UserID, p.SessionID, p.Channel)
	sections, err := e.homeCache.GetOrCompute(ctx, key, func(ctx context.Context) ([]domain.Recommendation, error) {
		metrics.CacheTotal.WithLabelValues("recommendation", "miss").Inc()
		return e.buildHomepage(ctx, p)
	})
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("homepage", "error").Inc()
		return nil, err
	}
	if len(sections) == 0 {
		metrics.RecommendationsTotal.WithLabelValues("homepage", "empty").Inc()
		return nil, domain.NewNoDataError("NO_RECOMMENDATIONS", "no recommendations available")
	}
	metrics.RecommendationsTotal.WithLabelValues("homepage", "success").Inc()
	return sections, nil
}

func (e *Engine) buildHomepage(ctx context.Context, p HomepageParams) ([]domain.Recommendation, error) {
	prefs := e.loadPrefs(ctx, p.SessionID)

	var sections []domain.Recommendation
	if rec, ok := e.picksForYou(ctx, p.Channel, prefs); ok {
		sections = append(sections, rec)
	}
	if rec, ok := e.trending(ctx, p.Channel); ok {
		sections = append(sections, rec)
	}
	if rec, ok := e.newArrivals(ctx, p.Channel); ok {
		sections = append(sections, rec)
	}

	if len(sections) > e.opts.HomepageSections {
		sections = sections[:e.opts.HomepageSections]
	}
	return sections, nil
}

// picksForYou builds the personalized section. Confidence grows with the
// strength of the preference signal; without one the section stays below the
// floor and is dropped.
func (e *Engine) picksForYou(ctx context.Context, channel string, prefs *domain.Preferences) (domain.Recommendation, bool) {
	if prefs == nil || len(prefs.FavoriteCategories) == 0 {
		return domain.Recommendation{}, false
	}

	var products []domain.RankedProduct
	for _, category := range prefs.FavoriteCategories {
		candidates, err := e.catalog.FetchCandidates(
			ctx, domain.CandidateFilter{Category: category}, channel, e.opts.CandidatePool,
		)
		if err != nil {
			e.logger.Warn("Picks-for-you retrieval failed",
				zap.String("category", category), zap.Error(err))
			continue
		}
		intent := domain.Intent{Query: category, Category: category, Confidence: 1}
		products = append(products, e.ranker.Rank(candidates, intent, prefs)...)
		if len(products) >= e.opts.ProductsPerSection {
			break
		}
	}

	confidence := 0.5 + 0.1*float64(len(prefs.FavoriteCategories))
	if confidence > 0.9 {
		confidence = 0.9
	}
	return e.section(domain.Recommendation{
		Type:       domain.RecBasedOnHistory,
		Title:      "Picked for you",
		Reason:     "Based on categories you shop",
		Confidence: confidence,
		Products:   products,
	})
}

func (e *Engine) trending(ctx context.Context, channel string) (domain.Recommendation, bool) {
	candidates, err := e.catalog.FetchCandidates(ctx, domain.CandidateFilter{}, channel, e.opts.CandidatePool)
	if err != nil {
		e.logger.Warn("Trending retrieval failed", zap.Error(err))
		return domain.Recommendation{}, false
	}
	return e.section(domain.Recommendation{
		Type:       domain.RecTrending,
		Title:      "Trending now",
		Reason:     "Popular with other shoppers",
		Confidence: 0.7,
		Products:   e.ranker.RankBaseline(candidates, ""),
	})
}

func (e *Engine) newArrivals(ctx context.Context, channel string) (domain.Recommendation, bool) {
	candidates, err := e.catalog.FetchCandidates(ctx, domain.CandidateFilter{}, channel, e.opts.CandidatePool)
	if err != nil {
		e.logger.Warn("New-arrivals retrieval failed", zap.Error(err))
		return domain.Recommendation{}, false
	}

	// Freshness-dominant mix: rank with a freshness-heavy weight set.
	fresh := ranking.New(ranking.Weights{Alignment: 0, PriceFit: 0, Availability: 0.2, Freshness: 0.8})
	return e.section(domain.Recommendation{
		Type:       domain.RecNewArrivals,
		Title:      "New arrivals",
		Reason:     "Just added to the store",
		Confidence: 0.6,
		Products:   fresh.Rank(candidates, domain.Intent{}, nil),
	})
}

// section caps and filters a candidate section. ok is false when the section
// is empty or below the confidence floor.
func (e *Engine) section(rec domain.Recommendation) (domain.Recommendation, bool) {
	if len(rec.Products) > e.opts.ProductsPerSection {
		rec.Products = rec.Products[:e.opts.ProductsPerSection]
	}
	if rec.IsEmpty() || rec.Confidence < e.opts.MinConfidence {
		return domain.Recommendation{}, false
	}
	return rec, true
}

func (e *Engine) loadPrefs(ctx context.Context, sessionID string) *domain.Preferences {
	if e.prefs == nil || sessionID == "" {
		return nil
	}
	p, err := e.prefs.Get(ctx, sessionID)
	if err != nil {
		e.logger.Warn("Preference read failed", zap.Error(err))
		return nil
	}
	return &p
}
