// Package search orchestrates the AI search pipeline: admission control,
// intent extraction, candidate retrieval, relevance ranking, and cursor
// pagination, with result caching and a non-AI fallback path.
package search

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/cache"
	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/domain/page"
	"github.com/glowmart/aisearch/internal/metrics"
	"github.com/glowmart/aisearch/internal/ratelimit"
	"github.com/glowmart/aisearch/internal/usecase/ranking"
)

// Params is a validated search request.
type Params struct {
	Query     domain.Query
	Limit     int
	Cursor    string
	Direction page.Direction
	// Actor is the rate-limit identity: user id, else session id, else the
	// client address supplied by transport.
	Actor string
}

// Result is the assembled search response. Cached as a whole so an identical
// request within the TTL replays byte-identical output.
type Result struct {
	Intent               *domain.Intent `json:"intent,omitempty"`
	IntentExplanation    string         `json:"intentExplanation,omitempty"`
	SuggestedRefinements []string       `json:"suggestedRefinements,omitempty"`
	Page                 page.Result    `json:"page"`
	QueryTimeMs          int64          `json:"queryTimeMs"`
	Fallback             bool           `json:"fallback,omitempty"`
}

// Options holds pipeline settings.
type Options struct {
	MaxCandidates int
	DefaultLimit  int
	MaxLimit      int
	CacheTTL      time.Duration
	Fallback      bool
}

// Service runs the search pipeline.
type Service struct {
	intents IntentService
	catalog CandidateRetriever
	ranker  *ranking.Ranker
	prefs   PreferenceReader
	limiter Admitter
	cache   *cache.Cache[Result]
	opts    Options
	logger  *zap.Logger
}

// New creates a search service. prefs may be nil when personalization is
// disabled.
func New(
	intents IntentService,
	catalog CandidateRetriever,
	ranker *ranking.Ranker,
	prefs PreferenceReader,
	limiter Admitter,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 100
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = page.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = page.MaxLimit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Service{
		intents: intents,
		catalog: catalog,
		ranker:  ranker,
		prefs:   prefs,
		limiter: limiter,
		cache:   cache.New[Result](opts.CacheTTL),
		opts:    opts,
		logger:  logger,
	}
}

// Search runs the pipeline for one request. Identical concurrent requests
// coalesce to a single computation; repeats within the TTL replay the cached
// result without touching the AI service or the catalog.
func (s *Service) Search(ctx context.Context, p Params) (Result, error) {
	if err := s.limiter.AllowSearch(p.Actor, IsComplex(p.Query.Text())); err != nil {
		metrics.RateLimitedTotal.WithLabelValues(string(ratelimit.ClassSearch)).Inc()
		return Result{}, err
	}

	limit := page.ClampLimit(p.Limit, s.opts.DefaultLimit, s.opts.MaxLimit)
	// Session preferences feed the ranking, so the session id is part of the
	// key; entries never cross sessions.
	key := cache.Key(
		p.Query.Normalized(), p.Query.Channel(), p.Query.SessionID(),
		p.Cursor, string(p.Direction), strconv.Itoa(limit),
	)

	computed := false
	res, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (Result, error) {
		computed = true
		metrics.CacheTotal.WithLabelValues("search", "miss").Inc()
		return s.compute(ctx, p, limit)
	})
	if !computed && err == nil {
		metrics.CacheTotal.WithLabelValues("search", "hit").Inc()
	}
	return res, err
}

// compute is the uncached pipeline:
// intent -> candidates -> rank -> paginate, with the fallback path taken on
// intent degradation or retrieval failure.
func (s *Service) compute(ctx context.Context, p Params, limit int) (Result, error) {
	start := time.Now()
	channel := p.Query.Channel()

	intent, err := s.intents.Extract(ctx, p.Query.Text(), channel)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(channel, "ai", "error").Inc()
		return Result{}, err
	}

	var ranked []domain.RankedProduct
	fallback := intent.Degraded

	if !fallback {
		candidates, fetchErr := s.catalog.FetchCandidates(
			ctx, domain.FilterFromIntent(intent), channel, s.opts.MaxCandidates,
		)
		if fetchErr != nil {
			if !s.opts.Fallback {
				metrics.SearchRequestsTotal.WithLabelValues(channel, "ai", "error").Inc()
				return Result{}, fetchErr
			}
			s.logger.Warn("Candidate retrieval failed, falling back", zap.Error(fetchErr))
			fallback = true
		} else {
			ranked = s.ranker.Rank(candidates, intent, s.loadPrefs(ctx, p.Query.SessionID()))
		}
	}

	if fallback {
		ranked, err = s.baseline(ctx, p.Query)
		if err != nil {
			metrics.SearchRequestsTotal.WithLabelValues(channel, "fallback", "error").Inc()
			return Result{}, err
		}
	}

	fingerprint := page.Fingerprint(p.Query.Normalized(), channel)
	pg, err := page.Paginate(ranked, limit, p.Cursor, p.Direction, fingerprint)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Page:        pg,
		QueryTimeMs: time.Since(start).Milliseconds(),
		Fallback:    fallback,
	}
	if !fallback {
		res.Intent = &intent
		res.IntentExplanation = intent.Explanation
		res.SuggestedRefinements = intent.Refinements
	}

	pathLabel := "ai"
	if fallback {
		pathLabel = "fallback"
	}
	metrics.SearchRequestsTotal.WithLabelValues(channel, pathLabel, "success").Inc()
	metrics.SearchDuration.WithLabelValues(channel, pathLabel).Observe(time.Since(start).Seconds())

	return res, nil
}

// baseline is the non-AI retrieval path: plain keyword match ordered by
// alignment and popularity, tagged with a generic match reason.
func (s *Service) baseline(ctx context.Context, q domain.Query) ([]domain.RankedProduct, error) {
	candidates, err := s.catalog.FetchCandidates(
		ctx, domain.CandidateFilter{Keyword: q.Text()}, q.Channel(), s.opts.MaxCandidates,
	)
	if err != nil {
		return nil, domain.NewUpstreamError("FALLBACK_FAILED", "baseline retrieval failed", err)
	}
	return s.ranker.RankBaseline(candidates, q.Text()), nil
}

// loadPrefs fetches personalization input. Storage failures degrade to nil.
func (s *Service) loadPrefs(ctx context.Context, sessionID string) *domain.Preferences {
	if s.prefs == nil || sessionID == "" {
		return nil
	}
	p, err := s.prefs.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Preference read failed", zap.Error(err))
		return nil
	}
	return &p
}
