package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and recommendation Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aisearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"channel", "path", "status"}, // path: "ai" / "fallback"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aisearch",
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"channel", "path"},
	)

	IntentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aisearch",
			Name:      "intent_requests_total",
			Help:      "Total language-understanding service requests",
		},
		[]string{"model", "status"},
	)

	IntentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aisearch",
			Name:      "intent_request_duration_seconds",
			Help:      "Language-understanding request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aisearch",
			Name:      "recommendation_requests_total",
			Help:      "Total recommendation requests",
		},
		[]string{"type", "status"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aisearch",
			Name:      "cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"cache", "result"}, // cache: "search" / "recommendation"; result: "hit" / "miss"
	)

	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aisearch",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"class"},
	)
)

var registered bool

// Register registers all collectors. Must be called once from main.
func Register() {
	if registered {
		return
	}
	registered = true
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		IntentRequestsTotal,
		IntentRequestDuration,
		RecommendationsTotal,
		CacheTotal,
		RateLimitedTotal,
	)
}
