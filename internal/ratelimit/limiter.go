// Package ratelimit provides per-actor token-bucket admission control.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/glowmart/aisearch/internal/domain"
)

// Class is an operation class with its own bucket per actor.
type Class string

// Operation classes.
const (
	ClassSearch        Class = "search"
	ClassComplexSearch Class = "complex_search"
	ClassRecommend     Class = "recommendation"
)

// Limits holds per-minute allowances per class.
type Limits struct {
	SearchesPerMinute        int
	ComplexSearchesPerMinute int
	RecommendationsPerMinute int
}

// DefaultLimits mirrors the storefront defaults.
func DefaultLimits() Limits {
	return Limits{
		SearchesPerMinute:        60,
		ComplexSearchesPerMinute: 10,
		RecommendationsPerMinute: 120,
	}
}

// Limiter keeps one token bucket per (actor, class). Consumption is atomic:
// concurrent requests from the same actor never observe the same
// pre-decrement token count. The map mutex guards only bucket lookup; the
// bucket's own lock covers refill and consume.
type Limiter struct {
	limits Limits

	mu      sync.Mutex
	buckets map[bucketKey]*rate.Limiter
}

type bucketKey struct {
	actor string
	class Class
}

// New creates a limiter with the given allowances.
func New(limits Limits) *Limiter {
	return &Limiter{limits: limits, buckets: make(map[bucketKey]*rate.Limiter)}
}

// Allow consumes one token from the actor's bucket for class. A bucket of
// capacity C admits exactly C immediate requests; the next is rejected with a
// rate_limited error, retryable after backoff.
func (l *Limiter) Allow(actor string, class Class) error {
	if !l.bucket(actor, class).Allow() {
		return domain.NewRateLimitedError("too many " + string(class) + " requests, retry after backoff")
	}
	return nil
}

// AllowSearch charges the search bucket, and additionally the stricter
// complex bucket when the query classifies as complex. The complex bucket is
// checked first so a burst of complex queries cannot drain the simple
// allowance before being rejected.
func (l *Limiter) AllowSearch(actor string, complex bool) error {
	if complex {
		if err := l.Allow(actor, ClassComplexSearch); err != nil {
			return err
		}
	}
	return l.Allow(actor, ClassSearch)
}

// AllowRecommendation charges the recommendation bucket.
func (l *Limiter) AllowRecommendation(actor string) error {
	return l.Allow(actor, ClassRecommend)
}

func (l *Limiter) bucket(actor string, class Class) *rate.Limiter {
	key := bucketKey{actor: actor, class: class}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	per := l.perMinute(class)
	if per <= 0 {
		per = defaultPerMinute(class)
	}
	b := rate.NewLimiter(rate.Every(time.Minute/time.Duration(per)), per)
	l.buckets[key] = b
	return b
}

func (l *Limiter) perMinute(class Class) int {
	switch class {
	case ClassComplexSearch:
		return l.limits.ComplexSearchesPerMinute
	case ClassRecommend:
		return l.limits.RecommendationsPerMinute
	default:
		return l.limits.SearchesPerMinute
	}
}

func defaultPerMinute(class Class) int {
	d := DefaultLimits()
	switch class {
	case ClassComplexSearch:
		return d.ComplexSearchesPerMinute
	case ClassRecommend:
		return d.RecommendationsPerMinute
	default:
		return d.SearchesPerMinute
	}
}
