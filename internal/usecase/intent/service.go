// Package intent wraps the language-understanding service with the retry,
// timeout, and confidence policy of the search pipeline.
package intent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/transport/openai"
)

// Service turns free text into a confidence-scored intent.
type Service struct {
	extractor Extractor
	logger    *zap.Logger

	timeout       time.Duration
	maxRetries    int
	minConfidence float64
	fallback      bool
	backoffBase   time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

// Options holds extraction policy knobs.
type Options struct {
	Timeout       time.Duration // per-attempt bound, default 30s
	MaxRetries    int           // retries after the first attempt, default 2
	MinConfidence float64       // degrade below this, default 0.3
	Fallback      bool          // degrade instead of failing
}

// New creates an intent service.
func New(extractor Extractor, opts Options, logger *zap.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 2
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = 0.3
	}
	return &Service{
		extractor:     extractor,
		logger:        logger,
		timeout:       opts.Timeout,
		maxRetries:    opts.MaxRetries,
		minConfidence: opts.MinConfidence,
		fallback:      opts.Fallback,
		backoffBase:   250 * time.Millisecond,
		sleep:         sleepCtx,
	}
}

// Extract runs the extraction with a bounded retry budget and exponential
// backoff. Only transient failures (timeout, 5xx-equivalent) are retried; a
// well-formed low-confidence response never is. When the budget is exhausted
// or confidence is below the floor, the result degrades to the baseline
// signal if fallback is enabled, otherwise an ai_service error propagates.
func (s *Service) Extract(ctx context.Context, query, channel string) (domain.Intent, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.backoffBase << (attempt - 1)
			if err := s.sleep(ctx, delay); err != nil {
				return domain.Intent{}, err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		extracted, err := s.extractor.ExtractIntent(attemptCtx, query, channel)
		cancel()

		if err != nil {
			lastErr = err
			if openai.IsTransient(err) {
				s.logger.Warn("Intent extraction attempt failed",
					zap.Int("attempt", attempt+1), zap.Error(err))
				continue
			}
			break
		}

		if extracted.Confidence < s.minConfidence {
			if s.fallback {
				s.logger.Debug("Intent confidence below floor, degrading",
					zap.Float64("confidence", extracted.Confidence))
				return domain.DegradedIntent(query), nil
			}
			return domain.Intent{}, domain.NewAIServiceError("LOW_CONFIDENCE",
				"could not interpret the query with enough confidence", nil)
		}
		return extracted, nil
	}

	if s.fallback {
		s.logger.Warn("Intent extraction unavailable, degrading", zap.Error(lastErr))
		return domain.DegradedIntent(query), nil
	}
	return domain.Intent{}, domain.NewAIServiceError("INTENT_UNAVAILABLE",
		"language understanding service unavailable", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
