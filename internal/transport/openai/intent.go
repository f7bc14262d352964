// Package openai implements the language-understanding contract over an
// OpenAI-compatible chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/metrics"
)

// Extractor converts free-text queries into structured intents via chat
// completions with JSON output.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the language-understanding provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewExtractor creates an OpenAI-compatible intent extractor.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

const systemPrompt = `You interpret e-commerce search queries for a fashion storefront.
Given a shopper's query, respond with JSON only:
{
  "category": "product category if clear, else empty",
  "occasion": "occasion such as wedding, office, beach, else empty",
  "style": "style or color descriptor, else empty",
  "price_min": number or null,
  "price_max": number or null,
  "confidence": 0.0-1.0 how certain you are of the interpretation,
  "explanation": "one short sentence restating what the shopper wants",
  "refinements": ["up to 4 short refinement suggestions"]
}`

// wire mirrors the model's JSON response.
type wire struct {
	Category    string   `json:"category"`
	Occasion    string   `json:"occasion"`
	Style       string   `json:"style"`
	PriceMin    *float64 `json:"price_min"`
	PriceMax    *float64 `json:"price_max"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
	Refinements []string `json:"refinements"`
}

// ExtractIntent calls the model once. Retry policy lives in the intent
// usecase; this method only classifies the failure.
func (e *Extractor) ExtractIntent(ctx context.Context, query, channel string) (domain.Intent, error) {
	req := openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("channel: %s\nquery: %s", channel, query)},
		},
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.IntentRequestsTotal.WithLabelValues(e.model, "error").Inc()
		return domain.Intent{}, classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.IntentRequestsTotal.WithLabelValues(e.model, "error").Inc()
		return domain.Intent{}, fmt.Errorf("empty completion response: %w", errMalformed)
	}

	metrics.IntentRequestsTotal.WithLabelValues(e.model, "success").Inc()
	metrics.IntentRequestDuration.WithLabelValues(e.model).Observe(duration.Seconds())

	return parseIntent(query, resp.Choices[0].Message.Content)
}

var errMalformed = errors.New("malformed model response")

func parseIntent(query, content string) (domain.Intent, error) {
	// Some models wrap JSON in code fences despite JSON mode.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var w wire
	if err := json.Unmarshal([]byte(content), &w); err != nil {
		return domain.Intent{}, fmt.Errorf("parse intent JSON: %w", errMalformed)
	}

	if len(w.Refinements) > 4 {
		w.Refinements = w.Refinements[:4]
	}

	return domain.Intent{
		Query:       query,
		Category:    strings.ToLower(strings.TrimSpace(w.Category)),
		Occasion:    strings.ToLower(strings.TrimSpace(w.Occasion)),
		Style:       strings.ToLower(strings.TrimSpace(w.Style)),
		PriceMin:    w.PriceMin,
		PriceMax:    w.PriceMax,
		Confidence:  domain.ClampConfidence(w.Confidence),
		Explanation: strings.TrimSpace(w.Explanation),
		Refinements: w.Refinements,
	}, nil
}

// TransientError marks failures eligible for retry: timeouts and
// 5xx/429-equivalent provider responses. A well-formed low-confidence intent
// is never transient.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyAPIError sorts provider failures into transient and permanent.
func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 429 {
			return &TransientError{Err: err}
		}
		return fmt.Errorf("intent API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == 429 {
			return &TransientError{Err: err}
		}
		return fmt.Errorf("intent API error %d: %w", reqErr.HTTPStatusCode, reqErr)
	}

	// Network-level failures are transient.
	return &TransientError{Err: err}
}
