// Package catalog implements the product catalog contract over its HTTP API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/domain"
)

// Client fetches candidate products from the catalog service. Retrieval is a
// cheap, intent-agnostic snapshot; relevance ordering stays with the ranker.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds catalog connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a catalog client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

type productDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	Category   string  `json:"category"`
	Thumbnail  string  `json:"thumbnail"`
	Available  bool    `json:"available"`
	Popularity int     `json:"popularity"`
	CreatedAt  string  `json:"createdAt"`
}

type listResponse struct {
	Products []productDTO `json:"products"`
}

// FetchCandidates returns an unordered candidate snapshot matching the coarse
// filter, at most maxCount entries.
func (c *Client) FetchCandidates(
	ctx context.Context, filter domain.CandidateFilter, channel string, maxCount int,
) ([]domain.Candidate, error) {
	q := url.Values{}
	q.Set("channel", channel)
	q.Set("limit", strconv.Itoa(maxCount))
	if filter.Keyword != "" {
		q.Set("q", filter.Keyword)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.PriceMin != nil {
		q.Set("price_min", strconv.FormatFloat(*filter.PriceMin, 'f', -1, 64))
	}
	if filter.PriceMax != nil {
		q.Set("price_max", strconv.FormatFloat(*filter.PriceMax, 'f', -1, 64))
	}

	var resp listResponse
	if err := c.getJSON(ctx, "/products?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(resp.Products))
	for _, p := range resp.Products {
		candidates = append(candidates, toCandidate(p))
	}
	if len(candidates) > maxCount {
		candidates = candidates[:maxCount]
	}
	return candidates, nil
}

// GetProduct fetches a single product snapshot by id.
func (c *Client) GetProduct(ctx context.Context, id, channel string) (domain.Candidate, error) {
	var p productDTO
	path := "/products/" + url.PathEscape(id) + "?channel=" + url.QueryEscape(channel)
	if err := c.getJSON(ctx, path, &p); err != nil {
		return domain.Candidate{}, err
	}
	return toCandidate(p), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewUpstreamError("CATALOG_UNREACHABLE", "catalog request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNoDataError("PRODUCT_NOT_FOUND", "product not found")
	case resp.StatusCode != http.StatusOK:
		return domain.NewUpstreamError("CATALOG_ERROR",
			fmt.Sprintf("catalog returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUpstreamError("CATALOG_BAD_RESPONSE", "decode catalog response", err)
	}
	return nil
}

func toCandidate(p productDTO) domain.Candidate {
	created, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		created = time.Time{}
	}
	return domain.Candidate{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Currency:   p.Currency,
		Category:   p.Category,
		Thumbnail:  p.Thumbnail,
		Available:  p.Available,
		Popularity: p.Popularity,
		CreatedAt:  created,
	}
}
