package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&Config{BaseURL: srv.URL, APIKey: "test-key", Logger: zap.NewNop()}), srv
}

func TestFetchCandidates(t *testing.T) {
	var gotQuery map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[
			{"id":"p1","name":"Blue Dress","price":49.5,"currency":"USD","category":"dresses",
			 "available":true,"popularity":80,"createdAt":"2026-05-01T00:00:00Z"},
			{"id":"p2","name":"Red Dress","price":60,"currency":"USD","category":"dresses",
			 "available":false,"popularity":10,"createdAt":"not-a-date"}
		]}`))
	})

	min, max := 20.0, 80.0
	got, err := c.FetchCandidates(context.Background(), domain.CandidateFilter{
		Keyword:  "dress",
		Category: "dresses",
		PriceMin: &min,
		PriceMax: &max,
	}, "web", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["q"] != "dress" || gotQuery["category"] != "dresses" ||
		gotQuery["channel"] != "web" || gotQuery["limit"] != "100" {
		t.Errorf("unexpected query params: %v", gotQuery)
	}
	if gotQuery["price_min"] != "20" || gotQuery["price_max"] != "80" {
		t.Errorf("unexpected price params: %v", gotQuery)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != "p1" || got[0].Price != 49.5 || !got[0].Available {
		t.Errorf("unexpected candidate: %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected parsed createdAt")
	}
	if !got[1].CreatedAt.IsZero() {
		t.Error("unparseable createdAt must zero out, not fail the fetch")
	}
}

func TestFetchCandidates_CapsAtMaxCount(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"products":[
			{"id":"p1"},{"id":"p2"},{"id":"p3"}
		]}`))
	})

	got, err := c.FetchCandidates(context.Background(), domain.CandidateFilter{}, "web", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected the overflowing response trimmed to 2, got %d", len(got))
	}
}

func TestGetProduct(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/p1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"p1","name":"Blue Dress","price":49.5,"category":"dresses"}`))
	})

	got, err := c.GetProduct(context.Background(), "p1", "web")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "p1" || got.Name != "Blue Dress" {
		t.Errorf("unexpected product: %+v", got)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetProduct(context.Background(), "missing", "web")
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected no_data, got %v", err)
	}
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "PRODUCT_NOT_FOUND" {
		t.Errorf("expected PRODUCT_NOT_FOUND, got %v", err)
	}
}

func TestFetchCandidates_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FetchCandidates(context.Background(), domain.CandidateFilter{}, "web", 10)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "CATALOG_ERROR" {
		t.Errorf("expected CATALOG_ERROR, got %v", err)
	}
}

func TestFetchCandidates_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(&Config{BaseURL: srv.URL, Logger: zap.NewNop()})

	_, err := c.FetchCandidates(context.Background(), domain.CandidateFilter{}, "web", 10)
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "CATALOG_UNREACHABLE" {
		t.Fatalf("expected CATALOG_UNREACHABLE, got %v", err)
	}
	if !de.Retryable {
		t.Error("network failures must be retryable")
	}
}

func TestFetchCandidates_MalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"products": not json`))
	})

	_, err := c.FetchCandidates(context.Background(), domain.CandidateFilter{}, "web", 10)
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "CATALOG_BAD_RESPONSE" {
		t.Fatalf("expected CATALOG_BAD_RESPONSE, got %v", err)
	}
}
