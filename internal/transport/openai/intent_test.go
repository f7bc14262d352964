package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestParseIntent(t *testing.T) {
	content := `{
		"category": " Dresses ",
		"occasion": "Wedding",
		"style": "blue",
		"price_min": 20,
		"price_max": 100,
		"confidence": 0.85,
		"explanation": "Blue dresses for a wedding under $100 ",
		"refinements": ["summer dresses", "cocktail dresses"]
	}`

	got, err := parseIntent("blue wedding dress under 100", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Query != "blue wedding dress under 100" {
		t.Errorf("intent must carry the raw query, got %q", got.Query)
	}
	if got.Category != "dresses" || got.Occasion != "wedding" || got.Style != "blue" {
		t.Errorf("fields must be lowercased and trimmed: %+v", got)
	}
	if got.PriceMin == nil || *got.PriceMin != 20 || got.PriceMax == nil || *got.PriceMax != 100 {
		t.Error("price bounds must carry through")
	}
	if got.Confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", got.Confidence)
	}
	if got.Explanation != "Blue dresses for a wedding under $100" {
		t.Errorf("unexpected explanation %q", got.Explanation)
	}
	if got.Degraded {
		t.Error("parsed intents are not degraded")
	}
}

func TestParseIntent_CodeFences(t *testing.T) {
	content := "```json\n{\"category\": \"shoes\", \"confidence\": 0.7}\n```"
	got, err := parseIntent("sneakers", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Category != "shoes" {
		t.Errorf("expected shoes, got %q", got.Category)
	}
}

func TestParseIntent_ClampsConfidence(t *testing.T) {
	got, err := parseIntent("q", `{"confidence": 1.8}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Confidence != 1 {
		t.Errorf("expected clamp to 1, got %v", got.Confidence)
	}

	got, err = parseIntent("q", `{"confidence": -0.2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Confidence != 0 {
		t.Errorf("expected clamp to 0, got %v", got.Confidence)
	}
}

func TestParseIntent_CapsRefinements(t *testing.T) {
	content := `{"confidence": 0.9, "refinements": ["a","b","c","d","e","f"]}`
	got, err := parseIntent("q", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Refinements) != 4 {
		t.Errorf("expected at most 4 refinements, got %d", len(got.Refinements))
	}
}

func TestParseIntent_Malformed(t *testing.T) {
	_, err := parseIntent("q", "I think the shopper wants a dress")
	if !errors.Is(err, errMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}, true},
		{"rate limited", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400, Message: "bad prompt"}, false},
		{"auth failure", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classifyAPIError(c.err)
			if IsTransient(got) != c.wantTransient {
				t.Errorf("classifyAPIError(%v): transient = %v, want %v", c.err, IsTransient(got), c.wantTransient)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(errors.New("plain")) {
		t.Error("plain errors are not transient")
	}
	if !IsTransient(&TransientError{Err: errors.New("x")}) {
		t.Error("TransientError must classify as transient")
	}
}
