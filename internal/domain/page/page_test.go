package page

import (
	"testing"

	"github.com/glowmart/aisearch/internal/domain"
)

func ranked(n int) []domain.RankedProduct {
	out := make([]domain.RankedProduct, n)
	for i := range out {
		out[i] = domain.RankedProduct{
			Candidate: domain.Candidate{ID: string(rune('a' + i))},
			Score:     1.0 - float64(i)*0.01,
		}
	}
	return out
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		limit, def, max, want int
	}{
		{0, 20, 50, 20},
		{-3, 20, 50, 20},
		{10, 20, 50, 10},
		{50, 20, 50, 50},
		{100, 20, 50, 50},
		{1, 20, 50, 1},
	}
	for _, c := range cases {
		if got := ClampLimit(c.limit, c.def, c.max); got != c.want {
			t.Errorf("ClampLimit(%d, %d, %d) = %d, want %d", c.limit, c.def, c.max, got, c.want)
		}
	}
}

func TestPaginate_FirstPage(t *testing.T) {
	fp := Fingerprint("blue dress", "web")
	res, err := Paginate(ranked(25), 10, "", Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 10 {
		t.Fatalf("expected 10 products, got %d", len(res.Products))
	}
	if res.Products[0].Candidate.ID != "a" {
		t.Errorf("expected first product a, got %s", res.Products[0].Candidate.ID)
	}
	if res.NextCursor == "" {
		t.Error("expected next cursor on a partial first page")
	}
	if res.PrevCursor != "" {
		t.Error("first page must not have a prev cursor")
	}
}

func TestPaginate_LastPageShort(t *testing.T) {
	fp := Fingerprint("q", "web")
	first, err := Paginate(ranked(25), 10, "", Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Paginate(ranked(25), 10, first.NextCursor, Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	third, err := Paginate(ranked(25), 10, second.NextCursor, Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(third.Products) != 5 {
		t.Fatalf("expected 5 products on the last page, got %d", len(third.Products))
	}
	if third.NextCursor != "" {
		t.Error("last page must not have a next cursor")
	}
	if third.PrevCursor == "" {
		t.Error("last page should have a prev cursor")
	}
}

func TestPaginate_ForwardThenBackward(t *testing.T) {
	fp := Fingerprint("q", "web")
	items := ranked(30)

	first, err := Paginate(items, 10, "", Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Paginate(items, 10, first.NextCursor, Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := Paginate(items, 10, second.PrevCursor, Backward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(back.Products) != len(first.Products) {
		t.Fatalf("expected %d products going back, got %d", len(first.Products), len(back.Products))
	}
	for i := range back.Products {
		if back.Products[i].Candidate.ID != first.Products[i].Candidate.ID {
			t.Errorf("product %d: expected %s, got %s",
				i, first.Products[i].Candidate.ID, back.Products[i].Candidate.ID)
		}
	}
}

func TestPaginate_BackwardWithoutCursor_ReturnsLastPage(t *testing.T) {
	fp := Fingerprint("q", "web")
	res, err := Paginate(ranked(25), 10, "", Backward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 10 {
		t.Fatalf("expected 10 products, got %d", len(res.Products))
	}
	last := res.Products[len(res.Products)-1]
	if last.Candidate.ID != "y" {
		t.Errorf("expected last product y, got %s", last.Candidate.ID)
	}
	if res.NextCursor != "" {
		t.Error("last page must not have a next cursor")
	}
}

func TestPaginate_EmptySequence(t *testing.T) {
	fp := Fingerprint("q", "web")
	res, err := Paginate(nil, 10, "", Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 0 {
		t.Fatalf("expected no products, got %d", len(res.Products))
	}
	if res.NextCursor != "" || res.PrevCursor != "" {
		t.Error("empty sequence must not emit cursors")
	}
}

func TestPaginate_CursorBeyondEnd(t *testing.T) {
	fp := Fingerprint("q", "web")
	token := Cursor{Pos: 100, Fingerprint: fp}.Encode()
	res, err := Paginate(ranked(5), 10, token, Forward, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 0 {
		t.Fatalf("expected empty page past the end, got %d products", len(res.Products))
	}
	if res.PrevCursor == "" {
		t.Error("expected a prev cursor back into the sequence")
	}
}
