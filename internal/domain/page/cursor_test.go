package page

import (
	"errors"
	"testing"

	"github.com/glowmart/aisearch/internal/domain"
)

func TestParseDirection(t *testing.T) {
	cases := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"", Forward, false},
		{"forward", Forward, false},
		{"Backward", Backward, false},
		{" backward ", Backward, false},
		{"sideways", "", true},
	}
	for _, c := range cases {
		got, err := ParseDirection(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseDirection(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDirection(%q): unexpected error %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseDirection(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	fp := Fingerprint("blue dress", "web")
	token := Cursor{Pos: 40, Fingerprint: fp}.Encode()

	c, err := DecodeCursor(token, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Pos != 40 {
		t.Errorf("expected pos 40, got %d", c.Pos)
	}
}

func TestDecodeCursor_WrongQuery(t *testing.T) {
	token := Cursor{Pos: 20, Fingerprint: Fingerprint("blue dress", "web")}.Encode()

	_, err := DecodeCursor(token, Fingerprint("red shoes", "web"))
	if err == nil {
		t.Fatal("expected error for a cursor from another query")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "CURSOR_MISMATCH" {
		t.Errorf("expected CURSOR_MISMATCH, got %+v", de)
	}
}

func TestDecodeCursor_Garbage(t *testing.T) {
	for _, token := range []string{"not base64!!!", "bm90IGpzb24", ""} {
		_, err := DecodeCursor(token, Fingerprint("q", "web"))
		if err == nil {
			t.Errorf("DecodeCursor(%q): expected error", token)
			continue
		}
		var de *domain.Error
		if !errors.As(err, &de) || de.Code != "INVALID_CURSOR" {
			t.Errorf("DecodeCursor(%q): expected INVALID_CURSOR, got %v", token, err)
		}
	}
}

func TestFingerprint_Distinguishes(t *testing.T) {
	if Fingerprint("blue dress", "web") == Fingerprint("blue dress", "mobile") {
		t.Error("different channels must produce different fingerprints")
	}
	if Fingerprint("blue dress", "web") != Fingerprint("blue dress", "web") {
		t.Error("fingerprint must be deterministic")
	}
}
