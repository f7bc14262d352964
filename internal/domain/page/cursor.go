// Package page turns a ranked product sequence into stable, cursor-addressable
// pages. Cursors are opaque tokens bound to the ordering that produced them.
package page

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/glowmart/aisearch/internal/domain"
)

// Direction selects which way a cursor is traversed.
type Direction string

// Traversal directions.
const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ParseDirection normalizes a caller-supplied direction, defaulting to forward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Forward):
		return Forward, nil
	case string(Backward):
		return Backward, nil
	default:
		return "", domain.NewValidationError("INVALID_DIRECTION",
			fmt.Sprintf("direction must be forward or backward, got %q", s))
	}
}

// Cursor addresses a position in one specific ordering. Pos is the absolute
// offset of the page boundary; Fingerprint pins the ordering that produced it.
type Cursor struct {
	Pos         int    `json:"pos"`
	Fingerprint string `json:"fp"`
}

// Fingerprint derives the ordering identity from its normalized inputs.
func Fingerprint(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:8])
}

// Encode serializes the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token and checks it against the current ordering
// fingerprint. A cursor minted for a different query fails validation instead
// of silently returning an arbitrary page.
func DecodeCursor(token, fingerprint string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, domain.NewValidationError("INVALID_CURSOR", "cursor is not a valid token")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.Pos < 0 {
		return Cursor{}, domain.NewValidationError("INVALID_CURSOR", "cursor is not a valid token")
	}
	if c.Fingerprint != fingerprint {
		return Cursor{}, domain.NewValidationError("CURSOR_MISMATCH",
			"cursor does not match this query")
	}
	return c, nil
}
