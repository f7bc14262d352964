package page

import (
	"github.com/glowmart/aisearch/internal/domain"
)

// Limit bounds applied when the caller's limit is absent or out of range.
const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// Result is one page of a ranked sequence. Boundary cursors are empty at the
// respective edge.
type Result struct {
	Products   []domain.RankedProduct `json:"products"`
	NextCursor string                 `json:"nextCursor,omitempty"`
	PrevCursor string                 `json:"prevCursor,omitempty"`
}

// ClampLimit bounds a caller limit to [1, max], applying def when unset.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Paginate slices a ranked sequence at the cursor position. Forward reads the
// window after the cursor, backward the window before it. Traversing forward
// then backward over an unchanged ranking returns the identical page.
func Paginate(ranked []domain.RankedProduct, limit int, cursorToken string, dir Direction, fingerprint string) (Result, error) {
	n := len(ranked)

	start, end := 0, min(limit, n)
	if dir == Backward {
		start, end = max(0, n-limit), n
	}

	if cursorToken != "" {
		c, err := DecodeCursor(cursorToken, fingerprint)
		if err != nil {
			return Result{}, err
		}
		pos := min(c.Pos, n)
		if dir == Backward {
			start, end = max(0, pos-limit), pos
		} else {
			start, end = pos, min(pos+limit, n)
		}
	}

	res := Result{Products: ranked[start:end]}
	if end < n {
		res.NextCursor = Cursor{Pos: end, Fingerprint: fingerprint}.Encode()
	}
	if start > 0 {
		res.PrevCursor = Cursor{Pos: start, Fingerprint: fingerprint}.Encode()
	}
	return res, nil
}
