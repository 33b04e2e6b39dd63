package doc

import (
	"fmt"
	"strconv"
	"strings"
)

// base bounds a single path digit. Positions are variable-length digit
// paths ordered lexicographically, with a shorter path sorting before
// any extension of itself.
const base = 1 << 16

// Position identifies one atom of the document. A generated position
// ends with the generating site id and a per-document sequence number,
// so no two atoms ever share a position even across concurrent inserts
// at the same spot.
type Position []int

// Compare returns -1, 0 or 1 ordering a against b.
func (a Position) Compare(b Position) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Encode renders the position as dot-separated hex digits. The form is
// opaque to everything outside this package; it only needs to survive a
// round trip through op strings and presence records.
func (a Position) Encode() string {
	parts := make([]string, len(a))
	for i, d := range a {
		parts[i] = strconv.FormatInt(int64(d), 16)
	}
	return strings.Join(parts, ".")
}

func decodePosition(s string) (Position, error) {
	if s == "" {
		return nil, fmt.Errorf("empty position")
	}
	parts := strings.Split(s, ".")
	pos := make(Position, len(parts))
	for i, p := range parts {
		d, err := strconv.ParseInt(p, 16, 64)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("bad position %q", s)
		}
		pos[i] = int(d)
	}
	return pos, nil
}

// between returns a fresh position strictly between left and right.
// A nil left is the document start, a nil right the document end.
// The digit walk follows the left bound down until a level with room
// appears; the site/seq suffix both breaks concurrent ties and keeps
// every generated position unique.
func between(left, right Position, site, seq int) Position {
	var out Position
	rightHolds := true // right still constrains the current prefix
	for depth := 0; ; depth++ {
		leftVal := 0
		if depth < len(left) {
			leftVal = left[depth]
		}
		rightVal := base
		if rightHolds && depth < len(right) {
			rightVal = right[depth]
		}

		if rightVal-leftVal > 1 {
			mid := leftVal + (rightVal-leftVal)/2
			out = append(out, mid, site, seq)
			return out
		}

		// No room at this level: copy the left digit and descend. Once
		// the prefix drops strictly below the right bound, the right no
		// longer constrains deeper levels.
		out = append(out, leftVal)
		if leftVal < rightVal {
			rightHolds = false
		}
	}
}
