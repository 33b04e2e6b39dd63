// Package textdiff computes the edit script between two versions of a
// text field's content. The script is character level and cursor hinted:
// when several minimal scripts exist (typing "a" into "aaa" can be read
// as an insert at any offset), the hint picks the edit boundary closest
// to the cursor so the emitted operations match what the user actually
// typed instead of retyping the surrounding word.
package textdiff

type Kind uint8

const (
	Equal Kind = iota
	Insert
	Delete
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Segment is one hunk of an edit script. Text is the unchanged run for
// Equal, the removed run for Delete, and the added run for Insert.
type Segment struct {
	Kind Kind
	Text string
}

type Script []Segment

// Mutating reports whether the script contains any insert or delete.
func (s Script) Mutating() bool {
	for _, seg := range s {
		if seg.Kind != Equal {
			return true
		}
	}
	return false
}

// Diff returns the edit script transforming old into new. Offsets are in
// runes. cursor is the caret offset in the new text, clamped to its
// bounds; it slides the edit window, never changes the script's cost.
func Diff(oldText, newText string, cursor int) Script {
	if oldText == newText {
		return Script{{Kind: Equal, Text: oldText}}
	}

	a, b := []rune(oldText), []rune(newText)
	shorter := min(len(a), len(b))

	// Maximal common prefix and suffix.
	p := 0
	for p < shorter && a[p] == b[p] {
		p++
	}
	s := 0
	for s < shorter && a[len(a)-1-s] == b[len(b)-1-s] {
		s++
	}

	// The edit window must keep left <= p and right <= s while trimming
	// as much as possible. When prefix and suffix overlap there is more
	// than one minimal script; clamp the boundary toward the cursor.
	total := min(p+s, shorter)
	left := clamp(cursor, total-s, p)
	right := total - left

	var script Script
	if left > 0 {
		script = append(script, Segment{Kind: Equal, Text: string(a[:left])})
	}
	if del := a[left : len(a)-right]; len(del) > 0 {
		script = append(script, Segment{Kind: Delete, Text: string(del)})
	}
	if ins := b[left : len(b)-right]; len(ins) > 0 {
		script = append(script, Segment{Kind: Insert, Text: string(ins)})
	}
	if right > 0 {
		script = append(script, Segment{Kind: Equal, Text: string(a[len(a)-right:])})
	}
	return script
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
