package doc

// Anchor is a serializable reference to a logical offset that stays
// meaningful while other peers edit the document. It encodes the
// position of the atom the offset pointed at, or the end sentinel for
// an offset at the very end of the text. An anchor never changes once
// created; callers mint a new one whenever the tracked offset moves.
type Anchor string

const anchorEnd Anchor = "end"

// CreateAnchor returns an anchor for a rune offset, clamped to the
// document bounds. Capturing a selection may race a concurrent edit
// and hand in a slightly stale offset; clamping is the useful answer.
func (d *Document) CreateAnchor(offset int) Anchor {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(d.atoms) {
		return anchorEnd
	}
	return Anchor(d.atoms[offset].pos.Encode())
}

// ResolveAnchor maps an anchor back to a current rune offset. ok is
// false when the referenced atom no longer exists — the text it pointed
// into was deleted. That is an expected outcome, not an error.
func (d *Document) ResolveAnchor(a Anchor) (offset int, ok bool) {
	if a == anchorEnd {
		return len(d.atoms), true
	}
	pos, err := decodePosition(string(a))
	if err != nil {
		return 0, false
	}
	i, exact := d.search(pos)
	if !exact {
		return 0, false
	}
	return i, true
}
