// Package binding keeps a text field and a replicated document showing
// the same content. Local edits become document operations through a
// cursor-hinted diff, remote edits flow back into the widget with the
// selection re-anchored, and the widget is never rewritten in response
// to its own typing.
package binding

import (
	"errors"

	"collab/doc"
	"collab/textdiff"
	"collab/widget"
)

// ErrInvalidWidget is returned when the widget does not support text
// editing.
var ErrInvalidWidget = errors.New("binding: widget is not a text field")

// Binding is a live two-way connection between one document and one
// text field. Like the document it is confined to the UI event loop.
type Binding struct {
	doc   *doc.Document
	field widget.TextField

	// justTyped is armed before each document call made on behalf of
	// the widget's own input, and consumed by the mutation observer so
	// the widget is not redundantly rewritten with text it already has.
	justTyped bool

	// Selection state captured right before each mutation. The raw
	// offsets back up the anchors when the selected text was deleted.
	startAnchor, endAnchor doc.Anchor
	startOff, endOff       int
	dir                    widget.Direction

	cancels   []func()
	destroyed bool
}

// New binds w to d and pushes the document's current content into the
// widget. It fails with ErrInvalidWidget when w cannot edit text.
func New(d *doc.Document, w widget.Widget) (*Binding, error) {
	field, ok := w.(widget.TextField)
	if !ok {
		return nil, ErrInvalidWidget
	}

	b := &Binding{doc: d, field: field}
	field.SetValue(d.Text())

	b.cancels = append(b.cancels,
		d.ObserveBefore(b.capture),
		d.ObserveAfter(b.refresh),
		field.On(widget.EventInput, b.push),
	)
	return b, nil
}

// Destroy detaches the binding from both sides. Safe to call twice.
func (b *Binding) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// capture snapshots the widget selection as document anchors before a
// mutation lands, so refresh can restore it in the new coordinates.
func (b *Binding) capture() {
	start, end, dir := b.field.Selection()
	b.startAnchor = b.doc.CreateAnchor(start)
	b.endAnchor = b.doc.CreateAnchor(end)
	b.startOff, b.endOff = start, end
	b.dir = dir
}

// refresh mirrors a document mutation into the widget. Mutations the
// widget itself caused are skipped.
func (b *Binding) refresh(local bool) {
	if local && b.justTyped {
		b.justTyped = false
		return
	}

	b.field.SetValue(b.doc.Text())

	// Only a focused widget owns a live selection worth restoring;
	// SetValue already clamped whatever an unfocused one had.
	if !b.field.Focused() {
		return
	}

	start, ok := b.doc.ResolveAnchor(b.startAnchor)
	if !ok {
		start = clampOffset(b.startOff, b.doc.Len())
	}
	end, ok := b.doc.ResolveAnchor(b.endAnchor)
	if !ok {
		end = clampOffset(b.endOff, b.doc.Len())
	}
	if end < start {
		end = start
	}
	b.field.SetSelection(start, end, b.dir)
}

// push converts the widget's latest input into document operations.
func (b *Binding) push() {
	oldText := b.doc.Text()
	newText := b.field.Value()
	if oldText == newText {
		return
	}

	// After an edit the selection is collapsed at the caret, which is
	// exactly the hint the diff wants.
	caret, _, _ := b.field.Selection()
	script := textdiff.Diff(oldText, newText, caret)

	off := 0
	for _, seg := range script {
		n := len([]rune(seg.Text))
		switch seg.Kind {
		case textdiff.Equal:
			off += n
		case textdiff.Delete:
			b.justTyped = true
			b.doc.Delete(off, n)
		case textdiff.Insert:
			b.justTyped = true
			b.doc.Insert(off, seg.Text)
			off += n
		}
	}
}

func clampOffset(off, n int) int {
	if off < 0 {
		return 0
	}
	if off > n {
		return n
	}
	return off
}
