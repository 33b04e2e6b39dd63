// Package widget provides the text editing surfaces the collaboration
// layers bind to. The TextField contract is what the sync and cursor
// overlay packages program against; TextArea is the tcell-backed
// implementation, Label a read-only surface without a selection.
package widget

type Direction int

const (
	DirNone Direction = iota
	DirForward
	DirBackward
)

func (d Direction) String() string {
	switch d {
	case DirForward:
		return "forward"
	case DirBackward:
		return "backward"
	default:
		return "none"
	}
}

// EventKind names the widget interactions collaboration code can
// subscribe to. Select fires after any user interaction that may have
// moved the selection (key release, mouse release, paste, cut); Input
// fires when the user changed the text; Scroll and Blur are what they
// say.
type EventKind int

const (
	EventInput EventKind = iota
	EventSelect
	EventScroll
	EventBlur
)

// Rect is a screen-cell rectangle.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersect clips r against o. The result is empty when they do not
// overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.W, o.X+o.W)
	y2 := min(r.Y+r.H, o.Y+o.H)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Widget is the minimal surface every widget exposes.
type Widget interface {
	ID() string
	Value() string
}

// TextField is a widget with a readable and writable selection, the
// contract the binding and overlay layers require. Offsets are runes;
// coordinates are screen cells.
type TextField interface {
	Widget
	SetValue(string)
	Selection() (start, end int, dir Direction)
	SetSelection(start, end int, dir Direction)
	Focused() bool

	// CaretCoords returns the cell position of a rune offset relative
	// to the content origin, before scrolling.
	CaretCoords(offset int) (x, y int)
	Origin() (x, y int)
	ScrollOffset() (x, y int)
	ViewRect() Rect
	LineHeight() int

	On(kind EventKind, fn func()) (cancel func())
}
