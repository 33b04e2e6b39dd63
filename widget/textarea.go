package widget

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"collab/config"
)

// TextArea is a multi-line plain-text field rendered on a tcell screen.
// It keeps its content as a flat rune slice so the selection, the caret
// geometry and the sync layer all speak the same rune offsets.
type TextArea struct {
	id    string
	value []rune

	// anchorOff is where the selection started, caretOff where it
	// currently is; caretOff < anchorOff means a backward selection.
	anchorOff int
	caretOff  int

	frame            Rect
	scrollX, scrollY int
	tabSize          int
	focused          bool

	mouseDown bool

	// stickyCol remembers the display column across vertical moves so
	// the caret returns to it after crossing a shorter line. Negative
	// means unset.
	stickyCol int

	handlers map[EventKind][]*handler
}

type handler struct{ fn func() }

func NewTextArea(id string, tabSize int) *TextArea {
	if tabSize <= 0 {
		tabSize = 4
	}
	return &TextArea{
		id:        id,
		tabSize:   tabSize,
		stickyCol: -1,
		handlers:  map[EventKind][]*handler{},
	}
}

func (t *TextArea) ID() string    { return t.id }
func (t *TextArea) Value() string { return string(t.value) }

// SetValue replaces the content programmatically. The selection is
// clamped to the new bounds. No input event fires: only user edits do.
func (t *TextArea) SetValue(s string) {
	t.value = []rune(s)
	t.anchorOff = clampOffset(t.anchorOff, len(t.value))
	t.caretOff = clampOffset(t.caretOff, len(t.value))
}

func (t *TextArea) Selection() (start, end int, dir Direction) {
	switch {
	case t.caretOff > t.anchorOff:
		return t.anchorOff, t.caretOff, DirForward
	case t.caretOff < t.anchorOff:
		return t.caretOff, t.anchorOff, DirBackward
	default:
		return t.caretOff, t.caretOff, DirNone
	}
}

func (t *TextArea) SetSelection(start, end int, dir Direction) {
	start = clampOffset(start, len(t.value))
	end = clampOffset(end, len(t.value))
	if end < start {
		start, end = end, start
	}
	if dir == DirBackward {
		t.anchorOff, t.caretOff = end, start
	} else {
		t.anchorOff, t.caretOff = start, end
	}
}

func (t *TextArea) Focused() bool { return t.focused }

// SetFocused moves keyboard focus. Losing focus fires the blur event
// the collaboration layer uses to withdraw the published selection.
func (t *TextArea) SetFocused(f bool) {
	was := t.focused
	t.focused = f
	if was && !f {
		t.fire(EventBlur)
	}
}

// SetFrame assigns the on-screen rectangle during layout.
func (t *TextArea) SetFrame(x, y, w, h int) {
	t.frame = Rect{X: x, Y: y, W: w, H: h}
}

func (t *TextArea) Origin() (x, y int)       { return t.frame.X, t.frame.Y }
func (t *TextArea) ScrollOffset() (x, y int) { return t.scrollX, t.scrollY }
func (t *TextArea) ViewRect() Rect           { return t.frame }
func (t *TextArea) LineHeight() int          { return 1 }

func (t *TextArea) On(kind EventKind, fn func()) (cancel func()) {
	h := &handler{fn: fn}
	t.handlers[kind] = append(t.handlers[kind], h)
	return func() {
		hs := t.handlers[kind]
		for i, v := range hs {
			if v == h {
				t.handlers[kind] = append(hs[:i], hs[i+1:]...)
				return
			}
		}
	}
}

func (t *TextArea) fire(kind EventKind) {
	for _, h := range append([]*handler(nil), t.handlers[kind]...) {
		h.fn()
	}
}

// lines splits the content into rune lines. The trailing line is always
// present, empty content is a single empty line.
func (t *TextArea) lines() [][]rune {
	var out [][]rune
	start := 0
	for i, r := range t.value {
		if r == '\n' {
			out = append(out, t.value[start:i])
			start = i + 1
		}
	}
	out = append(out, t.value[start:])
	return out
}

// lineCol converts a rune offset to a line index and rune column.
func (t *TextArea) lineCol(offset int) (line, col int) {
	offset = clampOffset(offset, len(t.value))
	for i := 0; i < offset; i++ {
		if t.value[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return line, col
}

// offsetAt converts a line index and rune column back to an offset.
func (t *TextArea) offsetAt(line, col int) int {
	ls := t.lines()
	if line < 0 {
		return 0
	}
	if line >= len(ls) {
		return len(t.value)
	}
	off := 0
	for i := 0; i < line; i++ {
		off += len(ls[i]) + 1
	}
	if col > len(ls[line]) {
		col = len(ls[line])
	}
	if col < 0 {
		col = 0
	}
	return off + col
}

// CaretCoords returns the content-relative cell position of an offset:
// x is the display column with tabs expanded and wide runes counted,
// y the line index.
func (t *TextArea) CaretCoords(offset int) (x, y int) {
	line, col := t.lineCol(offset)
	ls := t.lines()
	return displayCol(ls[line], col, t.tabSize), line
}

// displayCol converts a rune column to a display column.
func displayCol(line []rune, col int, tabSize int) int {
	dc := 0
	for i, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			dc += tabSize - (dc % tabSize)
		} else {
			dc += runewidth.RuneWidth(r)
		}
	}
	return dc
}

// runeCol converts a display column back to the nearest rune column.
func runeCol(line []rune, target int, tabSize int) int {
	if target <= 0 {
		return 0
	}
	dc := 0
	for i, r := range line {
		var w int
		if r == '\t' {
			w = tabSize - (dc % tabSize)
		} else {
			w = runewidth.RuneWidth(r)
		}
		if dc+w > target {
			return i
		}
		dc += w
	}
	return len(line)
}

// insertText is the user-edit primitive: it replaces the selection (or
// inserts at the caret), then fires input and select events.
func (t *TextArea) insertText(s string) {
	start, end, _ := t.Selection()
	ins := []rune(s)
	t.value = append(t.value[:start], append(ins, t.value[end:]...)...)
	t.caretOff = start + len(ins)
	t.anchorOff = t.caretOff
	t.stickyCol = -1
	t.ensureCaretVisible()
	t.fire(EventInput)
	t.fire(EventSelect)
}

// deleteRange removes [start,end) as a user edit.
func (t *TextArea) deleteRange(start, end int) {
	if start >= end {
		return
	}
	t.value = append(t.value[:start], t.value[end:]...)
	t.caretOff = start
	t.anchorOff = start
	t.stickyCol = -1
	t.ensureCaretVisible()
	t.fire(EventInput)
	t.fire(EventSelect)
}

func (t *TextArea) backspace() {
	start, end, _ := t.Selection()
	if start != end {
		t.deleteRange(start, end)
		return
	}
	if start == 0 {
		return
	}
	t.deleteRange(start-1, start)
}

func (t *TextArea) deleteForward() {
	start, end, _ := t.Selection()
	if start != end {
		t.deleteRange(start, end)
		return
	}
	if start == len(t.value) {
		return
	}
	t.deleteRange(start, start+1)
}

// moveCaret moves by runes horizontally or lines vertically, extending
// the selection when extend is set, collapsing it otherwise.
func (t *TextArea) moveCaret(dx, dy int, extend bool) {
	off := t.caretOff
	if dy == 0 {
		off = clampOffset(off+dx, len(t.value))
		t.setCaret(off, extend)
		return
	}
	line, col := t.lineCol(off)
	ls := t.lines()
	dc := displayCol(ls[line], col, t.tabSize)
	if t.stickyCol >= 0 {
		dc = t.stickyCol
	}
	line += dy
	if line < 0 {
		line = 0
	}
	if line >= len(ls) {
		line = len(ls) - 1
	}
	off = t.offsetAt(line, runeCol(ls[line], dc, t.tabSize))
	t.setCaret(off, extend)
	t.stickyCol = dc
}

func (t *TextArea) setCaret(off int, extend bool) {
	t.stickyCol = -1
	t.caretOff = clampOffset(off, len(t.value))
	if !extend {
		t.anchorOff = t.caretOff
	}
	t.ensureCaretVisible()
	t.fire(EventSelect)
}

func (t *TextArea) selectAll() {
	t.anchorOff = 0
	t.caretOff = len(t.value)
	t.fire(EventSelect)
}

// scrollBy moves the viewport without touching the caret and fires the
// scroll event that repositions remote markers.
func (t *TextArea) scrollBy(dx, dy int) {
	t.scrollX = max(0, t.scrollX+dx)
	t.scrollY = max(0, min(t.scrollY+dy, len(t.lines())-1))
	t.fire(EventScroll)
}

func (t *TextArea) ensureCaretVisible() {
	if t.frame.Empty() {
		return
	}
	x, y := t.CaretCoords(t.caretOff)
	scrolled := false
	if y < t.scrollY {
		t.scrollY = y
		scrolled = true
	}
	if y >= t.scrollY+t.frame.H {
		t.scrollY = y - t.frame.H + 1
		scrolled = true
	}
	if x < t.scrollX {
		t.scrollX = x
		scrolled = true
	}
	if x >= t.scrollX+t.frame.W {
		t.scrollX = x - t.frame.W + 1
		scrolled = true
	}
	if scrolled {
		t.fire(EventScroll)
	}
}

// Render paints the visible content, the local selection and, when
// focused, the terminal cursor.
func (t *TextArea) Render(screen tcell.Screen, theme *config.ColorScheme) {
	if t.frame.Empty() {
		return
	}
	style := tcell.StyleDefault.Background(theme.Background).Foreground(theme.Foreground)
	selStyle := tcell.StyleDefault.Background(theme.Selection).Foreground(theme.Foreground)

	selStart, selEnd, _ := t.Selection()
	ls := t.lines()
	off := 0
	for line := 0; line < len(ls); line++ {
		rowRunes := ls[line]
		y := t.frame.Y + line - t.scrollY
		if y >= t.frame.Y && y < t.frame.Y+t.frame.H {
			// Clear the row first so stale cells never survive.
			for cx := t.frame.X; cx < t.frame.X+t.frame.W; cx++ {
				screen.SetContent(cx, y, ' ', nil, style)
			}
			dc := 0
			for col, r := range rowRunes {
				st := style
				if off+col >= selStart && off+col < selEnd {
					st = selStyle
				}
				if r == '\t' {
					w := t.tabSize - (dc % t.tabSize)
					for i := 0; i < w; i++ {
						t.setCell(screen, dc+i, y, ' ', st)
					}
					dc += w
					continue
				}
				t.setCell(screen, dc, y, r, st)
				dc += runewidth.RuneWidth(r)
			}
			// A selection crossing the newline shows as a trailing cell.
			if off+len(rowRunes) >= selStart && off+len(rowRunes) < selEnd {
				t.setCell(screen, dc, y, ' ', selStyle)
			}
		}
		off += len(rowRunes) + 1
	}

	if t.focused {
		cx, cy := t.CaretCoords(t.caretOff)
		sx := t.frame.X + cx - t.scrollX
		sy := t.frame.Y + cy - t.scrollY
		if sx >= t.frame.X && sx < t.frame.X+t.frame.W && sy >= t.frame.Y && sy < t.frame.Y+t.frame.H {
			screen.ShowCursor(sx, sy)
		} else {
			screen.HideCursor()
		}
	}
}

// setCell writes one cell at a content-relative display column,
// clipped to the frame.
func (t *TextArea) setCell(screen tcell.Screen, dc, y int, r rune, st tcell.Style) {
	x := t.frame.X + dc - t.scrollX
	if x < t.frame.X || x >= t.frame.X+t.frame.W {
		return
	}
	screen.SetContent(x, y, r, nil, st)
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

// SelectedText returns the text under the current selection.
func (t *TextArea) SelectedText() string {
	start, end, _ := t.Selection()
	return string(t.value[start:end])
}

// LineCount is used by layout and the status bar.
func (t *TextArea) LineCount() int {
	return strings.Count(string(t.value), "\n") + 1
}

// CaretPosition reports the caret's line and rune column for display.
func (t *TextArea) CaretPosition() (line, col int) {
	return t.lineCol(t.caretOff)
}
