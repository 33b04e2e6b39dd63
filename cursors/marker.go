package cursors

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"collab/colorhash"
	"collab/config"
	"collab/widget"
)

// State says how a marker currently renders.
type State uint8

const (
	StateHidden State = iota
	StateCaret
	StateRange
)

// Marker is the on-screen representation of one remote peer's cursor or
// selection inside one text field. The overlay owns it: created when a
// peer first reports an active selection, destroyed when the peer
// leaves.
type Marker struct {
	peer  int
	name  string
	color colorhash.RGB

	start, end int
	hasOffsets bool

	state State
	rect  widget.Rect

	labelX, labelY int
	showLabel      bool

	destroyed bool
}

func newMarker(peer int) *Marker {
	return &Marker{peer: peer, color: colorhash.ForInt(peer)}
}

func (m *Marker) Peer() int    { return m.peer }
func (m *Marker) State() State { return m.state }

// UpdateLabel takes the peer's advertised name and color. Unchanged
// values are a no-op so steady-state presence traffic causes no churn.
func (m *Marker) UpdateLabel(name, color string) {
	c, ok := colorhash.ParseHex(color)
	if !ok {
		c = colorhash.ForInt(m.peer)
	}
	if name == m.name && c == m.color {
		return
	}
	m.name = name
	m.color = c
}

func (m *Marker) SetOffsets(start, end int) {
	m.start, m.end = start, end
	m.hasOffsets = true
}

func (m *Marker) ClearOffsets() {
	m.hasOffsets = false
}

func (m *Marker) Show() {
	if m.state == StateHidden {
		m.state = StateCaret
	}
}

func (m *Marker) Hide() {
	m.state = StateHidden
	m.showLabel = false
}

// Reposition recomputes the marker's screen rectangle from its offsets
// and the field's current geometry, clipping to the visible area. A
// selection spanning multiple lines collapses to a one-cell caret; a
// marker scrolled fully out of view hides.
func (m *Marker) Reposition(f widget.TextField) {
	if m.destroyed || !m.hasOffsets {
		m.Hide()
		return
	}

	ox, oy := f.Origin()
	sx, sy := f.ScrollOffset()
	startX, startY := f.CaretCoords(m.start)
	endX, endY := f.CaretCoords(m.end)

	rect := widget.Rect{
		X: ox + startX - sx,
		Y: oy + startY - sy,
		W: 1,
		H: f.LineHeight(),
	}
	state := StateCaret
	if m.start != m.end && startY == endY && endX > startX {
		rect.W = endX - startX
		state = StateRange
	}

	view := f.ViewRect()
	clipped := rect.Intersect(view)
	if clipped.Empty() {
		m.Hide()
		return
	}

	m.rect = clipped
	m.state = state
	m.labelX = clipped.X
	m.labelY = clipped.Y + f.LineHeight()
	if m.labelY >= view.Y+view.H {
		// Caret on the last visible row: flip the label above it so
		// the peer's name is not clipped away.
		m.labelY = clipped.Y - 1
	}
	m.showLabel = m.name != "" &&
		m.labelX >= view.X && m.labelX < view.X+view.W &&
		m.labelY >= view.Y && m.labelY < view.Y+view.H
}

func (m *Marker) destroy() {
	m.destroyed = true
	m.Hide()
}

// Render paints the marker. A caret is the peer's color at full
// strength; a range is the color blended toward the background so the
// underlying text stays readable.
func (m *Marker) Render(screen tcell.Screen, theme *config.ColorScheme) {
	if m.state == StateHidden {
		return
	}

	fill := rgbToTcell(m.color)
	if m.state == StateRange {
		fill = blendToward(m.color, theme.Background)
	}
	style := tcell.StyleDefault.Background(fill).Foreground(theme.Foreground)

	for x := m.rect.X; x < m.rect.X+m.rect.W; x++ {
		for y := m.rect.Y; y < m.rect.Y+m.rect.H; y++ {
			r, _, _, _ := screen.GetContent(x, y)
			screen.SetContent(x, y, r, nil, style)
		}
	}

	if m.showLabel {
		labelStyle := tcell.StyleDefault.Background(rgbToTcell(m.color)).Foreground(tcell.ColorBlack)
		x := m.labelX
		for _, r := range m.name {
			screen.SetContent(x, m.labelY, r, nil, labelStyle)
			x += runewidth.RuneWidth(r)
		}
	}
}

func rgbToTcell(c colorhash.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// blendToward mixes the peer color with the theme background in Lab
// space, the terminal stand-in for a translucent fill.
func blendToward(c colorhash.RGB, bg tcell.Color) tcell.Color {
	br, bgreen, bb := bg.TrueColor().RGB()
	peer := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	back := colorful.Color{R: float64(br) / 255, G: float64(bgreen) / 255, B: float64(bb) / 255}
	mixed := peer.BlendLab(back, 0.55).Clamped()
	mr, mg, mb := mixed.RGB255()
	return tcell.NewRGBColor(int32(mr), int32(mg), int32(mb))
}
