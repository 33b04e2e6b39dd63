package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"collab/colorhash"
	"collab/config"
)

// Peer is one connected collaborator shown on the bar, tinted with the
// color their cursor marker uses.
type Peer struct {
	Name  string
	Color colorhash.RGB
}

type StatusBar struct {
	Mode    string // "HOST" or "JOIN"
	Server  string
	Session string // shortened session id
	Line    int
	Col     int
	Peers   []Peer
	Message string // temporary status message
	Theme   *config.ColorScheme
}

func NewStatusBar() *StatusBar {
	return &StatusBar{Mode: "JOIN"}
}

func (s *StatusBar) Render(screen tcell.Screen, x, y, width int) {
	theme := s.Theme
	if theme == nil {
		theme = config.Themes["monokai"]
	}

	style := tcell.StyleDefault.Background(theme.StatusBarBg).Foreground(theme.StatusBarFg)
	modeStyle := tcell.StyleDefault.Background(theme.StatusBarModeBg).Foreground(tcell.ColorWhite).Bold(true)

	// Clear the line
	for cx := x; cx < x+width; cx++ {
		screen.SetContent(cx, y, ' ', nil, style)
	}

	col := x

	mode := " " + s.Mode + " "
	for _, ch := range mode {
		if col < x+width {
			screen.SetContent(col, y, ch, nil, modeStyle)
			col++
		}
	}

	if col < x+width {
		screen.SetContent(col, y, ' ', nil, style)
		col++
	}

	// If there's a temporary message, show that instead
	if s.Message != "" {
		for _, ch := range s.Message {
			if col < x+width {
				screen.SetContent(col, y, ch, nil, style)
				col++
			}
		}
		return
	}

	left := s.Server
	if s.Session != "" {
		left = fmt.Sprintf("%s · %s", s.Server, s.Session)
	}
	for _, ch := range left {
		if col < x+width {
			screen.SetContent(col, y, ch, nil, style)
			col++
		}
	}

	// Right-aligned: peer names in their colors, then the caret position.
	pos := fmt.Sprintf(" Ln %d, Col %d ", s.Line+1, s.Col+1)
	peerLen := 0
	for _, p := range s.Peers {
		peerLen += len([]rune(p.Name)) + 1
	}
	rightStart := x + width - len([]rune(pos)) - peerLen
	if rightStart <= col+2 {
		return
	}

	cx := rightStart
	for _, p := range s.Peers {
		pStyle := style.Foreground(tcell.NewRGBColor(int32(p.Color.R), int32(p.Color.G), int32(p.Color.B))).Bold(true)
		for _, ch := range p.Name {
			screen.SetContent(cx, y, ch, nil, pStyle)
			cx++
		}
		screen.SetContent(cx, y, ' ', nil, style)
		cx++
	}
	for _, ch := range pos {
		screen.SetContent(cx, y, ch, nil, style)
		cx++
	}
}
