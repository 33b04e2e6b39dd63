package widget

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"collab/config"
)

// Label is a read-only single-line widget. It satisfies Widget but not
// TextField, so binding one to a document is rejected.
type Label struct {
	id    string
	text  string
	frame Rect
}

func NewLabel(id, text string) *Label {
	return &Label{id: id, text: text}
}

func (l *Label) ID() string        { return l.id }
func (l *Label) Value() string     { return l.text }
func (l *Label) SetText(s string)  { l.text = s }
func (l *Label) SetFrame(x, y, w, h int) {
	l.frame = Rect{X: x, Y: y, W: w, H: h}
}

func (l *Label) Render(screen tcell.Screen, theme *config.ColorScheme) {
	if l.frame.Empty() {
		return
	}
	style := tcell.StyleDefault.Background(theme.Background).Foreground(theme.Hint)
	x := l.frame.X
	for _, r := range l.text {
		if x >= l.frame.X+l.frame.W {
			break
		}
		screen.SetContent(x, l.frame.Y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	for ; x < l.frame.X+l.frame.W; x++ {
		screen.SetContent(x, l.frame.Y, ' ', nil, style)
	}
}
