package editor

import "github.com/gdamore/tcell/v2"

func (e *Editor) render() {
	w, h := e.screen.Size()
	if w == 0 || h == 0 {
		return
	}

	bg := tcell.StyleDefault.Background(e.theme.Background).Foreground(e.theme.Foreground)
	e.screen.Fill(' ', bg)

	e.header.Render(e.screen, e.theme)
	e.area.Render(e.screen, e.theme)
	// Remote markers paint over the text area, then the bar over both.
	e.overlay.Render(e.screen, e.theme)
	if h >= 2 {
		e.statusBar.Render(e.screen, 0, h-1, w)
	}

	e.screen.Show()
}
