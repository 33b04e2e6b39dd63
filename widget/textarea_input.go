package widget

import (
	"github.com/gdamore/tcell/v2"

	"collab/clipboardx"
)

// HandleKey processes one key event. It returns true when the event
// was consumed.
func (t *TextArea) HandleKey(ev *tcell.EventKey) bool {
	if !t.focused {
		return false
	}
	extend := ev.Modifiers()&tcell.ModShift != 0

	switch ev.Key() {
	case tcell.KeyLeft:
		t.collapseOrMove(-1, 0, extend)
	case tcell.KeyRight:
		t.collapseOrMove(1, 0, extend)
	case tcell.KeyUp:
		t.moveCaret(0, -1, extend)
	case tcell.KeyDown:
		t.moveCaret(0, 1, extend)
	case tcell.KeyHome:
		line, _ := t.lineCol(t.caretOff)
		t.setCaret(t.offsetAt(line, 0), extend)
	case tcell.KeyEnd:
		line, _ := t.lineCol(t.caretOff)
		t.setCaret(t.offsetAt(line, len(t.lines()[line])), extend)
	case tcell.KeyPgUp:
		t.moveCaret(0, -t.pageSize(), extend)
	case tcell.KeyPgDn:
		t.moveCaret(0, t.pageSize(), extend)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		t.backspace()
	case tcell.KeyDelete:
		t.deleteForward()
	case tcell.KeyEnter:
		t.insertText("\n")
	case tcell.KeyTab:
		t.insertText("\t")
	case tcell.KeyCtrlA:
		t.selectAll()
	case tcell.KeyCtrlC:
		if s := t.SelectedText(); s != "" {
			clipboardx.Write(s)
		}
	case tcell.KeyCtrlX:
		if s := t.SelectedText(); s != "" {
			clipboardx.Write(s)
			start, end, _ := t.Selection()
			t.deleteRange(start, end)
		}
	case tcell.KeyCtrlV:
		if s := clipboardx.Read(); s != "" {
			t.insertText(s)
		}
	case tcell.KeyRune:
		if ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) != 0 {
			return false
		}
		t.insertText(string(ev.Rune()))
	default:
		return false
	}
	return true
}

// collapseOrMove implements the usual left/right behavior: with an
// active selection and no shift, the caret jumps to the selection edge
// instead of moving past it.
func (t *TextArea) collapseOrMove(dx, dy int, extend bool) {
	start, end, _ := t.Selection()
	if !extend && start != end {
		if dx < 0 {
			t.setCaret(start, false)
		} else {
			t.setCaret(end, false)
		}
		return
	}
	t.moveCaret(dx, dy, extend)
}

func (t *TextArea) pageSize() int {
	if t.frame.H > 1 {
		return t.frame.H - 1
	}
	return 1
}

// HandleMouse processes click, drag, release and wheel events inside
// the frame. It returns true when the event was consumed.
func (t *TextArea) HandleMouse(ev *tcell.EventMouse) bool {
	x, y := ev.Position()
	inside := x >= t.frame.X && x < t.frame.X+t.frame.W &&
		y >= t.frame.Y && y < t.frame.Y+t.frame.H

	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		if !inside {
			return false
		}
		t.scrollBy(0, -3)
	case ev.Buttons()&tcell.WheelDown != 0:
		if !inside {
			return false
		}
		t.scrollBy(0, 3)
	case ev.Buttons()&tcell.Button1 != 0:
		if !t.mouseDown {
			if !inside {
				return false
			}
			t.mouseDown = true
			t.setCaret(t.offsetAtScreen(x, y), false)
		} else {
			t.setCaret(t.offsetAtScreen(x, y), true)
		}
	default:
		if !t.mouseDown {
			return false
		}
		t.mouseDown = false
	}
	return true
}

// offsetAtScreen maps a screen cell to the nearest rune offset.
func (t *TextArea) offsetAtScreen(x, y int) int {
	line := y - t.frame.Y + t.scrollY
	target := x - t.frame.X + t.scrollX
	ls := t.lines()
	if line < 0 {
		return 0
	}
	if line >= len(ls) {
		return len(t.value)
	}
	return t.offsetAt(line, runeCol(ls[line], target, t.tabSize))
}
