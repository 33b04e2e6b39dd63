package binding

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"collab/doc"
	"collab/widget"
)

// spyField counts SetValue calls so tests can tell a real refresh from
// a suppressed echo.
type spyField struct {
	*widget.TextArea
	setValues int
}

func (s *spyField) SetValue(v string) {
	s.setValues++
	s.TextArea.SetValue(v)
}

func newBound(t *testing.T, initial string) (*doc.Document, *spyField, *Binding) {
	t.Helper()
	d := doc.New(1)
	if err := d.Insert(0, initial); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f := &spyField{TextArea: widget.NewTextArea("main", 4)}
	f.SetFrame(0, 0, 40, 10)
	f.SetFocused(true)
	b, err := New(d, f)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.setValues = 0 // ignore the initial content push
	return d, f, b
}

func typeRune(f *spyField, r rune) {
	f.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
}

func TestNewRejectsNonTextField(t *testing.T) {
	d := doc.New(1)
	if _, err := New(d, widget.NewLabel("status", "read only")); err != ErrInvalidWidget {
		t.Fatalf("err = %v, want ErrInvalidWidget", err)
	}
}

func TestNewPushesDocumentContent(t *testing.T) {
	d := doc.New(1)
	if err := d.Insert(0, "shared text"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f := widget.NewTextArea("main", 4)
	if _, err := New(d, f); err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Value() != "shared text" {
		t.Fatalf("widget value = %q, want %q", f.Value(), "shared text")
	}
}

func TestTypingReachesDocument(t *testing.T) {
	d, f, _ := newBound(t, "helo")
	f.SetSelection(3, 3, widget.DirNone)

	typeRune(f, 'l')
	if got := d.Text(); got != "hello" {
		t.Fatalf("doc text = %q, want %q", got, "hello")
	}
}

func TestLocalEchoSuppressed(t *testing.T) {
	d, f, _ := newBound(t, "ab")
	f.SetSelection(2, 2, widget.DirNone)

	typeRune(f, 'c')
	if f.setValues != 0 {
		t.Fatalf("widget rewritten %d times for its own typing, want 0", f.setValues)
	}
	if d.Text() != "abc" || f.Value() != "abc" {
		t.Fatalf("doc=%q widget=%q, want both %q", d.Text(), f.Value(), "abc")
	}
}

func TestSelectionReplacedByTyping(t *testing.T) {
	d, f, _ := newBound(t, "hello world")
	f.SetSelection(6, 11, widget.DirForward)

	typeRune(f, 'W')
	if got := d.Text(); got != "hello W" {
		t.Fatalf("doc text = %q, want %q", got, "hello W")
	}
	start, end, _ := f.Selection()
	if start != 7 || end != 7 {
		t.Fatalf("selection = [%d,%d], want collapsed at 7", start, end)
	}
}

func TestRemoteEditRefreshesWidget(t *testing.T) {
	d, f, _ := newBound(t, "hello")

	peer := doc.New(2)
	var fromPeer []string
	peer.ObserveOps(func(ops []string) { fromPeer = append(fromPeer, ops...) })
	if err := peer.ApplyRemote(d.Snapshot()); err != nil {
		t.Fatalf("peer sync: %v", err)
	}
	if err := peer.Insert(5, "!"); err != nil {
		t.Fatalf("peer insert: %v", err)
	}
	if err := d.ApplyRemote(fromPeer); err != nil {
		t.Fatalf("ApplyRemote: %v", err)
	}

	if f.Value() != "hello!" {
		t.Fatalf("widget value = %q, want %q", f.Value(), "hello!")
	}
	if f.setValues != 1 {
		t.Fatalf("SetValue called %d times for one remote edit, want 1", f.setValues)
	}
}

func TestRemoteInsertBeforeSelectionShiftsIt(t *testing.T) {
	d, f, _ := newBound(t, "hello world")
	f.SetSelection(5, 5, widget.DirNone)

	peer := doc.New(2)
	var fromPeer []string
	peer.ObserveOps(func(ops []string) { fromPeer = append(fromPeer, ops...) })
	if err := peer.ApplyRemote(d.Snapshot()); err != nil {
		t.Fatalf("peer sync: %v", err)
	}
	if err := peer.Insert(0, "X"); err != nil {
		t.Fatalf("peer insert: %v", err)
	}
	if err := d.ApplyRemote(fromPeer); err != nil {
		t.Fatalf("ApplyRemote: %v", err)
	}

	start, end, _ := f.Selection()
	if start != 6 || end != 6 {
		t.Fatalf("selection = [%d,%d], want [6,6] after insert before it", start, end)
	}
}

func TestUnfocusedWidgetKeepsItsSelection(t *testing.T) {
	d, f, _ := newBound(t, "hello world")
	f.SetSelection(5, 5, widget.DirNone)
	f.SetFocused(false)

	peer := doc.New(2)
	var fromPeer []string
	peer.ObserveOps(func(ops []string) { fromPeer = append(fromPeer, ops...) })
	if err := peer.ApplyRemote(d.Snapshot()); err != nil {
		t.Fatalf("peer sync: %v", err)
	}
	if err := peer.Insert(0, "X"); err != nil {
		t.Fatalf("peer insert: %v", err)
	}
	if err := d.ApplyRemote(fromPeer); err != nil {
		t.Fatalf("ApplyRemote: %v", err)
	}

	if f.Value() != "Xhello world" {
		t.Fatalf("widget value = %q, want %q", f.Value(), "Xhello world")
	}
	// Content still refreshes, but an unfocused widget's selection is
	// left alone rather than re-anchored.
	start, end, _ := f.Selection()
	if start != 5 || end != 5 {
		t.Fatalf("selection = [%d,%d], want untouched [5,5]", start, end)
	}
}

func TestRemoteEditPreservesSelectionDirection(t *testing.T) {
	d, f, _ := newBound(t, "hello world")
	f.SetSelection(2, 7, widget.DirBackward)

	peer := doc.New(2)
	var fromPeer []string
	peer.ObserveOps(func(ops []string) { fromPeer = append(fromPeer, ops...) })
	if err := peer.ApplyRemote(d.Snapshot()); err != nil {
		t.Fatalf("peer sync: %v", err)
	}
	if err := peer.Insert(11, "!"); err != nil {
		t.Fatalf("peer insert: %v", err)
	}
	if err := d.ApplyRemote(fromPeer); err != nil {
		t.Fatalf("ApplyRemote: %v", err)
	}

	start, end, dir := f.Selection()
	if start != 2 || end != 7 || dir != widget.DirBackward {
		t.Fatalf("selection = [%d,%d,%v], want [2,7,backward]", start, end, dir)
	}
}

func TestSelectionInsideRemoteDeleteCollapses(t *testing.T) {
	d, f, _ := newBound(t, "abcdef")
	f.SetSelection(2, 4, widget.DirForward)

	peer := doc.New(2)
	var fromPeer []string
	peer.ObserveOps(func(ops []string) { fromPeer = append(fromPeer, ops...) })
	if err := peer.ApplyRemote(d.Snapshot()); err != nil {
		t.Fatalf("peer sync: %v", err)
	}
	if err := peer.Delete(1, 4); err != nil {
		t.Fatalf("peer delete: %v", err)
	}
	if err := d.ApplyRemote(fromPeer); err != nil {
		t.Fatalf("ApplyRemote: %v", err)
	}

	if f.Value() != "af" {
		t.Fatalf("widget value = %q, want %q", f.Value(), "af")
	}
	start, end, _ := f.Selection()
	if start < 0 || end > 2 || start > end {
		t.Fatalf("selection = [%d,%d], want clamped inside %q", start, end, f.Value())
	}
}

func TestBackspaceMiddleOfWord(t *testing.T) {
	d, f, _ := newBound(t, "worrd")
	f.SetSelection(4, 4, widget.DirNone)

	f.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	if got := d.Text(); got != "word" {
		t.Fatalf("doc text = %q, want %q", got, "word")
	}
}

func TestDestroyDetachesBothSides(t *testing.T) {
	d, f, b := newBound(t, "text")
	b.Destroy()
	b.Destroy() // idempotent

	typeRune(f, 'x')
	if d.Text() != "text" {
		t.Fatalf("doc changed after Destroy: %q", d.Text())
	}

	if err := d.Insert(0, "y"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if f.Value() == d.Text() {
		t.Fatalf("widget still tracking document after Destroy")
	}
}
