// Package editor runs the terminal UI for one session: a shared text
// area, the remote cursor overlay, and a status bar showing who else is
// connected. Everything mutating the document, presence store or
// widgets happens on the event loop; goroutines only post events.
package editor

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"

	"collab/binding"
	"collab/client"
	"collab/colorhash"
	"collab/config"
	"collab/cursors"
	"collab/ui"
	"collab/widget"
	"collab/wire"
)

// RemoteEvent carries one hub message onto the main event loop.
type RemoteEvent struct {
	tcell.EventTime
	Msg *wire.Message
}

// ConfigReloadEvent signals that the settings file changed on disk.
type ConfigReloadEvent struct {
	tcell.EventTime
}

type Editor struct {
	screen  tcell.Screen
	cfg     *config.Config
	theme   *config.ColorScheme
	session *client.Session
	msgs    <-chan *wire.Message

	area      *widget.TextArea
	header    *widget.Label
	statusBar *ui.StatusBar

	binding *binding.Binding
	overlay *cursors.Overlay

	cfgWatcher *fsnotify.Watcher

	quit bool

	statusMessageTime time.Time
}

// New wires an editor to a connected session. msgs is the stream the
// transport read loop feeds; Run forwards it onto the event loop.
func New(cfg *config.Config, session *client.Session, msgs <-chan *wire.Message, mode string) *Editor {
	sb := ui.NewStatusBar()
	sb.Mode = mode
	return &Editor{
		cfg:       cfg,
		theme:     cfg.GetTheme(),
		session:   session,
		msgs:      msgs,
		statusBar: sb,
	}
}

func (e *Editor) Run(serverAddr string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.EnableMouse()
	screen.EnablePaste()
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()
	e.screen = screen

	e.area = widget.NewTextArea("main", e.cfg.TabSize)
	e.area.SetFocused(true)
	e.header = widget.NewLabel("header", "collab · Ctrl+Q to leave")

	b, err := binding.New(e.session.Doc, e.area)
	if err != nil {
		screen.Fini()
		return err
	}
	e.binding = b

	overlay, err := cursors.NewOverlay(e.session.Doc, e.session.Store, e.area, e.cfg.Name)
	if err != nil {
		b.Destroy()
		screen.Fini()
		return err
	}
	e.overlay = overlay

	e.statusBar.Theme = e.theme
	e.statusBar.Server = serverAddr
	e.statusBar.Session = shortID(e.session.SessionID)

	e.setupConfigWatcher(screen)

	// Hub messages arrive on the transport goroutine; hand them to the
	// event loop the same way terminal output events travel. PostEventWait
	// because a dropped update would desync the replica for good, and this
	// goroutine has nothing better to do than wait for queue space.
	go e.forwardMessages(screen)

	e.layout()

	for !e.quit {
		e.clearExpiredMessage()
		e.updateStatus()
		e.render()

		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
			e.layout()
		case *tcell.EventKey:
			e.handleKey(ev)
		case *tcell.EventMouse:
			e.area.HandleMouse(ev)
		case *tcell.EventPaste:
			// Paste arrives as individual rune events between the
			// markers; nothing to do here.
		case *RemoteEvent:
			if err := e.session.Apply(ev.Msg); err != nil {
				e.setTemporaryMessage("sync error: " + err.Error())
			}
		case *ConfigReloadEvent:
			e.reloadConfig()
		}
	}

	e.overlay.Destroy()
	e.binding.Destroy()
	if e.cfgWatcher != nil {
		e.cfgWatcher.Close()
	}
	e.session.Close()

	screen.Clear()
	screen.Fini()
	return nil
}

// forwardMessages moves hub messages from the transport goroutine onto
// the event loop. PostEventWait because a dropped update would desync
// the replica for good, and this goroutine has nothing better to do
// than wait for queue space.
func (e *Editor) forwardMessages(screen tcell.Screen) {
	for m := range e.msgs {
		ev := &RemoteEvent{Msg: m}
		ev.SetEventNow()
		screen.PostEventWait(ev)
	}
}

func (e *Editor) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyCtrlQ:
		e.quit = true
		return
	case tcell.KeyEscape:
		// Escape collapses the selection rather than quitting.
		start, _, _ := e.area.Selection()
		e.area.SetSelection(start, start, widget.DirNone)
		return
	}
	e.area.HandleKey(ev)
}

func (e *Editor) layout() {
	w, h := e.screen.Size()
	e.header.SetFrame(0, 0, w, 1)
	if h > 2 {
		e.area.SetFrame(0, 1, w, h-2)
	}
}

func (e *Editor) updateStatus() {
	line, col := e.area.CaretPosition()
	e.statusBar.Line = line
	e.statusBar.Col = col
	e.statusBar.Peers = e.peerList()
}

// peerList reads every remote peer's published record for this widget
// and turns it into status bar entries.
func (e *Editor) peerList() []ui.Peer {
	var peers []ui.Peer
	all := e.session.Store.GetAll()
	for _, id := range e.session.Store.Peers() {
		fields, ok := all[id]
		if !ok {
			continue
		}
		raw, ok := fields[e.area.ID()]
		if !ok {
			continue
		}
		var sel cursors.Selection
		if err := json.Unmarshal(raw, &sel); err != nil || sel.Name == "" {
			continue
		}
		c, ok := colorhash.ParseHex(sel.Color)
		if !ok {
			c = colorhash.ForInt(id)
		}
		peers = append(peers, ui.Peer{Name: sel.Name, Color: c})
	}
	return peers
}

func (e *Editor) setupConfigWatcher(screen tcell.Screen) {
	path := config.ConfigPath()
	if path == "" {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without hot reload.
		return
	}
	e.cfgWatcher = watcher
	watcher.Add(filepath.Dir(path))

	go func() {
		debounce := time.NewTimer(100 * time.Millisecond)
		debounce.Stop()
		pending := false
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				pending = true
				debounce.Reset(100 * time.Millisecond)
			case <-debounce.C:
				if pending {
					pending = false
					ev := &ConfigReloadEvent{}
					ev.SetEventNow()
					screen.PostEvent(ev)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

func (e *Editor) reloadConfig() {
	cfg, err := config.Load()
	if err != nil {
		e.setTemporaryMessage("settings reload failed: " + err.Error())
		return
	}
	e.cfg = cfg
	e.theme = cfg.GetTheme()
	e.statusBar.Theme = e.theme
	e.setTemporaryMessage("settings reloaded (" + e.theme.Name + ")")
}

// setTemporaryMessage shows a message that auto-clears after 5 seconds.
func (e *Editor) setTemporaryMessage(msg string) {
	e.statusBar.Message = msg
	e.statusMessageTime = time.Now()
}

func (e *Editor) clearExpiredMessage() {
	if !e.statusMessageTime.IsZero() && time.Since(e.statusMessageTime) > 5*time.Second {
		e.statusBar.Message = ""
		e.statusMessageTime = time.Time{}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
