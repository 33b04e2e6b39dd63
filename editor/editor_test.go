package editor

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"collab/wire"
)

// A burst larger than the screen's event queue must still arrive in
// full: a lost update has no resync path.
func TestForwardMessagesDropsNothing(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer screen.Fini()

	const total = 300
	msgs := make(chan *wire.Message, total)
	e := &Editor{msgs: msgs}
	go e.forwardMessages(screen)

	for i := 1; i <= total; i++ {
		msgs <- &wire.Message{Type: wire.TypeUpdate, From: i}
	}
	close(msgs)

	done := make(chan struct{})
	go func() {
		n := 0
		for n < total {
			if _, ok := screen.PollEvent().(*RemoteEvent); ok {
				n++
			}
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %d forwarded messages", total)
	}
}
