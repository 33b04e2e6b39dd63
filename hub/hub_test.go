package hub_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"collab/client"
	"collab/hub"
	"collab/wire"
)

func startHub(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(hub.New().Handler())
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

// peer wraps a session with a message queue standing in for the UI
// event loop: messages arrive on the read goroutine and are applied on
// the test goroutine.
type peer struct {
	*client.Session
	msgs chan *wire.Message
}

func dialPeer(t *testing.T, addr string) *peer {
	t.Helper()
	p := &peer{msgs: make(chan *wire.Message, 64)}
	s, err := client.Dial(addr, func(m *wire.Message) { p.msgs <- m })
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(s.Close)
	p.Session = s
	return p
}

// pump applies incoming messages until the condition holds.
func (p *peer) pump(t *testing.T, what string, until func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !until() {
		select {
		case m := <-p.msgs:
			if err := p.Apply(m); err != nil {
				t.Fatalf("apply %s: %v", m.Type, err)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func TestSnapshotHandshake(t *testing.T) {
	addr := startHub(t)
	a := dialPeer(t, addr)
	b := dialPeer(t, addr)

	if a.SelfID == b.SelfID {
		t.Fatalf("both clients got id %d", a.SelfID)
	}
	if a.SessionID == "" || a.SessionID != b.SessionID {
		t.Fatalf("session ids %q / %q, want equal and non-empty", a.SessionID, b.SessionID)
	}
	if a.Doc.Len() != 0 {
		t.Fatalf("fresh session has %d chars", a.Doc.Len())
	}
}

func TestEditsReachOtherClients(t *testing.T) {
	addr := startHub(t)
	a := dialPeer(t, addr)
	b := dialPeer(t, addr)

	if err := a.Doc.Insert(0, "hello"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	b.pump(t, "a's edit", func() bool { return b.Doc.Text() == "hello" })

	if err := b.Doc.Insert(5, " world"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	a.pump(t, "b's edit", func() bool { return a.Doc.Text() == "hello world" })
}

func TestLateJoinerGetsSnapshot(t *testing.T) {
	addr := startHub(t)
	a := dialPeer(t, addr)

	if err := a.Doc.Insert(0, "already here"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// The hub applies the change from its read goroutine; wait for it
	// to land before joining.
	var b *peer
	deadline := time.Now().Add(5 * time.Second)
	for {
		b = dialPeer(t, addr)
		if b.Doc.Text() == "already here" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("late joiner saw %q, want %q", b.Doc.Text(), "already here")
		}
		b.Close()
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPresencePropagates(t *testing.T) {
	addr := startHub(t)
	a := dialPeer(t, addr)
	b := dialPeer(t, addr)

	if err := a.Store.SetLocalField("main", map[string]string{"name": "alice"}); err != nil {
		t.Fatalf("set field: %v", err)
	}
	b.pump(t, "a's presence", func() bool {
		_, ok := b.Store.GetAll()[a.SelfID]
		return ok
	})
}

func TestDisconnectRemovesPresence(t *testing.T) {
	addr := startHub(t)
	a := dialPeer(t, addr)
	b := dialPeer(t, addr)

	if err := a.Store.SetLocalField("main", map[string]string{"name": "alice"}); err != nil {
		t.Fatalf("set field: %v", err)
	}
	b.pump(t, "a's presence", func() bool { return len(b.Store.Peers()) == 1 })

	a.Close()
	b.pump(t, "a's departure", func() bool { return len(b.Store.Peers()) == 0 })
}

func TestStalledClientDoesNotBlockBroadcast(t *testing.T) {
	addr := startHub(t)
	healthy := dialPeer(t, addr)

	// A raw peer that joins and then never reads another frame.
	stalled, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer stalled.Close()
	buf, err := wire.Encode(&wire.Message{Type: wire.TypeInit})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := stalled.WriteMessage(websocket.TextMessage, buf); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, _, err := stalled.ReadMessage(); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// Broadcasts big enough that the stalled connection's buffers fill
	// long before the flood ends. Every update must still reach the
	// healthy client.
	chunk := strings.Repeat("x", 512)
	const rounds = 40
	for i := 0; i < rounds; i++ {
		if err := healthy.Doc.Insert(healthy.Doc.Len(), chunk); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	updates := 0
	deadline := time.After(5 * time.Second)
	for updates < rounds {
		select {
		case m := <-healthy.msgs:
			if m.Type == wire.TypeUpdate {
				updates++
			}
			if err := healthy.Apply(m); err != nil {
				t.Fatalf("apply %s: %v", m.Type, err)
			}
		case <-deadline:
			t.Fatalf("got %d of %d updates with a stalled peer attached", updates, rounds)
		}
	}
}

func TestOwnEchoSkipped(t *testing.T) {
	addr := startHub(t)
	a := dialPeer(t, addr)
	b := dialPeer(t, addr)

	if err := a.Doc.Insert(0, "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	b.pump(t, "the update", func() bool { return b.Doc.Text() == "x" })

	// a's own update came back too; applying it must not duplicate.
	drain := time.After(200 * time.Millisecond)
	for {
		select {
		case m := <-a.msgs:
			if err := a.Apply(m); err != nil {
				t.Fatalf("apply: %v", err)
			}
		case <-drain:
			if a.Doc.Text() != "x" {
				t.Fatalf("echo mangled a's doc: %q", a.Doc.Text())
			}
			return
		}
	}
}
