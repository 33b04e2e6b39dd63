// Package client connects one editor to a session hub. Dial performs
// the snapshot handshake synchronously; after that the session forwards
// local document ops and presence writes to the hub, and hands incoming
// messages to a callback so the UI can marshal them onto its event
// loop before applying them.
package client

import (
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"collab/doc"
	"collab/presence"
	"collab/wire"
)

// Session is a live connection to a hub. Doc and Store are this peer's
// replicas, already seeded from the snapshot. Apply and the observers
// that feed the hub must all run on the UI event loop; only the read
// loop is a separate goroutine.
type Session struct {
	SelfID    int
	SessionID string
	Doc       *doc.Document
	Store     *presence.Store

	conn    *websocket.Conn
	cancels []func()
	closed  bool
}

// Dial joins the hub at host:port, blocks for the snapshot, and starts
// the read loop. onMessage is called from the read goroutine for every
// subsequent message; the caller forwards it to the event loop and
// applies it there via Apply.
func Dial(addr string, onMessage func(*wire.Message)) (*Session, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if err := writeMessage(conn, &wire.Message{Type: wire.TypeInit}); err != nil {
		conn.Close()
		return nil, err
	}
	_, buf, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	sn, err := wire.Decode(buf)
	if err != nil || sn.Type != wire.TypeSnapshot {
		conn.Close()
		return nil, fmt.Errorf("expected snapshot, got %v (%v)", sn, err)
	}

	d, err := doc.NewFromSnapshot(sn.Client, sn.Ops)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("replay snapshot: %w", err)
	}
	store := presence.NewStore(sn.Client)
	for id, fields := range sn.States {
		store.ApplyRemote(id, fields)
	}

	s := &Session{
		SelfID:    sn.Client,
		SessionID: sn.Session,
		Doc:       d,
		Store:     store,
		conn:      conn,
	}
	s.cancels = append(s.cancels,
		d.ObserveOps(s.sendOps),
		store.OnPublish(s.sendPresence),
	)

	go s.readLoop(onMessage)
	return s, nil
}

// Apply folds one hub message into the local replicas. Runs on the UI
// event loop so document and presence observers fire there.
func (s *Session) Apply(msg *wire.Message) error {
	switch msg.Type {
	case wire.TypeUpdate:
		if msg.From == s.SelfID {
			return nil
		}
		return s.Doc.ApplyRemote(msg.Ops)
	case wire.TypePresence:
		s.Store.ApplyRemote(msg.From, msg.Fields)
		return nil
	case wire.TypePresenceGone:
		s.Store.RemovePeers(msg.Gone)
		return nil
	default:
		return fmt.Errorf("unexpected message type %q", msg.Type)
	}
}

// Close detaches from the replicas and closes the connection. The read
// loop ends on the closed socket.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.conn.Close()
}

func (s *Session) sendOps(ops []string) {
	writeMessage(s.conn, &wire.Message{Type: wire.TypeChange, Ops: ops, From: s.SelfID})
}

func (s *Session) sendPresence(fields presence.Fields) {
	writeMessage(s.conn, &wire.Message{Type: wire.TypePresence, From: s.SelfID, Fields: fields})
}

func (s *Session) readLoop(onMessage func(*wire.Message)) {
	for {
		_, buf, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := wire.Decode(buf)
		if err != nil {
			continue
		}
		onMessage(msg)
	}
}

func writeMessage(conn *websocket.Conn, m *wire.Message) error {
	buf, err := wire.Encode(m)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, buf)
}
