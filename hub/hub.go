// Package hub is the session relay. It holds the authoritative copy of
// the document and the presence records, hands both to every joining
// client as a snapshot, and fans client changes back out. The hub never
// edits; its document exists so late joiners get the full history as a
// replayable op list.
package hub

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"collab/doc"
	"collab/presence"
	"collab/wire"
)

// writeWait caps how long a single frame may take before the peer's
// connection is considered dead.
const writeWait = 10 * time.Second

type Hub struct {
	session string

	mu     sync.Mutex // protects doc, states, nextID
	doc    *doc.Document
	states map[int]presence.Fields
	nextID int

	clients     map[chan<- []byte]int
	subscribe   chan subscription
	unsubscribe chan chan<- []byte
	broadcast   chan []byte

	upgrader websocket.Upgrader
}

type subscription struct {
	send chan<- []byte
	id   int
}

func New() *Hub {
	h := &Hub{
		session:     uuid.NewString(),
		doc:         doc.New(0),
		states:      make(map[int]presence.Fields),
		nextID:      1,
		clients:     make(map[chan<- []byte]int),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan chan<- []byte),
		broadcast:   make(chan []byte),
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	go h.run()
	return h
}

func (h *Hub) Session() string { return h.session }

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.subscribe:
			h.clients[sub.send] = sub.id
		case send := <-h.unsubscribe:
			delete(h.clients, send)
		case msg := <-h.broadcast:
			for send, id := range h.clients {
				select {
				case send <- msg:
				default:
					// The client's buffer is full: it has stopped
					// reading. Drop it rather than stall everyone
					// else; closing send makes its write goroutine
					// tear the connection down.
					log.Printf("hub: client %d not keeping up, dropping", id)
					delete(h.clients, send)
					close(send)
				}
			}
		}
	}
}

func (h *Hub) send(m *wire.Message) {
	buf, err := wire.Encode(m)
	if err != nil {
		log.Printf("hub: encode %s: %v", m.Type, err)
		return
	}
	h.broadcast <- buf
}

// Handler returns the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(h.handleConn)
}

// Serve runs the hub on addr until the listener fails.
func (h *Hub) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h.Handler())
	return http.ListenAndServe(addr, mux)
}

type stream struct {
	h    *Hub
	conn *websocket.Conn
	send chan []byte
	id   int
}

func (h *Hub) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: upgrade: %v", err)
		return
	}
	s := &stream{h: h, conn: conn, send: make(chan []byte, 16)}
	eof, done := make(chan struct{}), make(chan struct{})

	go func() {
		defer close(eof)
		for {
			_, buf, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := wire.Decode(buf)
			if err != nil {
				log.Printf("hub: bad message: %v", err)
				continue
			}
			s.process(msg)
		}
	}()

	go func() {
		defer close(done)
		for {
			select {
			case msg, ok := <-s.send:
				if !ok {
					// The run loop dropped us for not keeping up.
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-eof:
				return
			}
		}
	}()

	<-done
	conn.Close()

	if s.id != 0 {
		h.unsubscribe <- s.send
		h.mu.Lock()
		delete(h.states, s.id)
		h.mu.Unlock()
		h.send(&wire.Message{Type: wire.TypePresenceGone, Gone: []int{s.id}})
	}
}

func (s *stream) process(msg *wire.Message) {
	switch msg.Type {
	case wire.TypeInit:
		s.processInit()
	case wire.TypeChange:
		s.processChange(msg)
	case wire.TypePresence:
		s.processPresence(msg)
	default:
		log.Printf("hub: unknown message type %q", msg.Type)
	}
}

// processInit assigns the client its id and replies with the snapshot
// directly on the connection, before subscribing it to the broadcast
// stream, so the snapshot is always the first thing a client reads.
func (s *stream) processInit() {
	h := s.h
	h.mu.Lock()
	if s.id != 0 {
		h.mu.Unlock()
		log.Printf("hub: client %d sent a second init", s.id)
		return
	}
	s.id = h.nextID
	h.nextID++

	states := make(map[int]presence.Fields, len(h.states))
	for id, f := range h.states {
		states[id] = f
	}
	sn := &wire.Message{
		Type:    wire.TypeSnapshot,
		Session: h.session,
		Client:  s.id,
		Ops:     h.doc.Snapshot(),
		States:  states,
	}
	buf, err := wire.Encode(sn)
	h.mu.Unlock()
	if err != nil {
		log.Printf("hub: encode snapshot: %v", err)
		return
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		log.Printf("hub: write snapshot: %v", err)
		return
	}
	h.subscribe <- subscription{send: s.send, id: s.id}
}

func (s *stream) processChange(msg *wire.Message) {
	if s.id == 0 {
		log.Printf("hub: change before init")
		return
	}
	s.h.mu.Lock()
	err := s.h.doc.ApplyRemote(msg.Ops)
	s.h.mu.Unlock()
	if err != nil {
		log.Printf("hub: client %d sent bad ops: %v", s.id, err)
		return
	}
	s.h.send(&wire.Message{Type: wire.TypeUpdate, Ops: msg.Ops, From: s.id})
}

func (s *stream) processPresence(msg *wire.Message) {
	if s.id == 0 {
		log.Printf("hub: presence before init")
		return
	}
	s.h.mu.Lock()
	s.h.states[s.id] = msg.Fields
	s.h.mu.Unlock()
	s.h.send(&wire.Message{Type: wire.TypePresence, From: s.id, Fields: msg.Fields})
}
