// Package presence keeps the per-peer key/value state a session shares
// besides the document itself: who is connected, what their name and
// color are, where their selection sits. Each peer owns exactly its own
// record; everyone else's records are read-only and replaced wholesale
// by transport updates.
package presence

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Fields is one peer's record: arbitrary JSON values under string keys.
// The selection layer stores its state under the widget id key.
type Fields map[string]json.RawMessage

// Update describes one store notification. Removed lists peers that
// disappeared entirely; everything else is re-read via GetAll.
type Update struct {
	Removed []int
}

// Store is the local view of session presence. Like the document it is
// single-threaded: all calls happen on the UI event loop.
type Store struct {
	self  int
	local Fields
	peers map[int]Fields

	observers []*updateObserver
	publish   []*publishObserver
}

type updateObserver struct{ fn func(Update) }
type publishObserver struct{ fn func(Fields) }

func NewStore(self int) *Store {
	return &Store{
		self:  self,
		local: Fields{},
		peers: map[int]Fields{},
	}
}

func (s *Store) SelfID() int { return s.self }

// GetLocal returns this peer's own record, nil before the first write.
func (s *Store) GetLocal() Fields {
	if len(s.local) == 0 {
		return nil
	}
	return s.local
}

// GetAll returns every known record keyed by peer id, own record
// included.
func (s *Store) GetAll() map[int]Fields {
	all := make(map[int]Fields, len(s.peers)+1)
	for id, f := range s.peers {
		all[id] = f
	}
	if len(s.local) > 0 {
		all[s.self] = s.local
	}
	return all
}

// Peers returns the known remote peer ids in stable order.
func (s *Store) Peers() []int {
	ids := make([]int, 0, len(s.peers))
	for id := range s.peers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetLocalField writes one key of the local record, hands the whole
// record to the publish observers for transport, and notifies update
// observers so local subscribers see their own state move.
func (s *Store) SetLocalField(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("presence field %q: %w", key, err)
	}
	s.local[key] = raw
	record := make(Fields, len(s.local))
	for k, v := range s.local {
		record[k] = v
	}
	for _, o := range append([]*publishObserver(nil), s.publish...) {
		o.fn(record)
	}
	s.fireUpdate(Update{})
	return nil
}

// ApplyRemote replaces a remote peer's record. Own echoes are dropped.
func (s *Store) ApplyRemote(peer int, fields Fields) {
	if peer == s.self {
		return
	}
	s.peers[peer] = fields
	s.fireUpdate(Update{})
}

// RemovePeers drops records for peers that left and reports them in the
// notification. Unknown ids are still reported removed so subscribers
// can tear down whatever they hold for them.
func (s *Store) RemovePeers(ids []int) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		delete(s.peers, id)
	}
	s.fireUpdate(Update{Removed: ids})
}

// OnUpdate registers an observer for every state change.
func (s *Store) OnUpdate(fn func(Update)) (cancel func()) {
	o := &updateObserver{fn: fn}
	s.observers = append(s.observers, o)
	return func() {
		for i, v := range s.observers {
			if v == o {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// OnPublish registers the transport hook receiving the full local
// record after every local field write.
func (s *Store) OnPublish(fn func(Fields)) (cancel func()) {
	o := &publishObserver{fn: fn}
	s.publish = append(s.publish, o)
	return func() {
		for i, v := range s.publish {
			if v == o {
				s.publish = append(s.publish[:i], s.publish[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) fireUpdate(u Update) {
	for _, o := range append([]*updateObserver(nil), s.observers...) {
		o.fn(u)
	}
}
