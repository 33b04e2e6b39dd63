// Package doc holds the replicated text buffer shared by all peers of a
// session. The buffer is an ordered sequence of rune atoms, each owning
// a position identifier generated strictly between its neighbors, so
// concurrently produced operations land in the same order on every
// replica without coordination. Deleted atoms are dropped outright;
// an anchor pointing at removed text is simply unresolvable, which is
// the behavior the selection layer wants.
package doc

import (
	"fmt"
	"sort"
	"strings"
)

type atom struct {
	pos Position
	ch  rune
}

// Document is a replicated plain-text buffer. It is not safe for
// concurrent use: every caller, including transport code, is expected
// to mutate it from the single UI event loop.
type Document struct {
	atoms []atom
	site  int
	seq   int

	before []*beforeHook
	after  []*afterObserver
	ops    []*opsObserver
}

type beforeHook struct{ fn func() }
type afterObserver struct{ fn func(local bool) }
type opsObserver struct{ fn func(opStrs []string) }

// New returns an empty document. site must be unique within a session;
// it feeds position generation and nothing else.
func New(site int) *Document {
	return &Document{site: site}
}

// NewFromSnapshot replays encoded ops (normally a hub snapshot) into a
// fresh document. No observers exist yet, so nothing fires.
func NewFromSnapshot(site int, opStrs []string) (*Document, error) {
	d := New(site)
	ops, err := DecodeOps(opStrs)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		d.apply(op)
	}
	return d, nil
}

func (d *Document) Len() int { return len(d.atoms) }

func (d *Document) Text() string {
	var b strings.Builder
	b.Grow(len(d.atoms))
	for _, a := range d.atoms {
		b.WriteRune(a.ch)
	}
	return b.String()
}

// Snapshot encodes the current content as a replayable op list.
func (d *Document) Snapshot() []string {
	ops := make([]Op, len(d.atoms))
	for i, a := range d.atoms {
		ops[i] = &InsertOp{Pos: a.pos, Value: a.ch}
	}
	return EncodeOps(ops)
}

// Insert places text at the rune offset. It fires the before hooks,
// mutates, fires the after observers with local=true, then hands the
// encoded ops to the op observers for transport. One call is one
// mutation event regardless of text length.
func (d *Document) Insert(offset int, text string) error {
	if offset < 0 || offset > len(d.atoms) {
		return fmt.Errorf("insert offset %d out of range [0,%d]", offset, len(d.atoms))
	}
	if text == "" {
		return nil
	}
	d.fireBefore()

	var left Position
	if offset > 0 {
		left = d.atoms[offset-1].pos
	}
	var right Position
	if offset < len(d.atoms) {
		right = d.atoms[offset].pos
	}

	runes := []rune(text)
	ops := make([]Op, len(runes))
	grown := make([]atom, 0, len(d.atoms)+len(runes))
	grown = append(grown, d.atoms[:offset]...)
	for i, r := range runes {
		d.seq++
		pos := between(left, right, d.site, d.seq)
		grown = append(grown, atom{pos: pos, ch: r})
		ops[i] = &InsertOp{Pos: pos, Value: r}
		left = pos
	}
	grown = append(grown, d.atoms[offset:]...)
	d.atoms = grown

	d.fireAfter(true)
	d.fireOps(EncodeOps(ops))
	return nil
}

// Delete removes length runes starting at offset, following the same
// event discipline as Insert.
func (d *Document) Delete(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(d.atoms) {
		return fmt.Errorf("delete [%d,%d) out of range [0,%d]", offset, offset+length, len(d.atoms))
	}
	if length == 0 {
		return nil
	}
	d.fireBefore()

	ops := make([]Op, length)
	for i := 0; i < length; i++ {
		ops[i] = &DeleteOp{Pos: d.atoms[offset+i].pos}
	}
	d.atoms = append(d.atoms[:offset], d.atoms[offset+length:]...)

	d.fireAfter(true)
	d.fireOps(EncodeOps(ops))
	return nil
}

// ApplyRemote applies encoded ops received from another peer. The whole
// batch is one mutation event: all before hooks, the mutations, then
// the after observers with local=false. Duplicate inserts and deletes
// of already-gone atoms are ignored so redelivery is harmless.
func (d *Document) ApplyRemote(opStrs []string) error {
	ops, err := DecodeOps(opStrs)
	if err != nil {
		return err
	}
	d.fireBefore()
	for _, op := range ops {
		d.apply(op)
	}
	d.fireAfter(false)
	return nil
}

func (d *Document) apply(op Op) {
	switch op := op.(type) {
	case *InsertOp:
		i, exact := d.search(op.Pos)
		if exact {
			return
		}
		d.atoms = append(d.atoms, atom{})
		copy(d.atoms[i+1:], d.atoms[i:])
		d.atoms[i] = atom{pos: op.Pos, ch: op.Value}
	case *DeleteOp:
		i, exact := d.search(op.Pos)
		if !exact {
			return
		}
		d.atoms = append(d.atoms[:i], d.atoms[i+1:]...)
	}
}

// search returns the index of pos, or the index it would be inserted at.
func (d *Document) search(pos Position) (int, bool) {
	i := sort.Search(len(d.atoms), func(i int) bool {
		return d.atoms[i].pos.Compare(pos) >= 0
	})
	if i < len(d.atoms) && d.atoms[i].pos.Compare(pos) == 0 {
		return i, true
	}
	return i, false
}

// ObserveBefore registers fn to run immediately before every mutation,
// local or remote. The returned cancel releases the registration.
func (d *Document) ObserveBefore(fn func()) (cancel func()) {
	h := &beforeHook{fn: fn}
	d.before = append(d.before, h)
	return func() {
		for i, v := range d.before {
			if v == h {
				d.before = append(d.before[:i], d.before[i+1:]...)
				return
			}
		}
	}
}

// ObserveAfter registers fn to run after every applied mutation. local
// reports whether this document produced the change itself.
func (d *Document) ObserveAfter(fn func(local bool)) (cancel func()) {
	o := &afterObserver{fn: fn}
	d.after = append(d.after, o)
	return func() {
		for i, v := range d.after {
			if v == o {
				d.after = append(d.after[:i], d.after[i+1:]...)
				return
			}
		}
	}
}

// ObserveOps registers fn to receive the encoded ops of every local
// mutation, in application order, for transport to other peers.
func (d *Document) ObserveOps(fn func(opStrs []string)) (cancel func()) {
	o := &opsObserver{fn: fn}
	d.ops = append(d.ops, o)
	return func() {
		for i, v := range d.ops {
			if v == o {
				d.ops = append(d.ops[:i], d.ops[i+1:]...)
				return
			}
		}
	}
}

func (d *Document) fireBefore() {
	for _, h := range append([]*beforeHook(nil), d.before...) {
		h.fn()
	}
}

func (d *Document) fireAfter(local bool) {
	for _, o := range append([]*afterObserver(nil), d.after...) {
		o.fn(local)
	}
}

func (d *Document) fireOps(opStrs []string) {
	for _, o := range append([]*opsObserver(nil), d.ops...) {
		o.fn(opStrs)
	}
}
