package doc

import (
	"testing"
)

func mustInsert(t *testing.T, d *Document, offset int, text string) {
	t.Helper()
	if err := d.Insert(offset, text); err != nil {
		t.Fatalf("insert %q at %d: %v", text, offset, err)
	}
}

func mustDelete(t *testing.T, d *Document, offset, length int) {
	t.Helper()
	if err := d.Delete(offset, length); err != nil {
		t.Fatalf("delete [%d,%d): %v", offset, offset+length, err)
	}
}

func TestInsertDeleteText(t *testing.T) {
	d := New(1)
	mustInsert(t, d, 0, "hello world")
	if d.Text() != "hello world" {
		t.Fatalf("text = %q", d.Text())
	}
	mustInsert(t, d, 5, ",")
	if d.Text() != "hello, world" {
		t.Fatalf("text = %q", d.Text())
	}
	mustDelete(t, d, 0, 7)
	if d.Text() != "world" {
		t.Fatalf("text = %q", d.Text())
	}
	if d.Len() != 5 {
		t.Fatalf("len = %d", d.Len())
	}
}

func TestInsertOutOfRange(t *testing.T) {
	d := New(1)
	mustInsert(t, d, 0, "ab")
	if err := d.Insert(3, "x"); err == nil {
		t.Fatal("expected error for insert past end")
	}
	if err := d.Delete(1, 2); err == nil {
		t.Fatal("expected error for delete past end")
	}
}

// Every local mutation must reach a second replica through its encoded
// ops and reproduce the same text.
func TestOpsReplicate(t *testing.T) {
	a := New(1)
	b := New(2)
	cancel := a.ObserveOps(func(opStrs []string) {
		if err := b.ApplyRemote(opStrs); err != nil {
			t.Fatalf("replicate: %v", err)
		}
	})
	defer cancel()

	mustInsert(t, a, 0, "hello")
	mustInsert(t, a, 5, " world")
	mustDelete(t, a, 0, 1)
	mustInsert(t, a, 0, "H")

	if a.Text() != "Hello world" || b.Text() != a.Text() {
		t.Fatalf("a=%q b=%q", a.Text(), b.Text())
	}
}

// Two replicas editing concurrently converge once each has seen the
// other's ops, regardless of delivery order.
func TestConcurrentInsertsConverge(t *testing.T) {
	a := New(1)
	mustInsert(t, a, 0, "base")
	b, err := NewFromSnapshot(2, a.Snapshot())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	var fromA, fromB []string
	ca := a.ObserveOps(func(ops []string) { fromA = append(fromA, ops...) })
	cb := b.ObserveOps(func(ops []string) { fromB = append(fromB, ops...) })
	defer ca()
	defer cb()

	mustInsert(t, a, 4, "-tail")
	mustInsert(t, b, 0, "head-")
	mustDelete(t, b, 5, 1) // drop the 'b' of "base"

	if err := a.ApplyRemote(fromB); err != nil {
		t.Fatalf("apply b->a: %v", err)
	}
	if err := b.ApplyRemote(fromA); err != nil {
		t.Fatalf("apply a->b: %v", err)
	}
	if a.Text() != b.Text() {
		t.Fatalf("diverged: a=%q b=%q", a.Text(), b.Text())
	}
	if a.Text() != "head-ase-tail" {
		t.Fatalf("converged to %q", a.Text())
	}

	// Redelivery must be a no-op.
	if err := a.ApplyRemote(fromB); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if a.Text() != "head-ase-tail" {
		t.Fatalf("redelivery changed text to %q", a.Text())
	}
}

func TestSnapshotReplay(t *testing.T) {
	d := New(1)
	mustInsert(t, d, 0, "snapshot me")
	mustDelete(t, d, 0, 4)

	replica, err := NewFromSnapshot(7, d.Snapshot())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replica.Text() != "shot me" {
		t.Fatalf("replica text = %q", replica.Text())
	}
}

func TestAnchorRoundTrip(t *testing.T) {
	d := New(1)
	mustInsert(t, d, 0, "hello")
	for k := 0; k <= d.Len(); k++ {
		got, ok := d.ResolveAnchor(d.CreateAnchor(k))
		if !ok || got != k {
			t.Fatalf("anchor at %d resolved to %d, %v", k, got, ok)
		}
	}
}

func TestAnchorStableAcrossInsert(t *testing.T) {
	d := New(1)
	mustInsert(t, d, 0, "hello world")
	a := d.CreateAnchor(6) // "world"
	mustInsert(t, d, 0, "say ")
	got, ok := d.ResolveAnchor(a)
	if !ok || got != 10 {
		t.Fatalf("anchor resolved to %d, %v; want 10", got, ok)
	}
}

func TestAnchorUnresolvableAfterDelete(t *testing.T) {
	d := New(1)
	mustInsert(t, d, 0, "abcdef")
	a := d.CreateAnchor(3)
	mustDelete(t, d, 0, 6)
	if _, ok := d.ResolveAnchor(a); ok {
		t.Fatal("anchor into deleted text must not resolve")
	}
}

func TestAnchorEndTracksLength(t *testing.T) {
	d := New(1)
	mustInsert(t, d, 0, "ab")
	a := d.CreateAnchor(2)
	mustInsert(t, d, 2, "cd")
	got, ok := d.ResolveAnchor(a)
	if !ok || got != 4 {
		t.Fatalf("end anchor resolved to %d, %v", got, ok)
	}
}

// The before hook must observe pre-mutation state, the after observer
// post-mutation state, for local and remote changes alike.
func TestObserverOrdering(t *testing.T) {
	d := New(1)
	var trace []string
	cb := d.ObserveBefore(func() {
		trace = append(trace, "before:"+d.Text())
	})
	ca := d.ObserveAfter(func(local bool) {
		tag := "remote"
		if local {
			tag = "local"
		}
		trace = append(trace, tag+":"+d.Text())
	})
	defer cb()
	defer ca()

	mustInsert(t, d, 0, "ab")
	mustDelete(t, d, 0, 1)

	other := New(2)
	var ops []string
	co := other.ObserveOps(func(o []string) { ops = append(ops, o...) })
	mustInsert(t, other, 0, "Z")
	co()
	if err := d.ApplyRemote(ops); err != nil {
		t.Fatalf("apply remote: %v", err)
	}

	want := []string{
		"before:", "local:ab",
		"before:ab", "local:b",
		"before:b", "remote:Zb",
	}
	if len(trace) != len(want) {
		t.Fatalf("trace %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

func TestObserverCancel(t *testing.T) {
	d := New(1)
	calls := 0
	cancel := d.ObserveAfter(func(bool) { calls++ })
	mustInsert(t, d, 0, "x")
	cancel()
	cancel() // idempotent
	mustInsert(t, d, 0, "y")
	if calls != 1 {
		t.Fatalf("observer ran %d times after cancel", calls)
	}
}

func TestOpCodec(t *testing.T) {
	ins := &InsertOp{Pos: Position{0x8000, 1, 2}, Value: ','}
	s := ins.Encode()
	if s != "i,8000.1.2,," {
		t.Fatalf("encoded %q", s)
	}
	back, err := DecodeOp(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := back.(*InsertOp); got.Value != ',' || got.Pos.Compare(ins.Pos) != 0 {
		t.Fatalf("round trip gave %+v", got)
	}

	del := &DeleteOp{Pos: Position{1, 2, 3}}
	back, err = DecodeOp(del.Encode())
	if err != nil {
		t.Fatalf("decode delete: %v", err)
	}
	if back.(*DeleteOp).Pos.Compare(del.Pos) != 0 {
		t.Fatalf("delete round trip gave %+v", back)
	}

	for _, bad := range []string{"", "x,1.2", "i,zz,a", "i,1.2", "d,"} {
		if _, err := DecodeOp(bad); err == nil {
			t.Fatalf("expected decode failure for %q", bad)
		}
	}
}
