package resource

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"testing"

	"github.com/wippyai/wasi-common/errors"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

type reader interface{ ReadThing() string }

type thing struct{ name string }

func (t *thing) ReadThing() string { return t.name }

type closeCounter struct {
	count int
}

func (c *closeCounter) Close(context.Context) error {
	c.count++
	return nil
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h, err := table.Insert("test")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if h != 0 {
		t.Fatalf("Expected first handle 0, got %d", h)
	}

	e, err := table.Lookup(h)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e.Value != "test" {
		t.Fatalf("Expected 'test', got %v", e.Value)
	}

	val, err := table.Remove(h)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}

	if _, err := table.Lookup(h); !stderrors.Is(err, errors.ErrBadHandle) {
		t.Fatalf("Expected bad handle after Remove, got %v", err)
	}
	if _, err := table.Remove(h); !stderrors.Is(err, errors.ErrBadHandle) {
		t.Fatalf("Expected bad handle on double Remove, got %v", err)
	}
}

func TestTable_GetTyped(t *testing.T) {
	table := NewTable()
	th := &thing{name: "a"}
	h, _ := table.Insert(th)
	plain, _ := table.Insert(42)

	got, err := Get[reader](table, h)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ReadThing() != "a" {
		t.Fatal("Get returned a different view")
	}

	if _, err := Get[reader](table, plain); !stderrors.Is(err, errors.ErrNotSupported) {
		t.Fatalf("Expected not supported for mismatched capability, got %v", err)
	}
	if _, err := Get[reader](table, 99); !stderrors.Is(err, errors.ErrBadHandle) {
		t.Fatalf("Expected bad handle for unknown handle, got %v", err)
	}

	if !Is[reader](table, h) || Is[reader](table, plain) {
		t.Fatal("Is disagrees with Get")
	}
}

func TestTable_HandleUniqueness(t *testing.T) {
	table := NewTable()
	rng := rand.New(rand.NewPCG(1, 2))
	live := map[Handle]int{}

	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rng.IntN(3) == 0 {
			for h, v := range live {
				got, err := table.Remove(h)
				if err != nil {
					t.Fatalf("Remove(%d) failed: %v", h, err)
				}
				if got != v {
					t.Fatalf("Remove(%d) = %v, want %d", h, got, v)
				}
				delete(live, h)
				break
			}
			continue
		}
		h, err := table.Insert(i)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if _, dup := live[h]; dup {
			t.Fatalf("handle %d handed out while still live", h)
		}
		live[h] = i
	}

	if table.Len() != len(live) {
		t.Fatalf("Len() = %d, want %d", table.Len(), len(live))
	}
	for h, v := range live {
		e, err := table.Lookup(h)
		if err != nil || e.Value != v {
			t.Fatalf("handle %d aliased: %v %v", h, e.Value, err)
		}
	}
}

func TestTable_Reuse(t *testing.T) {
	table := NewTable()
	a, _ := table.Insert("a")
	b, _ := table.Insert("b")
	if _, err := table.Remove(a); err != nil {
		t.Fatal(err)
	}
	c, _ := table.Insert("c")
	if c != a {
		t.Fatalf("Expected freed handle %d to be reused, got %d", a, c)
	}
	e, _ := table.Lookup(b)
	if e.Value != "b" {
		t.Fatal("reuse disturbed a live entry")
	}
}

func TestTable_InsertAt(t *testing.T) {
	table := NewTable()
	if err := table.InsertAt(3, Entry{Value: "pre", Preopen: "/"}); err != nil {
		t.Fatalf("InsertAt failed: %v", err)
	}
	if err := table.InsertAt(3, Entry{Value: "x"}); !stderrors.Is(err, errors.ErrAlreadyExists) {
		t.Fatalf("Expected already exists, got %v", err)
	}

	// Gaps below 3 are handed out before 4.
	seen := map[Handle]bool{}
	for i := 0; i < 4; i++ {
		h, err := table.Insert(i)
		if err != nil {
			t.Fatal(err)
		}
		seen[h] = true
	}
	for _, h := range []Handle{0, 1, 2, 4} {
		if !seen[h] {
			t.Fatalf("handle %d not allocated: %v", h, seen)
		}
	}
	e, _ := table.Lookup(3)
	if e.Preopen != "/" {
		t.Fatal("preopen label lost")
	}
}

func TestTable_Renumber(t *testing.T) {
	ctx := context.Background()
	table := NewTable()
	th := &thing{name: "moved"}
	from, _ := table.Insert(th)
	victim := &closeCounter{}
	to, _ := table.Insert(victim)

	if err := table.Renumber(ctx, from, to); err != nil {
		t.Fatalf("Renumber failed: %v", err)
	}
	got, err := Get[reader](table, to)
	if err != nil {
		t.Fatalf("Get after renumber failed: %v", err)
	}
	if got != reader(th) {
		t.Fatal("renumber did not preserve identity")
	}
	if table.Contains(from) {
		t.Fatal("source handle still valid after renumber")
	}
	if victim.count != 1 {
		t.Fatalf("overwritten entry closed %d times, want 1", victim.count)
	}

	// Destination may be free.
	if err := table.Renumber(ctx, to, 10); err != nil {
		t.Fatalf("Renumber to free handle failed: %v", err)
	}
	if !table.Contains(10) || table.Contains(to) {
		t.Fatal("renumber to free handle misplaced entry")
	}

	if err := table.Renumber(ctx, 77, 10); !stderrors.Is(err, errors.ErrBadHandle) {
		t.Fatalf("Expected bad handle, got %v", err)
	}
	if err := table.Renumber(ctx, 10, 10); err != nil {
		t.Fatalf("self renumber failed: %v", err)
	}
	if !table.Contains(10) {
		t.Fatal("self renumber lost entry")
	}
}

func TestTable_MaxHandles(t *testing.T) {
	table := NewTable(WithMaxHandles(2))
	table.Insert("a")
	h, _ := table.Insert("b")
	if _, err := table.Insert("c"); !stderrors.Is(err, errors.ErrTooManyHandles) {
		t.Fatalf("Expected too many handles, got %v", err)
	}
	table.Remove(h)
	if _, err := table.Insert("c"); err != nil {
		t.Fatalf("Insert after Remove failed: %v", err)
	}
}

func TestTable_Observer(t *testing.T) {
	ctx := context.Background()
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h, _ := table.Insert("test")
	if len(obs.events) != 1 || obs.events[0].Type != EventCreated || obs.events[0].Handle != h {
		t.Fatalf("unexpected events after Insert: %+v", obs.events)
	}

	table.Renumber(ctx, h, 5)
	last := obs.events[len(obs.events)-1]
	if last.Type != EventRenumbered || last.From != h || last.Handle != 5 {
		t.Fatalf("unexpected renumber event: %+v", last)
	}

	table.Remove(5)
	last = obs.events[len(obs.events)-1]
	if last.Type != EventDropped || last.Handle != 5 {
		t.Fatalf("unexpected drop event: %+v", last)
	}

	n := len(obs.events)
	table.Unsubscribe(obs)
	table.Insert("test2")
	if len(obs.events) != n {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	c := &closeCounter{}
	d := &dropCounter{}
	table.Insert(c)
	table.Insert(d)
	table.Insert("plain")

	if err := table.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if c.count != 1 || d.count != 1 {
		t.Fatalf("Expected each value released once, got close=%d drop=%d", c.count, d.count)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Close")
	}
	if _, err := table.Insert("c"); err == nil {
		t.Fatal("Expected Insert to fail after Close")
	}
	if err := table.Close(context.Background()); err != nil {
		t.Fatal("second Close should be a no-op")
	}
}

func TestTable_RemoveDoesNotClose(t *testing.T) {
	table := NewTable()
	c := &closeCounter{}
	h, _ := table.Insert(c)
	table.Remove(h)
	if c.count != 0 {
		t.Fatal("Remove must hand ownership back without closing")
	}
}

func TestRights(t *testing.T) {
	var unrestricted *Rights
	if !unrestricted.Has(RightFdWrite) {
		t.Fatal("nil rights should be unrestricted")
	}

	r := &Rights{Base: RightFdRead | RightFdSeek, Inheriting: RightFdRead}
	if !r.Has(RightFdRead) || r.Has(RightFdWrite) {
		t.Fatal("Has mismatch")
	}
	if !r.Narrow(RightFdRead, 0) || r.Narrow(RightFdRead|RightFdWrite, 0) {
		t.Fatal("Narrow mismatch")
	}
	child := r.Derive(RightFdRead|RightFdWrite, RightFdWrite)
	if child.Base != RightFdRead || child.Inheriting != 0 {
		t.Fatalf("Derive = %+v", child)
	}

	if got := FormatRights(RightFdRead | RightFdWrite); got != "fd_read|fd_write" {
		t.Fatalf("FormatRights = %q", got)
	}
	if RightName(RightSockAccept) != "sock_accept" {
		t.Fatal("RightName mismatch")
	}
	if RightsAll != 1<<30-1 {
		t.Fatalf("RightsAll = %#x", RightsAll)
	}
}
