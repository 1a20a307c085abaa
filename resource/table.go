package resource

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/wippyai/wasi-common/errors"
)

// Table maps guest handles to host values for one execution context.
//
// The lock keeps handle allocation atomic. It does not make sequences of
// calls atomic; callers serialize calls against one context.
type Table struct {
	slots     slots
	observers []Observer
	max       int
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

// Option configures a Table.
type Option func(*Table)

// WithMaxHandles bounds the number of live entries. Zero means unbounded.
func WithMaxHandles(n int) Option {
	return func(t *Table) { t.max = n }
}

// NewTable creates an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{slots: newSlots()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Insert takes ownership of v and returns a fresh handle. It fails only
// when the table is closed or a handle limit is configured and reached.
func (t *Table) Insert(v any) (Handle, error) {
	return t.InsertEntry(Entry{Value: v})
}

// InsertEntry is Insert with rights and preopen label.
func (t *Table) InsertEntry(e Entry) (Handle, error) {
	t.mu.Lock()
	if err := t.admit(); err != nil {
		t.mu.Unlock()
		return 0, err
	}
	h := t.slots.next()
	t.slots.put(h, e)
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Value: e.Value})
	return h, nil
}

// InsertAt places e at an explicit handle. The handle must be free.
func (t *Table) InsertAt(h Handle, e Entry) error {
	t.mu.Lock()
	if err := t.admit(); err != nil {
		t.mu.Unlock()
		return err
	}
	if _, ok := t.slots.get(h); ok {
		t.mu.Unlock()
		return errors.New(errors.PhaseTable, errors.KindAlreadyExists).
			Op("insert").Handle(uint32(h)).Detail("handle in use").Build()
	}
	t.slots.put(h, e)
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Value: e.Value})
	return nil
}

func (t *Table) admit() error {
	if t.closed {
		return errors.New(errors.PhaseTable, errors.KindBadHandle).Detail("table closed").Build()
	}
	if t.max > 0 && t.slots.live >= t.max {
		return errors.New(errors.PhaseTable, errors.KindTooManyHandles).
			Detail("limit of %d handles reached", t.max).Build()
	}
	return nil
}

// Lookup returns the entry stored under h.
func (t *Table) Lookup(h Handle) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.slots.get(h)
	if !ok {
		return Entry{}, errors.BadHandle("lookup", uint32(h))
	}
	return *e, nil
}

// Contains reports whether h is live.
func (t *Table) Contains(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.slots.get(h)
	return ok
}

// SetRights replaces the rights of a live entry.
func (t *Table) SetRights(h Handle, r *Rights) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.slots.get(h)
	if !ok {
		return errors.BadHandle("set_rights", uint32(h))
	}
	e.Rights = r
	return nil
}

// Get returns the value under h viewed as T. Unknown handles fail with
// KindBadHandle; values not implementing T fail with KindNotSupported.
func Get[T any](t *Table, h Handle) (T, error) {
	var zero T
	e, err := t.Lookup(h)
	if err != nil {
		return zero, err
	}
	v, ok := e.Value.(T)
	if !ok {
		return zero, errors.New(errors.PhaseTable, errors.KindNotSupported).
			Handle(uint32(h)).
			Detail("%T does not implement %s", e.Value, typeName[T]()).
			Build()
	}
	return v, nil
}

// Is reports whether the value under h implements T.
func Is[T any](t *Table, h Handle) bool {
	_, err := Get[T](t, h)
	return err == nil
}

func typeName[T any]() string {
	return fmt.Sprintf("%T", (*T)(nil))[1:]
}

// Remove drops h from the table and returns its value. The value is not
// closed; ownership passes to the caller.
func (t *Table) Remove(h Handle) (any, error) {
	t.mu.Lock()
	e, ok := t.slots.del(h)
	t.mu.Unlock()
	if !ok {
		return nil, errors.BadHandle("remove", uint32(h))
	}

	t.notify(Event{Type: EventDropped, Handle: h, Value: e.Value})
	return e.Value, nil
}

// Renumber moves the entry at from to to. A live entry at to is dropped and
// closed first. Afterwards from is no longer valid.
func (t *Table) Renumber(ctx context.Context, from, to Handle) error {
	t.mu.Lock()
	fe, ok := t.slots.get(from)
	if !ok {
		t.mu.Unlock()
		return errors.BadHandle("renumber", uint32(from))
	}
	if from == to {
		t.mu.Unlock()
		return nil
	}
	moved := *fe
	t.slots.del(from)
	prev, hadPrev := t.slots.del(to)
	t.slots.put(to, moved)
	t.mu.Unlock()

	var err error
	if hadPrev {
		t.notify(Event{Type: EventDropped, Handle: to, Value: prev.Value})
		err = Release(ctx, prev.Value)
	}
	t.notify(Event{Type: EventRenumbered, Handle: to, From: from, Value: moved.Value})
	return err
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots.live
}

// Range calls fn for each live entry in handle order until fn returns false.
// fn must not call back into the table.
func (t *Table) Range(fn func(Handle, Entry) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots.each(func(h Handle, e *Entry) bool {
		return fn(h, *e)
	})
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops every remaining entry, closing values that implement Closer
// or Dropper, and rejects further inserts. Errors from individual values
// are joined.
func (t *Table) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	remaining := t.slots.reset()
	t.mu.Unlock()

	var errs []error
	for _, e := range remaining {
		if err := Release(ctx, e.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Release closes v if it is a Closer, or drops it if it is a Dropper.
func Release(ctx context.Context, v any) error {
	switch c := v.(type) {
	case Closer:
		return c.Close(ctx)
	case Dropper:
		c.Drop()
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
