package resource

import "context"

// Handle is the guest-visible integer naming a table entry. Handles 0, 1
// and 2 are conventionally bound to the standard streams.
type Handle uint32

// Entry is what the table stores under a handle. Value's dynamic type never
// changes once inserted.
type Entry struct {
	Value any
	// Rights is the legacy rights pair reported through fdstat. Nil means
	// unrestricted.
	Rights *Rights
	// Preopen is the guest path label for preopened directories.
	Preopen string
}

// EventType identifies a table lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventRenumbered
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventRenumbered:
		return "renumbered"
	default:
		return "unknown"
	}
}

// Event represents a table lifecycle event. From is set for renumbers.
type Event struct {
	Value  any
	Handle Handle
	From   Handle
	Type   EventType
}

// Observer receives notifications about table lifecycle events. Observers
// run with the table lock released, on the goroutine that caused the event.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Closer is implemented by values that release backend resources when the
// table drops them.
type Closer interface {
	Close(ctx context.Context) error
}

// Dropper is implemented by values that need cleanup but have no failure
// path.
type Dropper interface {
	Drop()
}
