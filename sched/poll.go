package sched

import (
	"context"
	"time"

	"github.com/wippyai/wasi-common/clocks"
	"github.com/wippyai/wasi-common/file"
)

// EventType is the kind of a subscription and of the event it produces.
// Values match the ABI encoding of both snapshots.
type EventType uint8

const (
	EventClock EventType = iota
	EventFdRead
	EventFdWrite
)

func (t EventType) String() string {
	switch t {
	case EventClock:
		return "clock"
	case EventFdRead:
		return "fd_read"
	case EventFdWrite:
		return "fd_write"
	default:
		return "unknown"
	}
}

// Subscription is one entry of a poll set.
type Subscription struct {
	// Err marks a subscription that failed while being decoded (unknown
	// handle, unsupported clock). It is reported as ready with that error.
	Err      error
	File     file.File
	Clock    clocks.MonotonicClock
	Userdata uint64
	// Deadline is an absolute reading of Clock.
	Deadline time.Duration
	Type     EventType
}

// Event is one ready subscription.
type Event struct {
	Err      error
	Userdata uint64
	NBytes   uint64
	Type     EventType
}

// Poll collects subscriptions for one poll_oneoff call and receives the
// ready events.
type Poll struct {
	subs    []Subscription
	results []Event
}

// NewPoll returns an empty poll set.
func NewPoll() *Poll {
	return &Poll{}
}

// SubscribeRead waits for f to become readable.
func (p *Poll) SubscribeRead(f file.File, userdata uint64) {
	p.subs = append(p.subs, Subscription{Type: EventFdRead, File: f, Userdata: userdata})
}

// SubscribeWrite waits for f to become writable.
func (p *Poll) SubscribeWrite(f file.File, userdata uint64) {
	p.subs = append(p.subs, Subscription{Type: EventFdWrite, File: f, Userdata: userdata})
}

// SubscribeMonotonicClock waits until c reads at least deadline.
func (p *Poll) SubscribeMonotonicClock(c clocks.MonotonicClock, deadline time.Duration, userdata uint64) {
	p.subs = append(p.subs, Subscription{Type: EventClock, Clock: c, Deadline: deadline, Userdata: userdata})
}

// Fail adds a subscription that is immediately ready with err.
func (p *Poll) Fail(t EventType, userdata uint64, err error) {
	p.subs = append(p.subs, Subscription{Type: t, Err: err, Userdata: userdata})
}

// Len returns the number of subscriptions.
func (p *Poll) Len() int { return len(p.subs) }

// Subscriptions returns the poll set.
func (p *Poll) Subscriptions() []Subscription { return p.subs }

// Results returns the events filled in by the scheduler, in subscription
// order.
func (p *Poll) Results() []Event { return p.results }

// check evaluates every subscription once and records the ready ones.
// It returns the smallest remaining clock wait, or -1 when no clock
// subscription is pending.
func (p *Poll) check(ctx context.Context) (ready int, wait time.Duration) {
	p.results = p.results[:0]
	wait = -1
	for _, s := range p.subs {
		if s.Err != nil {
			p.results = append(p.results, Event{Type: s.Type, Userdata: s.Userdata, Err: s.Err})
			continue
		}
		switch s.Type {
		case EventClock:
			left := s.Deadline - s.Clock.Now()
			if left <= 0 {
				p.results = append(p.results, Event{Type: EventClock, Userdata: s.Userdata})
				continue
			}
			if wait < 0 || left < wait {
				wait = left
			}
		case EventFdRead:
			ok, err := s.File.Readable(ctx)
			if err != nil {
				p.results = append(p.results, Event{Type: s.Type, Userdata: s.Userdata, Err: err})
				continue
			}
			if ok {
				n, err := s.File.NumReady(ctx)
				p.results = append(p.results, Event{Type: s.Type, Userdata: s.Userdata, NBytes: n, Err: err})
			}
		case EventFdWrite:
			ok, err := s.File.Writable(ctx)
			if err != nil || ok {
				p.results = append(p.results, Event{Type: s.Type, Userdata: s.Userdata, Err: err})
			}
		}
	}
	return len(p.results), wait
}

// hasFiles reports whether any subscription needs readiness re-polling.
func (p *Poll) hasFiles() bool {
	for _, s := range p.subs {
		if s.Err == nil && s.Type != EventClock {
			return true
		}
	}
	return false
}

// earliestClock returns the clock of the subscription with the nearest
// deadline.
func (p *Poll) earliestClock() clocks.MonotonicClock {
	var (
		best    clocks.MonotonicClock
		nearest time.Duration = -1
	)
	for _, s := range p.subs {
		if s.Type != EventClock || s.Err != nil {
			continue
		}
		left := s.Deadline - s.Clock.Now()
		if nearest < 0 || left < nearest {
			best, nearest = s.Clock, left
		}
	}
	return best
}
