package wasi

import (
	"context"
	"math"
	"time"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/resource"
	"github.com/wippyai/wasi-common/sched"
)

// Subscription is one decoded poll_oneoff subscription.
type Subscription struct {
	Userdata uint64
	Type     sched.EventType

	// Clock subscriptions.
	Clock     ClockID
	Timeout   uint64
	Precision uint64
	Abstime   bool

	// Fd subscriptions.
	Fd resource.Handle
}

// PollOneoff waits until at least one subscription is ready and returns
// every ready event. An empty set fails with InvalidArgument. Per
// subscription failures (unknown handle, unsupported clock) are reported
// as events carrying the error rather than failing the call.
func (c *Ctx) PollOneoff(ctx context.Context, subs []Subscription) ([]sched.Event, error) {
	if len(subs) == 0 {
		return nil, errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
			Op("poll_oneoff").Detail("no subscriptions").Build()
	}

	p := sched.NewPoll()
	for _, s := range subs {
		switch s.Type {
		case sched.EventClock:
			deadline, err := c.deadline(s)
			if err != nil {
				p.Fail(s.Type, s.Userdata, err)
				continue
			}
			p.SubscribeMonotonicClock(c.clocks.Monotonic, deadline, s.Userdata)
		case sched.EventFdRead, sched.EventFdWrite:
			f, err := c.file("poll_oneoff", s.Fd, resource.RightPollFdReadwrite)
			if err != nil {
				p.Fail(s.Type, s.Userdata, err)
				continue
			}
			if s.Type == sched.EventFdRead {
				p.SubscribeRead(f, s.Userdata)
			} else {
				p.SubscribeWrite(f, s.Userdata)
			}
		default:
			return nil, errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
				Op("poll_oneoff").Detail("unknown subscription type %d", s.Type).Build()
		}
	}

	if err := c.sched.PollOneoff(ctx, p); err != nil {
		return nil, errors.WithOp(err, "poll_oneoff", 0)
	}
	return p.Results(), nil
}

// deadline converts a clock subscription into an absolute monotonic
// reading. Realtime deadlines are mapped onto the monotonic clock at
// subscription time.
func (c *Ctx) deadline(s Subscription) (time.Duration, error) {
	timeout := time.Duration(math.MaxInt64)
	if s.Timeout < math.MaxInt64 {
		timeout = time.Duration(s.Timeout)
	}
	switch s.Clock {
	case ClockMonotonic:
		if s.Abstime {
			return timeout, nil
		}
	case ClockRealtime:
		if s.Abstime {
			timeout -= time.Duration(c.clocks.System.Now().UnixNano())
		}
	default:
		return 0, unknownClock("poll_oneoff", s.Clock)
	}
	now := c.clocks.Monotonic.Now()
	if timeout > math.MaxInt64-now {
		return math.MaxInt64, nil
	}
	return now + timeout, nil
}
