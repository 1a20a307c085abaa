package wasi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/pipe"
	"github.com/wippyai/wasi-common/sched"
)

func TestPollOneoff_Empty(t *testing.T) {
	c, _, _ := newTestCtx(t)

	events, err := c.PollOneoff(context.Background(), nil)
	requireKind(t, err, errors.KindInvalidArgument)
	require.Empty(t, events)
}

func TestPollOneoff_PastDeadline(t *testing.T) {
	c, _, fake := newTestCtx(t)
	fake.Advance(time.Second)

	events, err := c.PollOneoff(context.Background(), []Subscription{
		{Type: sched.EventClock, Clock: ClockMonotonic, Timeout: uint64(time.Millisecond), Abstime: true, Userdata: 7},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, uint64(7), events[0].Userdata)
	require.Equal(t, sched.EventClock, events[0].Type)
	require.NoError(t, events[0].Err)
}

func TestPollOneoff_RelativeTimeout(t *testing.T) {
	c, _, fake := newTestCtx(t)

	done := make(chan []sched.Event, 1)
	go func() {
		events, err := c.PollOneoff(context.Background(), []Subscription{
			{Type: sched.EventClock, Clock: ClockMonotonic, Timeout: uint64(time.Minute), Userdata: 1},
		})
		if err == nil {
			done <- events
		}
		close(done)
	}()

	require.Eventually(t, func() bool { return fake.Pending() > 0 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("poll returned before the deadline")
	default:
	}
	fake.Advance(time.Minute)

	select {
	case events, ok := <-done:
		require.True(t, ok)
		require.Len(t, events, 1)
		require.Equal(t, uint64(1), events[0].Userdata)
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not return after the deadline")
	}
}

func TestPollOneoff_RealtimeAbsolute(t *testing.T) {
	c, _, _ := newTestCtx(t)

	events, err := c.PollOneoff(context.Background(), []Subscription{
		{Type: sched.EventClock, Clock: ClockRealtime, Timeout: uint64(testOrigin.Add(-time.Hour).UnixNano()), Abstime: true},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestPollOneoff_FailedSubscriptions(t *testing.T) {
	c, _, fake := newTestCtx(t)
	fake.Advance(time.Second)

	events, err := c.PollOneoff(context.Background(), []Subscription{
		{Type: sched.EventFdRead, Fd: 99, Userdata: 1},
		{Type: sched.EventClock, Clock: ClockProcessCPUTime, Userdata: 2},
		{Type: sched.EventFdWrite, Fd: 3, Userdata: 3},
		{Type: sched.EventClock, Clock: ClockMonotonic, Abstime: true, Userdata: 4},
	})
	require.NoError(t, err)
	require.Len(t, events, 4)

	byUserdata := map[uint64]sched.Event{}
	for _, e := range events {
		byUserdata[e.Userdata] = e
	}
	requireKind(t, byUserdata[1].Err, errors.KindBadHandle)
	requireKind(t, byUserdata[2].Err, errors.KindInvalidArgument)
	requireKind(t, byUserdata[3].Err, errors.KindNotSupported)
	require.NoError(t, byUserdata[4].Err)
}

func TestPollOneoff_StreamsReady(t *testing.T) {
	c, _, _ := newTestCtx(t, func(b *Builder) {
		b.WithStdin(pipe.FromString("abcd")).WithStdout(pipe.NewCapture())
	})

	events, err := c.PollOneoff(context.Background(), []Subscription{
		{Type: sched.EventFdRead, Fd: Stdin, Userdata: 10},
		{Type: sched.EventFdWrite, Fd: Stdout, Userdata: 11},
		{Type: sched.EventClock, Clock: ClockMonotonic, Timeout: uint64(time.Hour), Userdata: 12},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, uint64(10), events[0].Userdata)
	require.Equal(t, uint64(4), events[0].NBytes)
	require.Equal(t, uint64(11), events[1].Userdata)
}

func TestPollOneoff_Cancelled(t *testing.T) {
	c, _, _ := newTestCtx(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PollOneoff(ctx, []Subscription{
		{Type: sched.EventClock, Clock: ClockMonotonic, Timeout: uint64(time.Hour)},
	})
	requireKind(t, err, errors.KindInterrupted)
}

func TestPollOneoff_UnknownType(t *testing.T) {
	c, _, _ := newTestCtx(t)

	_, err := c.PollOneoff(context.Background(), []Subscription{{Type: sched.EventType(9)}})
	requireKind(t, err, errors.KindInvalidArgument)
}
