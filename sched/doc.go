// Package sched provides the scheduler behind sched_yield and poll_oneoff.
//
// A Poll is built per call: the dispatcher resolves each subscription's
// handle and adds it with SubscribeRead, SubscribeWrite or
// SubscribeMonotonicClock. A subscription whose handle does not resolve is
// added with Fail so it is reported with its error while the others are
// still evaluated.
//
//	p := sched.NewPoll()
//	p.SubscribeRead(stdin, 1)
//	p.SubscribeMonotonicClock(mono, mono.Now()+time.Second, 2)
//	if err := s.PollOneoff(ctx, p); err != nil {
//	    return err
//	}
//	for _, ev := range p.Results() { ... }
//
// Sync blocks the calling goroutine. Cancelling the context unblocks it
// with KindInterrupted, which is how cooperative embeddings suspend and
// abandon a guest call.
package sched
