// Package clocks provides the wall and monotonic clocks an execution
// context exposes through clock_time_get and clock_res_get.
//
// The monotonic clock is the time base for poll_oneoff deadlines and must
// never regress; NewMonotonic guards readings so it cannot, and Fake only
// moves forward.
//
// Tests use Fake for reproducible time:
//
//	fk := clocks.NewFake(time.Unix(0, 0))
//	c, _ := wasi.New().WithClocks(fk.Clocks()).Build()
//	fk.Advance(time.Second)
package clocks
