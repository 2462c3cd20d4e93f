// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source injected into tracers and fiber runtimes.
type Clock interface {
	// Now returns the current time. Tracers derive event timestamps
	// from it.
	Now() time.Time

	// After returns a channel that receives once d has elapsed. If
	// d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time

	// NewTimer arms a one-shot timer. Callers that may abandon the wait
	// (an interrupted sleep) must Stop it so the timer does not linger.
	NewTimer(d time.Duration) *Timer
}

// Timer is a one-shot timer. C receives the fire time exactly once
// unless Stop wins the race.
type Timer struct {
	C <-chan time.Time

	stop func() bool
}

// Stop disarms the timer. It reports whether the call prevented the
// timer from firing.
func (timer *Timer) Stop() bool { return timer.stop() }

// UnixMilli returns clock's current time as Unix milliseconds, the
// resolution carried by trace event timestamps.
func UnixMilli(clock Clock) int64 {
	return clock.Now().UnixMilli()
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) NewTimer(d time.Duration) *Timer {
	timer := time.NewTimer(d)
	return &Timer{C: timer.C, stop: timer.Stop}
}
