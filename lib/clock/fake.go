// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{current: initial}
	fake.armed = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a deterministic Clock. Time moves only when Advance is
// called; timers whose deadline is reached fire during that call in
// deadline order. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	pending []*fakeTimer
	armed   *sync.Cond
}

type fakeTimer struct {
	deadline time.Time
	channel  chan time.Time
	done     bool
}

func (fake *FakeClock) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.current
}

func (fake *FakeClock) After(d time.Duration) <-chan time.Time {
	return fake.NewTimer(d).C
}

// NewTimer arms a timer that fires when the clock is advanced to or
// past now+d. A non-positive d fires immediately and is never pending.
func (fake *FakeClock) NewTimer(d time.Duration) *Timer {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	timer := &fakeTimer{
		deadline: fake.current.Add(d),
		channel:  make(chan time.Time, 1),
	}
	if d <= 0 {
		timer.done = true
		timer.channel <- fake.current
	} else {
		fake.pending = append(fake.pending, timer)
		fake.armed.Broadcast()
	}

	return &Timer{
		C: timer.channel,
		stop: func() bool {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			if timer.done {
				return false
			}
			timer.done = true
			fake.removeLocked(timer)
			return true
		},
	}
}

// Advance moves the clock forward by d and fires every timer whose
// deadline is now due.
func (fake *FakeClock) Advance(d time.Duration) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	fake.current = fake.current.Add(d)

	var due, remaining []*fakeTimer
	for _, timer := range fake.pending {
		if timer.deadline.After(fake.current) {
			remaining = append(remaining, timer)
		} else {
			due = append(due, timer)
		}
	}
	fake.pending = remaining

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, timer := range due {
		timer.done = true
		timer.channel <- fake.current
	}
}

// WaitForTimers blocks until at least n timers are pending.
func (fake *FakeClock) WaitForTimers(n int) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for len(fake.pending) < n {
		fake.armed.Wait()
	}
}

// PendingCount returns the number of armed timers that have neither
// fired nor been stopped.
func (fake *FakeClock) PendingCount() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.pending)
}

func (fake *FakeClock) removeLocked(target *fakeTimer) {
	for index, timer := range fake.pending {
		if timer == target {
			fake.pending = append(fake.pending[:index], fake.pending[index+1:]...)
			return
		}
	}
}
