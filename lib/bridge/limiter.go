// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "context"

// Limiter is a counting semaphore bounding how many traced programs a
// set of hosts may run at once. Construct one per policy and pass it to
// every Host that should share the bound.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter returns a Limiter with capacity slots. A capacity below
// one is treated as one.
func NewLimiter(capacity int) *Limiter {
	return &Limiter{slots: make(chan struct{}, max(capacity, 1))}
}

// Acquire takes a slot, waiting until one is free or ctx is done.
func (limiter *Limiter) Acquire(ctx context.Context) error {
	select {
	case limiter.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// TryAcquire takes a slot if one is free without waiting.
func (limiter *Limiter) TryAcquire() bool {
	select {
	case limiter.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot. Releasing more slots than were acquired
// panics.
func (limiter *Limiter) Release() {
	select {
	case <-limiter.slots:
	default:
		panic("bridge: Limiter.Release without a matching Acquire")
	}
}

// Capacity returns the total number of slots.
func (limiter *Limiter) Capacity() int { return cap(limiter.slots) }

// InUse returns the number of slots currently held.
func (limiter *Limiter) InUse() int { return len(limiter.slots) }
