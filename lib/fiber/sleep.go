// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fiber

import (
	"context"
	"time"

	"github.com/bureau-foundation/fibertrace/lib/clock"
)

// Sleep suspends the calling fiber for d using its runtime's clock
// (the real clock outside a fiber). It returns nil when the time has
// elapsed, or ctx's cancellation cause (ErrInterrupted for an
// interrupted fiber) if ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	if d <= 0 {
		return nil
	}

	timer := clockFor(ctx).NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func clockFor(ctx context.Context) clock.Clock {
	if fiber := Current(ctx); fiber != nil {
		return fiber.runtime.clock
	}
	return clock.Real()
}
