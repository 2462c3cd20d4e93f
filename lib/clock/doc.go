// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source used for trace timestamps and
// fiber sleeps.
//
// Code that stamps events or suspends a fiber takes a Clock instead of
// calling the time package directly. Production wiring uses Real();
// tests use Fake(), which stands still until Advance is called:
//
//	fake := clock.Fake(time.UnixMilli(1_000))
//	go func() { _ = fiber.Sleep(ctx, time.Second) }()
//	fake.WaitForTimers(1)     // the sleep has registered its timer
//	fake.Advance(time.Second) // and now it fires
//
// WaitForTimers closes the race between a goroutine arming a timer and
// the test advancing time past it.
package clock
