// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracing emits trace events for computations running on the
// fiber runtime.
//
// A [Tracer] is created once per run around a single [Sink] and passed
// explicitly to everything that emits. It stamps each event with a
// timestamp (Unix milliseconds, never decreasing) and a sequence number
// (strictly increasing), and delivers events to the sink one at a time
// in sequence order. Because fibers are real goroutines, the sequence
// number is the authoritative order between events authored by
// different fibers: a parent's fiber:fork and its child's fiber:end may
// be stamped in either order, but every consumer sees the same order.
//
// The combinators wrap a [fiber.Effect] without changing its result:
//
//   - [WithTrace] brackets an effect with effect:start/effect:end.
//   - [ForkWithTrace] forks a fiber and records fiber:fork and the
//     child's fiber:end or fiber:interrupt.
//   - [Tracer.SleepWithTrace] brackets a suspension with
//     sleep:start/sleep:end.
//   - [RetryWithTrace] drives an explicit attempt loop, recording each
//     failed attempt.
//   - [AcquireReleaseWithTrace] records resource acquisition and the
//     release finalizer.
//   - [RunProgramWithTrace] makes the root fiber itself appear as the
//     root of the task tree.
//
// Combinators never perform I/O of their own. A sink that panics is
// recovered and logged by the Tracer; the traced computation carries
// on.
package tracing
