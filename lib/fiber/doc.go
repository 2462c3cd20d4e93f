// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fiber is a small structured-concurrency runtime: the host
// scheduler that fibertrace observes.
//
// A fiber is a goroutine with an identity ("#1", "#2", ...), a parent
// link and an interruptible context. Fibers form a tree: [Fork] creates
// a child of the fiber found in its context, and when a fiber's effect
// returns, any children still running are interrupted and awaited
// before the fiber itself ends. No goroutine forked through this
// package outlives the fiber that forked it.
//
// Interruption cancels a fiber's context with cause [ErrInterrupted].
// Effects observe it through ctx like any other cancellation; the
// suspension points the runtime itself provides ([Sleep] and
// [Handle.Join]) return the cause directly.
//
// The runtime reports every fiber start and end to an optional
// [Supervisor]. This is the hook the automatic tracer attaches to; the
// runtime itself never emits trace events.
//
// [Scope] collects finalizers that run exactly once, in reverse
// registration order, however the owning computation exits.
package fiber
