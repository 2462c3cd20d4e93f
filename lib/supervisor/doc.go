// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor traces a run without wrapping call sites.
//
// Two realizations are provided, and a run uses at most one of them:
//
//   - [FiberTracer] is a [fiber.Supervisor]. The runtime calls it for
//     every fiber it starts and ends, so every fiber appears in the
//     task tree, including fibers the program author never wrapped.
//     It records no effect-level detail.
//   - [SpanTracer] is an OpenTelemetry span processor. Every span the
//     program starts becomes an effect:start/effect:end pair, keyed by
//     the span id.
//
// [Install] wires the realization selected by a [Mode].
package supervisor
