// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package traceevent defines the closed vocabulary of trace events
// emitted while observing a fiber runtime.
//
// An [Event] is a flat record with a [Kind] discriminant. Each kind uses
// a subset of the fields; the JSON names match the TRACE_EVENT line
// protocol exactly, so the same struct is used on both sides of a
// process boundary:
//
//	effect:start     id, label
//	effect:end       id, result, value?, error?
//	retry:attempt    id, label, attempt, lastError
//	fiber:fork       fiberId, parentId?, label
//	fiber:end        fiberId
//	fiber:interrupt  fiberId
//	sleep:start      fiberId, duration
//	sleep:end        fiberId
//	finalizer        id, label
//	acquire          id, label, result, error?
//
// Every event carries a Timestamp (Unix milliseconds, non-decreasing per
// emitter) and a Seq (per-emitter logical clock). Constructors leave both
// zero; the emitter stamps them at emission time.
//
// Adding a kind means adding it here: the constant, [Kinds], the
// constructor, and the field requirements in [Event.Validate]. Nothing
// else in the repository changes shape.
package traceevent
