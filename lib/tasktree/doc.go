// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tasktree rebuilds the fiber hierarchy of a run from its
// trace events.
//
// [Fold] is the pure form: an ordered event list in, a map of
// [TaskInfo] out. [Reconstructor] is the same fold applied one event at
// a time. Both tolerate the disorder a live stream produces:
//
//   - A terminal or sleep event for a fiber whose fiber:fork has not
//     arrived yet is held back and applied when the fork arrives.
//   - A repeated fiber:fork for a known fiber is ignored.
//   - The first terminal event for a fiber wins; later ones are
//     ignored.
//   - A fiber whose parent is unknown becomes an additional root, and
//     moves under its parent if the parent's fork arrives later.
//
// Nothing depends on map iteration order: fork arrival order is kept
// separately, so folding the same events always yields the same
// forest.
//
// [Log] is the append-only event list and [Store] pairs one with a
// Reconstructor behind a mutex for live views. A Store is a
// tracing.Sink, so a tracer can emit straight into it.
package tasktree
