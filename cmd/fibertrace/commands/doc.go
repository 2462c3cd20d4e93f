// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the fibertrace command tree:
//
//   - run: spawn a program, read its TRACE_EVENT lines, and render the
//     reconstructed task tree and event timeline (or a live view),
//     optionally recording the events
//   - replay: verify and render a recording
//   - demo: run a built-in scenario that emits trace lines on stdout
//   - version: print build information
//
// Every command writes through [Streams] so tests can capture output.
package commands
