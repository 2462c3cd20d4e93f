// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for fibertrace
// packages.
//
// [RequireReceive], [RequireClosed] and [Collect] wrap the select with
// a wall-clock timeout that keeps a broken test from hanging the suite.
// They are the only place tests use real timeouts; everything else
// runs on a fake clock.
//
// [Recorder] is an in-memory event sink that tests use to capture what
// a tracer emitted.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
