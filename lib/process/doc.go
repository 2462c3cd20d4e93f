// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. These functions
// centralize the raw I/O that happens after every structured logger is
// gone: reporting the error returned by run() and choosing the exit
// status.
//
// An error that implements ExitCode() int (such as cli.ExitError)
// chooses its own status and is not printed; the command has already
// written its output. Everything else prints "error: ..." and exits 1.
package process
