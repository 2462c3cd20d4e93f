// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates a structured logger writing to output at the given
// level. When output is an *os.File attached to a terminal it uses
// slog.TextHandler for human-readable output; otherwise it uses
// slog.JSONHandler.
//
// Trace lines never go through this logger. Commands log to stderr
// while trace lines travel on stdout, so logging cannot corrupt the
// protocol stream.
func NewLogger(output io.Writer, level slog.Level) *slog.Logger {
	return newLogger(output, IsTerminal(output), level)
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func newLogger(output io.Writer, terminal bool, level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if terminal {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}
	return slog.New(handler)
}
