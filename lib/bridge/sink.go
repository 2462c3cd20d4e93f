// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"io"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// WriterSink writes each event as one protocol line. Every line is
// written with a single Write call under a mutex, so lines from
// concurrent emitters never interleave. Write failures are logged and
// counted; the emitting computation never sees them.
type WriterSink struct {
	mu       sync.Mutex
	writer   io.Writer
	logger   *slog.Logger
	failures int
}

// NewWriterSink creates a WriterSink. A nil logger discards.
func NewWriterSink(writer io.Writer, logger *slog.Logger) *WriterSink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WriterSink{writer: writer, logger: logger}
}

// Emit implements tracing.Sink.
func (sink *WriterSink) Emit(event traceevent.Event) {
	line, err := EncodeLine(event)

	sink.mu.Lock()
	defer sink.mu.Unlock()

	if err == nil {
		_, err = sink.writer.Write(line)
	}
	if err != nil {
		sink.failures++
		sink.logger.Warn("writing trace line failed",
			"type", string(event.Type),
			"seq", event.Seq,
			"error", err,
		)
	}
}

// Failures returns the number of events that could not be written.
func (sink *WriterSink) Failures() int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.failures
}
