// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/fibertrace/lib/clock"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// DefaultIDPrefix prefixes ids from NewID when Options.IDPrefix is
// empty.
const DefaultIDPrefix = "effect"

// Options configures a Tracer.
type Options struct {
	// Clock supplies event timestamps. Defaults to clock.Real().
	Clock clock.Clock

	// Logger reports sinks that panic. Defaults to a discarding
	// logger.
	Logger *slog.Logger

	// IDPrefix is the prefix of ids minted by NewID.
	IDPrefix string
}

// Tracer stamps events and hands them to its sink.
type Tracer struct {
	sink   Sink
	clock  clock.Clock
	logger *slog.Logger
	prefix string
	lastID atomic.Uint64

	// mu serializes emission so sink order equals seq order.
	mu            sync.Mutex
	lastTimestamp int64
	seq           uint64
	sinkPanics    uint64
}

// New creates a Tracer delivering to sink.
func New(sink Sink, options Options) *Tracer {
	tracer := &Tracer{
		sink:   sink,
		clock:  options.Clock,
		logger: options.Logger,
		prefix: options.IDPrefix,
	}
	if tracer.sink == nil {
		tracer.sink = Discard
	}
	if tracer.clock == nil {
		tracer.clock = clock.Real()
	}
	if tracer.logger == nil {
		tracer.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if tracer.prefix == "" {
		tracer.prefix = DefaultIDPrefix
	}
	return tracer
}

// NewID returns a fresh id of the form "<prefix>-<n>".
func (tracer *Tracer) NewID() string {
	return tracer.prefix + "-" + strconv.FormatUint(tracer.lastID.Add(1), 10)
}

// Emit stamps event and delivers it to the sink. Any Timestamp or Seq
// already on the event is overwritten.
func (tracer *Tracer) Emit(event traceevent.Event) {
	tracer.mu.Lock()
	defer tracer.mu.Unlock()

	now := clock.UnixMilli(tracer.clock)
	if now < tracer.lastTimestamp {
		now = tracer.lastTimestamp
	}
	tracer.lastTimestamp = now
	tracer.seq++
	event.Timestamp = now
	event.Seq = tracer.seq

	tracer.deliver(event)
}

// deliver calls the sink, containing any panic. Must be called with
// tracer.mu held.
func (tracer *Tracer) deliver(event traceevent.Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			tracer.sinkPanics++
			tracer.logger.Warn("trace sink panicked; event dropped",
				"type", string(event.Type),
				"seq", event.Seq,
				"panic", recovered,
			)
		}
	}()
	tracer.sink.Emit(event)
}

// SinkPanics returns how many events were lost to a panicking sink.
func (tracer *Tracer) SinkPanics() uint64 {
	tracer.mu.Lock()
	defer tracer.mu.Unlock()
	return tracer.sinkPanics
}
