// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// Sink accepts trace events. A Tracer calls Emit from one goroutine at
// a time, in sequence order; a sink shared between tracers must do its
// own locking.
type Sink interface {
	Emit(event traceevent.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(event traceevent.Event)

func (function SinkFunc) Emit(event traceevent.Event) { function(event) }

// MultiSink delivers each event to every sink in order.
type MultiSink []Sink

func (sinks MultiSink) Emit(event traceevent.Event) {
	for _, sink := range sinks {
		sink.Emit(event)
	}
}

// Discard drops every event.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Emit(traceevent.Event) {}

// ChannelSink forwards events to a buffered channel without blocking
// the emitter. When the buffer is full the event is dropped and
// counted.
type ChannelSink struct {
	channel chan traceevent.Event
	dropped atomic.Uint64

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(capacity int) *ChannelSink {
	return &ChannelSink{channel: make(chan traceevent.Event, capacity)}
}

// Emit enqueues event, or drops it if the buffer is full or the sink
// is closed.
func (sink *ChannelSink) Emit(event traceevent.Event) {
	sink.mu.RLock()
	defer sink.mu.RUnlock()
	if sink.closed {
		sink.dropped.Add(1)
		return
	}
	select {
	case sink.channel <- event:
	default:
		sink.dropped.Add(1)
	}
}

// Events returns the receive side. It is closed by Close.
func (sink *ChannelSink) Events() <-chan traceevent.Event { return sink.channel }

// Dropped returns how many events were discarded.
func (sink *ChannelSink) Dropped() uint64 { return sink.dropped.Load() }

// Close closes the Events channel. Emit after Close drops.
func (sink *ChannelSink) Close() {
	sink.closeOnce.Do(func() {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		sink.closed = true
		close(sink.channel)
	})
}
