// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"sync"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// Recorder is a concurrency-safe sink that keeps every event it is
// given, in emission order.
type Recorder struct {
	mu     sync.Mutex
	events []traceevent.Event
}

// Emit appends event.
func (recorder *Recorder) Emit(event traceevent.Event) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.events = append(recorder.events, event)
}

// Events returns a copy of everything recorded so far.
func (recorder *Recorder) Events() []traceevent.Event {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]traceevent.Event(nil), recorder.events...)
}

// Kinds returns the Type of every recorded event, in order.
func (recorder *Recorder) Kinds() []traceevent.Kind {
	events := recorder.Events()
	kinds := make([]traceevent.Kind, len(events))
	for index, event := range events {
		kinds[index] = event.Type
	}
	return kinds
}

// OfKind returns the recorded events of the given kind, in order.
func (recorder *Recorder) OfKind(kind traceevent.Kind) []traceevent.Event {
	var matched []traceevent.Event
	for _, event := range recorder.Events() {
		if event.Type == kind {
			matched = append(matched, event)
		}
	}
	return matched
}
