// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tasktree

import "github.com/bureau-foundation/fibertrace/lib/traceevent"

// Log is the append-only, ordered event list of one run. It is not safe
// for concurrent use; Store adds locking.
type Log struct {
	events []traceevent.Event
}

// Add appends event.
func (log *Log) Add(event traceevent.Event) {
	log.events = append(log.events, event)
}

// Clear discards every event.
func (log *Log) Clear() {
	log.events = nil
}

// Events returns a copy of the events in arrival order.
func (log *Log) Events() []traceevent.Event {
	return append([]traceevent.Event(nil), log.events...)
}

// Len returns the number of events.
func (log *Log) Len() int { return len(log.events) }
