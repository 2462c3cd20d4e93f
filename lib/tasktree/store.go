// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tasktree

import (
	"sync"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// DefaultMaxRawLines bounds the raw output kept by a Store.
const DefaultMaxRawLines = 10000

// Store is the live consumer of one run: the event log, the folded task
// state, and the program's non-protocol output, behind one lock. Every
// update is folded immediately, so readers always see the log and the
// forest agree.
//
// A Store implements tracing.Sink.
type Store struct {
	mu            sync.RWMutex
	log           Log
	reconstructor *Reconstructor
	raw           lineRing

	// changed has capacity 1. Updates send without blocking, so a slow
	// reader sees one pending notification however many updates it
	// missed.
	changed chan struct{}
}

// NewStore returns an empty Store keeping at most maxRawLines raw
// output lines (DefaultMaxRawLines if maxRawLines <= 0).
func NewStore(maxRawLines int) *Store {
	if maxRawLines <= 0 {
		maxRawLines = DefaultMaxRawLines
	}
	return &Store{
		reconstructor: NewReconstructor(),
		raw:           lineRing{capacity: maxRawLines},
		changed:       make(chan struct{}, 1),
	}
}

// Emit appends event to the log and folds it.
func (store *Store) Emit(event traceevent.Event) {
	store.mu.Lock()
	store.log.Add(event)
	store.reconstructor.Apply(event)
	store.mu.Unlock()
	store.notify()
}

// Add is Emit under the consumer API's name.
func (store *Store) Add(event traceevent.Event) { store.Emit(event) }

// AddRaw records one line of non-protocol program output. The oldest
// lines are dropped beyond the limit.
func (store *Store) AddRaw(line string) {
	store.mu.Lock()
	store.raw.add(line)
	store.mu.Unlock()
	store.notify()
}

// Clear discards every event, all derived state and the raw output.
func (store *Store) Clear() {
	store.mu.Lock()
	store.log.Clear()
	store.reconstructor.Reset()
	store.raw.clear()
	store.mu.Unlock()
	store.notify()
}

// Changed delivers a value after updates. Receivers should re-read the
// Store rather than count notifications.
func (store *Store) Changed() <-chan struct{} { return store.changed }

func (store *Store) notify() {
	select {
	case store.changed <- struct{}{}:
	default:
	}
}

// Events returns a copy of the event log.
func (store *Store) Events() []traceevent.Event {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.log.Events()
}

// Len returns the number of logged events.
func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.log.Len()
}

// Tasks returns a copy of the folded task map.
func (store *Store) Tasks() map[string]TaskInfo {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.reconstructor.Tasks()
}

// Forest returns the current task forest, primary root first.
func (store *Store) Forest() []Node {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.reconstructor.Forest()
}

// Snapshot is a consistent view of a Store.
type Snapshot struct {
	Events     []traceevent.Event
	Forest     []Node
	Raw        []string
	RawDropped int

	// Pending counts events held for fibers whose fork has not been
	// seen.
	Pending int
}

// Snapshot returns the log, forest and raw output as of one instant.
func (store *Store) Snapshot() Snapshot {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return Snapshot{
		Events:     store.log.Events(),
		Forest:     store.reconstructor.Forest(),
		Raw:        store.raw.lines(),
		RawDropped: store.raw.dropped,
		Pending:    store.reconstructor.Pending(),
	}
}

// lineRing keeps the newest capacity lines. Once full, each add
// overwrites the oldest line in place.
type lineRing struct {
	buffer   []string
	capacity int

	// next is the slot the next add overwrites once buffer is full.
	next int

	// dropped counts lines overwritten since the last clear.
	dropped int
}

func (ring *lineRing) add(line string) {
	if len(ring.buffer) < ring.capacity {
		ring.buffer = append(ring.buffer, line)
		return
	}
	ring.buffer[ring.next] = line
	ring.next = (ring.next + 1) % ring.capacity
	ring.dropped++
}

// lines returns a copy of the kept lines, oldest first.
func (ring *lineRing) lines() []string {
	if len(ring.buffer) == 0 {
		return nil
	}
	ordered := make([]string, 0, len(ring.buffer))
	ordered = append(ordered, ring.buffer[ring.next:]...)
	return append(ordered, ring.buffer[:ring.next]...)
}

func (ring *lineRing) clear() {
	ring.buffer = nil
	ring.next = 0
	ring.dropped = 0
}
