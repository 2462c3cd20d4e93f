// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tasktree

import (
	"sort"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// Reconstructor folds events into task state incrementally. It is not
// safe for concurrent use; Store adds locking.
type Reconstructor struct {
	tasks map[string]*TaskInfo

	// order holds task ids in fork arrival order.
	order []string

	// pending holds sleep and terminal events for fibers not yet
	// forked, in arrival order.
	pending map[string][]traceevent.Event

	// orphans maps an unknown parent id to children that named it,
	// in arrival order.
	orphans map[string][]string
}

// NewReconstructor returns an empty Reconstructor.
func NewReconstructor() *Reconstructor {
	reconstructor := &Reconstructor{}
	reconstructor.Reset()
	return reconstructor
}

// Reset discards all state.
func (reconstructor *Reconstructor) Reset() {
	reconstructor.tasks = make(map[string]*TaskInfo)
	reconstructor.order = nil
	reconstructor.pending = make(map[string][]traceevent.Event)
	reconstructor.orphans = make(map[string][]string)
}

// Apply folds one event. Events that do not concern fiber lifecycle or
// suspension are ignored.
func (reconstructor *Reconstructor) Apply(event traceevent.Event) {
	if event.FiberID == "" {
		return
	}
	switch event.Type {
	case traceevent.KindFiberFork:
		reconstructor.fork(event)
	case traceevent.KindSleepStart, traceevent.KindSleepEnd,
		traceevent.KindFiberEnd, traceevent.KindFiberInterrupt:
		task, known := reconstructor.tasks[event.FiberID]
		if !known {
			reconstructor.pending[event.FiberID] = append(reconstructor.pending[event.FiberID], event)
			return
		}
		transition(task, event)
	}
}

func (reconstructor *Reconstructor) fork(event traceevent.Event) {
	id := event.FiberID
	if _, duplicate := reconstructor.tasks[id]; duplicate {
		return
	}

	parentID := event.ParentID
	if parentID == id {
		parentID = ""
	}
	task := &TaskInfo{
		ID:        id,
		ParentID:  parentID,
		State:     StateRunning,
		Label:     event.Label,
		StartTime: event.Timestamp,
	}
	reconstructor.tasks[id] = task
	reconstructor.order = append(reconstructor.order, id)

	if parentID != "" {
		if parent, known := reconstructor.tasks[parentID]; known {
			parent.Children = append(parent.Children, id)
		} else {
			reconstructor.orphans[parentID] = append(reconstructor.orphans[parentID], id)
		}
	}

	if waiting, ok := reconstructor.orphans[id]; ok {
		task.Children = append(task.Children, waiting...)
		delete(reconstructor.orphans, id)
	}

	if held, ok := reconstructor.pending[id]; ok {
		delete(reconstructor.pending, id)
		for _, heldEvent := range held {
			transition(task, heldEvent)
		}
	}
}

// transition applies a sleep or terminal event to a known task.
func transition(task *TaskInfo, event traceevent.Event) {
	if task.Ended {
		return
	}
	switch event.Type {
	case traceevent.KindSleepStart:
		task.State = StateSuspended
	case traceevent.KindSleepEnd:
		task.State = StateRunning
	case traceevent.KindFiberEnd:
		task.State = StateCompleted
		task.EndTime = event.Timestamp
		task.Ended = true
	case traceevent.KindFiberInterrupt:
		task.State = StateInterrupted
		task.EndTime = event.Timestamp
		task.Ended = true
	}
}

// Len returns the number of known tasks.
func (reconstructor *Reconstructor) Len() int { return len(reconstructor.order) }

// Pending returns the number of events held for fibers not yet forked.
func (reconstructor *Reconstructor) Pending() int {
	count := 0
	for _, held := range reconstructor.pending {
		count += len(held)
	}
	return count
}

// Task returns a copy of one task.
func (reconstructor *Reconstructor) Task(id string) (TaskInfo, bool) {
	task, known := reconstructor.tasks[id]
	if !known {
		return TaskInfo{}, false
	}
	return task.clone(), true
}

// Tasks returns a copy of every task keyed by id.
func (reconstructor *Reconstructor) Tasks() map[string]TaskInfo {
	tasks := make(map[string]TaskInfo, len(reconstructor.tasks))
	for id, task := range reconstructor.tasks {
		tasks[id] = task.clone()
	}
	return tasks
}

// Order returns task ids in fork arrival order.
func (reconstructor *Reconstructor) Order() []string {
	return append([]string(nil), reconstructor.order...)
}

// Roots returns the ids of tasks with no parent or an unknown parent,
// primary root first, followed by one entry per parent cycle.
func (reconstructor *Reconstructor) Roots() []string {
	return rootsOf(reconstructor.tasks, reconstructor.order)
}

// Forest returns the task forest, primary root first.
func (reconstructor *Reconstructor) Forest() []Node {
	return buildForest(reconstructor.tasks, reconstructor.order)
}

// Fold applies events in order to a fresh Reconstructor and returns
// the resulting tasks.
func Fold(events []traceevent.Event) map[string]TaskInfo {
	reconstructor := NewReconstructor()
	for _, event := range events {
		reconstructor.Apply(event)
	}
	return reconstructor.Tasks()
}

// rootsOf returns the root ids among tasks: those with no parent or a
// parent absent from tasks. Roots are ordered by start time, ties
// broken by their position in order, so the first root is the primary
// one. Ids in order that are not in tasks are skipped. A group of tasks
// whose parent links form a cycle contributes its first task in order
// as an extra root after the others, so every task belongs to a tree.
func rootsOf(tasks map[string]*TaskInfo, order []string) []string {
	var roots []string
	for _, id := range order {
		task, known := tasks[id]
		if !known {
			continue
		}
		if _, parentKnown := tasks[task.ParentID]; task.ParentID == "" || !parentKnown {
			roots = append(roots, id)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return tasks[roots[i]].StartTime < tasks[roots[j]].StartTime
	})

	// Tasks on a parent cycle are unreachable from any true root. The
	// first of each such group in fork order stands in as its root.
	reached := make(map[string]bool, len(tasks))
	var mark func(id string)
	mark = func(id string) {
		if reached[id] {
			return
		}
		reached[id] = true
		for _, childID := range tasks[id].Children {
			if _, known := tasks[childID]; known {
				mark(childID)
			}
		}
	}
	for _, id := range roots {
		mark(id)
	}
	for _, id := range order {
		if _, known := tasks[id]; known && !reached[id] {
			roots = append(roots, id)
			mark(id)
		}
	}
	return roots
}
