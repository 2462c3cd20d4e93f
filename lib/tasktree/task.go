// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tasktree

import "slices"

// State is a task's lifecycle state.
type State string

const (
	StateRunning     State = "running"
	StateSuspended   State = "suspended"
	StateCompleted   State = "completed"
	StateInterrupted State = "interrupted"
)

// Terminal reports whether the state is final.
func (state State) Terminal() bool {
	return state == StateCompleted || state == StateInterrupted
}

// TaskInfo is the derived state of one fiber.
type TaskInfo struct {
	ID string `json:"id"`

	// ParentID is the forking fiber, empty for a root.
	ParentID string `json:"parentId,omitempty"`

	State State  `json:"state"`
	Label string `json:"label"`

	// StartTime is the fiber:fork timestamp (Unix milliseconds).
	StartTime int64 `json:"startTime"`

	// EndTime is the terminal event's timestamp. Only meaningful when
	// Ended is set.
	EndTime int64 `json:"endTime,omitempty"`
	Ended   bool  `json:"ended"`

	// Children lists child ids in the order their forks arrived.
	Children []string `json:"children,omitempty"`
}

// DurationMillis returns the task's run time up to its end, or up to
// now for a task that has not ended.
func (task TaskInfo) DurationMillis(now int64) int64 {
	end := now
	if task.Ended {
		end = task.EndTime
	}
	return max(end-task.StartTime, 0)
}

func (task TaskInfo) clone() TaskInfo {
	task.Children = slices.Clone(task.Children)
	return task
}
