// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/fibertrace/lib/tasktree"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
	"github.com/bureau-foundation/fibertrace/lib/treeview"
)

// report is the --json form of a run or a replay.
type report struct {
	Tasks     []tasktree.Node    `json:"tasks"`
	Events    []traceevent.Event `json:"events"`
	Pending   int                `json:"pending,omitempty"`
	Output    []string           `json:"output,omitempty"`
	Recording *recordingSummary  `json:"recording,omitempty"`
	Exit      *exitSummary       `json:"exit,omitempty"`
}

type recordingSummary struct {
	Path        string `json:"path,omitempty"`
	RunID       string `json:"runId"`
	CreatedAt   string `json:"createdAt"`
	Compression string `json:"compression"`
	Digest      string `json:"digest,omitempty"`
}

type exitSummary struct {
	Code int `json:"code"`
}

func newReport(snapshot tasktree.Snapshot, includeOutput bool) report {
	result := report{
		Tasks:   snapshot.Forest,
		Events:  snapshot.Events,
		Pending: snapshot.Pending,
	}
	if result.Tasks == nil {
		result.Tasks = []tasktree.Node{}
	}
	if result.Events == nil {
		result.Events = []traceevent.Event{}
	}
	if includeOutput {
		result.Output = snapshot.Raw
	}
	return result
}

// renderSnapshot writes the tree, the timeline and optionally the raw
// program output. Durations of tasks that never ended run to the last
// event.
func renderSnapshot(w io.Writer, snapshot tasktree.Snapshot, showRaw bool) {
	theme := treeview.DefaultTheme
	fmt.Fprintln(w, "Tasks:")
	fmt.Fprintln(w, treeview.RenderForest(theme, snapshot.Forest, lastTimestamp(snapshot.Events)))
	if snapshot.Pending > 0 {
		fmt.Fprintf(w, "(%d events for fibers whose fork was never seen)\n", snapshot.Pending)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Timeline:")
	fmt.Fprintln(w, treeview.RenderTimeline(theme, snapshot.Events))
	if showRaw {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Output:")
		fmt.Fprintln(w, treeview.RenderRaw(theme, snapshot.Raw, snapshot.RawDropped))
	}
}

func lastTimestamp(events []traceevent.Event) int64 {
	var last int64
	for _, event := range events {
		last = max(last, event.Timestamp)
	}
	return last
}
