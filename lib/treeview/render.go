// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package treeview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/fibertrace/lib/tasktree"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// maxValueWidth bounds how much of a success value the timeline shows.
const maxValueWidth = 48

// RenderForest draws each tree with box-drawing connectors, one task
// per line: id, label, a state badge and the task's duration. now
// (Unix milliseconds) is the end point for tasks that have not ended.
func RenderForest(theme Theme, forest []tasktree.Node, now int64) string {
	if len(forest) == 0 {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render("(no tasks)")
	}

	var builder strings.Builder
	for _, root := range forest {
		renderNode(&builder, theme, root, now, "", "", "")
	}
	return strings.TrimSuffix(builder.String(), "\n")
}

func renderNode(builder *strings.Builder, theme Theme, node tasktree.Node, now int64, prefix, connector, childPrefix string) {
	builder.WriteString(lipgloss.NewStyle().Foreground(theme.BorderColor).Render(prefix + connector))
	builder.WriteString(taskLine(theme, node.Task, now))
	builder.WriteByte('\n')

	for index, child := range node.Children {
		last := index == len(node.Children)-1
		nextConnector, nextChildPrefix := "├─ ", "│  "
		if last {
			nextConnector, nextChildPrefix = "└─ ", "   "
		}
		renderNode(builder, theme, child, now, prefix+childPrefix, nextConnector, nextChildPrefix)
	}
}

func taskLine(theme Theme, task tasktree.TaskInfo, now int64) string {
	idStyle := lipgloss.NewStyle().Foreground(theme.HeaderForeground).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
	badgeStyle := lipgloss.NewStyle().Foreground(theme.StateColor(task.State))
	durationStyle := lipgloss.NewStyle().Foreground(theme.FaintText)

	parts := []string{idStyle.Render(task.ID)}
	if task.Label != "" {
		parts = append(parts, labelStyle.Render(task.Label))
	}
	parts = append(parts,
		badgeStyle.Render("["+string(task.State)+"]"),
		durationStyle.Render(FormatMillis(task.DurationMillis(now))),
	)
	return strings.Join(parts, " ")
}

// RenderTimeline lists events in arrival order with their offset from
// the first event.
func RenderTimeline(theme Theme, events []traceevent.Event) string {
	if len(events) == 0 {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render("(no events)")
	}

	offsetStyle := lipgloss.NewStyle().Foreground(theme.FaintText)
	detailStyle := lipgloss.NewStyle().Foreground(theme.NormalText)

	origin := events[0].Timestamp
	lines := make([]string, 0, len(events))
	for _, event := range events {
		kindStyle := lipgloss.NewStyle().Foreground(theme.EventColor(event))
		lines = append(lines, fmt.Sprintf("%s  %s %s",
			offsetStyle.Render(fmt.Sprintf("%9s", "+"+FormatMillis(event.Timestamp-origin))),
			kindStyle.Render(fmt.Sprintf("%-15s", event.Type)),
			detailStyle.Render(Describe(event)),
		))
	}
	return strings.Join(lines, "\n")
}

// RenderRaw shows the program's non-trace output, noting how many
// older lines were dropped from the bounded buffer.
func RenderRaw(theme Theme, lines []string, dropped int) string {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	if len(lines) == 0 {
		return faint.Render("(no output)")
	}
	var builder strings.Builder
	if dropped > 0 {
		builder.WriteString(faint.Render(fmt.Sprintf("(%d earlier lines dropped)", dropped)))
		builder.WriteByte('\n')
	}
	builder.WriteString(strings.Join(lines, "\n"))
	return builder.String()
}

// Describe summarizes an event's fields for one timeline line.
func Describe(event traceevent.Event) string {
	switch event.Type {
	case traceevent.KindEffectStart:
		return joinNonEmpty(event.ID, event.Label)
	case traceevent.KindEffectEnd:
		if event.Result == traceevent.ResultFailure {
			return fmt.Sprintf("%s failure: %s", event.ID, event.Error)
		}
		if len(event.Value) == 0 {
			return event.ID + " success"
		}
		return fmt.Sprintf("%s success %s", event.ID, ansi.Truncate(string(event.Value), maxValueWidth, "…"))
	case traceevent.KindRetryAttempt:
		return fmt.Sprintf("%s attempt %d: %s", joinNonEmpty(event.ID, event.Label), event.Attempt, event.LastError)
	case traceevent.KindFiberFork:
		description := joinNonEmpty(event.FiberID, event.Label)
		if event.ParentID != "" {
			description += " (parent " + event.ParentID + ")"
		}
		return description
	case traceevent.KindSleepStart:
		return fmt.Sprintf("%s %s", event.FiberID, FormatMillis(event.Duration))
	case traceevent.KindFiberEnd, traceevent.KindFiberInterrupt, traceevent.KindSleepEnd:
		return event.FiberID
	case traceevent.KindFinalizer:
		return joinNonEmpty(event.ID, event.Label)
	case traceevent.KindAcquire:
		if event.Result == traceevent.ResultFailure {
			return fmt.Sprintf("%s failure: %s", joinNonEmpty(event.ID, event.Label), event.Error)
		}
		return joinNonEmpty(event.ID, event.Label) + " success"
	default:
		return event.SubjectID()
	}
}

// FormatMillis renders a millisecond count compactly: "950ms", "1.25s",
// "2m3s".
func FormatMillis(milliseconds int64) string {
	duration := time.Duration(milliseconds) * time.Millisecond
	switch {
	case duration < time.Second:
		return fmt.Sprintf("%dms", milliseconds)
	case duration < time.Minute:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", duration.Seconds()), "0"), ".") + "s"
	default:
		return duration.Truncate(time.Second).String()
	}
}

// TruncateLines cuts every line of text to width display columns,
// keeping ANSI styling intact. A non-positive width leaves text alone.
func TruncateLines(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for index, line := range lines {
		if ansi.StringWidth(line) > width {
			lines[index] = ansi.Truncate(line, width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}
