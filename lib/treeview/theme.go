// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package treeview

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/fibertrace/lib/tasktree"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// Theme is the color palette for tree and timeline rendering. All
// colors are ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Task state badges.
	StateRunning     lipgloss.Color
	StateSuspended   lipgloss.Color
	StateCompleted   lipgloss.Color
	StateInterrupted lipgloss.Color

	// Effect outcomes in the timeline.
	Success lipgloss.Color
	Failure lipgloss.Color
	Retry   lipgloss.Color

	// Chrome.
	HeaderForeground lipgloss.Color
	ActiveTab        lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

// StateColor returns the badge color for a task state.
func (theme Theme) StateColor(state tasktree.State) lipgloss.Color {
	switch state {
	case tasktree.StateRunning:
		return theme.StateRunning
	case tasktree.StateSuspended:
		return theme.StateSuspended
	case tasktree.StateCompleted:
		return theme.StateCompleted
	case tasktree.StateInterrupted:
		return theme.StateInterrupted
	default:
		return theme.FaintText
	}
}

// EventColor returns the timeline color for an event: outcome colors
// for events that carry a result, state colors for fiber and sleep
// events.
func (theme Theme) EventColor(event traceevent.Event) lipgloss.Color {
	switch event.Type {
	case traceevent.KindEffectEnd, traceevent.KindAcquire:
		if event.Result == traceevent.ResultFailure {
			return theme.Failure
		}
		return theme.Success
	case traceevent.KindRetryAttempt:
		return theme.Retry
	case traceevent.KindFiberFork:
		return theme.StateRunning
	case traceevent.KindFiberEnd:
		return theme.StateCompleted
	case traceevent.KindFiberInterrupt:
		return theme.StateInterrupted
	case traceevent.KindSleepStart, traceevent.KindSleepEnd:
		return theme.StateSuspended
	default:
		return theme.NormalText
	}
}

// DefaultTheme is the built-in scheme for dark 256-color terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	StateRunning:     lipgloss.Color("220"), // amber
	StateSuspended:   lipgloss.Color("75"),  // blue
	StateCompleted:   lipgloss.Color("114"), // green
	StateInterrupted: lipgloss.Color("196"), // red

	Success: lipgloss.Color("114"),
	Failure: lipgloss.Color("196"),
	Retry:   lipgloss.Color("208"), // orange

	HeaderForeground: lipgloss.Color("255"),
	ActiveTab:        lipgloss.Color("141"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}
