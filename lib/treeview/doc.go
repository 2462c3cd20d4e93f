// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package treeview renders reconstructed task trees and event
// timelines for the terminal.
//
// [RenderForest] and [RenderTimeline] produce static text for one-shot
// output ("fibertrace run", "fibertrace replay"). [Model] is a
// bubbletea model over a live [tasktree.Store]: it re-renders whenever
// the store signals a change, so the tree grows while the traced
// program runs.
//
// Colors follow [Theme]. When stdout is not a terminal lipgloss drops
// the escape sequences, so the same renderers produce plain text for
// pipes and tests.
package treeview
