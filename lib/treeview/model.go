// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package treeview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/fibertrace/lib/clock"
	"github.com/bureau-foundation/fibertrace/lib/tasktree"
)

// DefaultRefreshInterval is how often running durations are redrawn
// while the traced program is alive.
const DefaultRefreshInterval = 250 * time.Millisecond

// chromeHeight is the tab bar plus the status line.
const chromeHeight = 2

// Tab selects what the viewport shows.
type Tab int

const (
	TabTree Tab = iota
	TabTimeline
	TabOutput
)

var tabNames = [...]string{"tree", "timeline", "output"}

func (tab Tab) String() string {
	if tab < 0 || int(tab) >= len(tabNames) {
		return fmt.Sprintf("Tab(%d)", int(tab))
	}
	return tabNames[tab]
}

// ModelOptions configures NewModel. Zero values select defaults.
type ModelOptions struct {
	Theme Theme
	Keys  KeyMap

	// Title is shown at the left of the tab bar, typically the traced
	// command line.
	Title string

	// Done is closed when the traced program has finished. The status
	// line switches from "running" to "finished" and periodic refresh
	// stops.
	Done <-chan struct{}

	// Clock supplies "now" for durations of tasks that have not ended.
	Clock clock.Clock

	RefreshInterval time.Duration
}

// Model is a bubbletea model showing a live Store.
type Model struct {
	store           *tasktree.Store
	theme           Theme
	keys            KeyMap
	title           string
	done            <-chan struct{}
	clock           clock.Clock
	refreshInterval time.Duration

	viewport viewport.Model
	tab      Tab
	width    int
	height   int
	ready    bool
	follow   bool
	finished bool

	snapshot tasktree.Snapshot
	content  string
}

type (
	storeChangedMsg struct{}
	sessionDoneMsg  struct{}
	refreshTickMsg  time.Time
)

// NewModel creates a viewer for store.
func NewModel(store *tasktree.Store, options ModelOptions) Model {
	if options.Theme == (Theme{}) {
		options.Theme = DefaultTheme
	}
	if len(options.Keys.Quit.Keys()) == 0 {
		options.Keys = DefaultKeyMap
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.RefreshInterval <= 0 {
		options.RefreshInterval = DefaultRefreshInterval
	}
	return Model{
		store:           store,
		theme:           options.Theme,
		keys:            options.Keys,
		title:           options.Title,
		done:            options.Done,
		clock:           options.Clock,
		refreshInterval: options.RefreshInterval,
		viewport:        viewport.New(0, 0),
		follow:          true,
		snapshot:        store.Snapshot(),
	}
}

// Init implements tea.Model. It starts listening for store changes,
// session completion and the refresh tick.
func (model Model) Init() tea.Cmd {
	commands := []tea.Cmd{
		waitForChange(model.store.Changed()),
		refreshTick(model.refreshInterval),
	}
	if model.done != nil {
		commands = append(commands, waitForDone(model.done))
	}
	return tea.Batch(commands...)
}

func waitForChange(changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changed
		return storeChangedMsg{}
	}
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return sessionDoneMsg{}
	}
}

func refreshTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(now time.Time) tea.Msg {
		return refreshTickMsg(now)
	})
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.viewport.Width = message.Width
		model.viewport.Height = max(message.Height-chromeHeight, 1)
		model.ready = true
		model.refresh()

	case storeChangedMsg:
		model.refresh()
		return model, waitForChange(model.store.Changed())

	case sessionDoneMsg:
		model.finished = true
		model.refresh()

	case refreshTickMsg:
		if model.finished {
			return model, nil
		}
		model.render()
		return model, refreshTick(model.refreshInterval)
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.NextTab):
		model.setTab((model.tab + 1) % Tab(len(tabNames)))
	case key.Matches(message, model.keys.TabTree):
		model.setTab(TabTree)
	case key.Matches(message, model.keys.TabTimeline):
		model.setTab(TabTimeline)
	case key.Matches(message, model.keys.TabOutput):
		model.setTab(TabOutput)
	case key.Matches(message, model.keys.Up):
		model.follow = false
		model.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.follow = false
		model.viewport.SetYOffset(model.viewport.YOffset - model.viewport.Height)
	case key.Matches(message, model.keys.PageDown):
		model.viewport.SetYOffset(model.viewport.YOffset + model.viewport.Height)
	case key.Matches(message, model.keys.Home):
		model.follow = false
		model.viewport.GotoTop()
	case key.Matches(message, model.keys.End):
		model.viewport.GotoBottom()
	case key.Matches(message, model.keys.Follow):
		model.follow = !model.follow
		if model.follow {
			model.viewport.GotoBottom()
		}
	}
	return model, nil
}

func (model *Model) setTab(tab Tab) {
	if tab == model.tab {
		return
	}
	model.tab = tab
	model.render()
	if !model.follow {
		model.viewport.GotoTop()
	}
}

// refresh takes a new snapshot and redraws.
func (model *Model) refresh() {
	model.snapshot = model.store.Snapshot()
	model.render()
}

// render redraws the current tab from the last snapshot.
func (model *Model) render() {
	var content string
	switch model.tab {
	case TabTree:
		content = RenderForest(model.theme, model.snapshot.Forest, clock.UnixMilli(model.clock))
	case TabTimeline:
		content = RenderTimeline(model.theme, model.snapshot.Events)
	case TabOutput:
		content = RenderRaw(model.theme, model.snapshot.Raw, model.snapshot.RawDropped)
	}
	model.content = TruncateLines(content, model.width)
	model.viewport.SetContent(model.content)
	if model.follow {
		model.viewport.GotoBottom()
	}
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading…"
	}
	return strings.Join([]string{
		model.renderTabBar(),
		model.viewport.View(),
		model.renderStatusLine(),
	}, "\n")
}

func (model Model) renderTabBar() string {
	activeStyle := lipgloss.NewStyle().Foreground(model.theme.ActiveTab).Bold(true).Underline(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	titleStyle := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true)

	var parts []string
	if model.title != "" {
		parts = append(parts, titleStyle.Render(model.title))
	}
	for index, name := range tabNames {
		label := fmt.Sprintf("%d %s", index+1, name)
		if Tab(index) == model.tab {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, inactiveStyle.Render(label))
		}
	}
	return TruncateLines(strings.Join(parts, "  "), model.width)
}

func (model Model) renderStatusLine() string {
	tasks := 0
	for _, root := range model.snapshot.Forest {
		tasks += root.Count()
	}

	state := "running"
	stateColor := model.theme.StateRunning
	if model.finished {
		state = "finished"
		stateColor = model.theme.StateCompleted
	}

	facts := []string{
		lipgloss.NewStyle().Foreground(stateColor).Render(state),
		fmt.Sprintf("%d tasks", tasks),
		fmt.Sprintf("%d events", len(model.snapshot.Events)),
	}
	if model.snapshot.Pending > 0 {
		facts = append(facts, fmt.Sprintf("%d pending", model.snapshot.Pending))
	}
	if model.follow {
		facts = append(facts, "following")
	}

	var help []string
	for _, binding := range model.keys.ShortHelp() {
		help = append(help, binding.Help().Key+" "+binding.Help().Desc)
	}
	helpStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	line := strings.Join(facts, " · ") + "   " + helpStyle.Render(strings.Join(help, "  "))
	return TruncateLines(line, model.width)
}

// Tab returns the tab currently shown.
func (model Model) Tab() Tab { return model.tab }

// Content returns the rendered text of the current tab, before
// scrolling.
func (model Model) Content() string { return model.content }

// Finished reports whether the Done channel has been observed closed.
func (model Model) Finished() bool { return model.finished }
