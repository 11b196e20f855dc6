// Package tui is an interactive browser over the exception review queue.
// It is read-only: reviewers navigate flagged records and inspect the
// fields behind each disagreement, nothing is mutated.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/model"
)

// filterMode selects which exception types the table shows.
type filterMode int

const (
	filterAll filterMode = iota
	filterUnder
	filterOver
)

func (f filterMode) label() string {
	switch f {
	case filterUnder:
		return "under-approvals"
	case filterOver:
		return "over-approvals"
	default:
		return "all exceptions"
	}
}

func (f filterMode) matches(e model.ExceptionType) bool {
	switch f {
	case filterUnder:
		return e == model.ExceptionUnderApproval
	case filterOver:
		return e == model.ExceptionOverApproval
	default:
		return true
	}
}

const (
	detailHeight = 12
	chromeHeight = 5
)

// Model holds the browser state.
type Model struct {
	items      []mirror.ReviewItem
	visible    []mirror.ReviewItem
	table      table.Model
	detail     viewport.Model
	help       help.Model
	keymap     KeyMap
	theme      Theme
	hi         float64
	lo         float64
	filter     filterMode
	width      int
	height     int
	showDetail bool
	quitting   bool
}

func newModel(items []mirror.ReviewItem, hi, lo float64) Model {
	theme := DefaultTheme

	t := table.New(
		table.WithColumns(queueColumns()),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(theme.tableStyles())

	m := Model{
		items:  items,
		table:  t,
		detail: viewport.New(80, detailHeight),
		help:   help.New(),
		keymap: DefaultKeyMap(),
		theme:  theme,
		hi:     hi,
		lo:     lo,
	}
	m.applyFilter(filterAll)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keymap.CycleFilter):
			m.applyFilter((m.filter + 1) % 3)
			return m, nil

		case key.Matches(msg, m.keymap.ToggleDetail):
			m.showDetail = !m.showDetail
			m.resize()
			m.refreshDetail()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.refreshDetail()
	return m, cmd
}

// selected returns the item under the cursor.
func (m Model) selected() (mirror.ReviewItem, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return mirror.ReviewItem{}, false
	}
	return m.visible[idx], true
}

// applyFilter rebuilds the table rows for a filter and resets the cursor.
func (m *Model) applyFilter(f filterMode) {
	m.filter = f
	m.visible = m.visible[:0]
	for _, item := range m.items {
		if f.matches(item.Exception) {
			m.visible = append(m.visible, item)
		}
	}

	rows := make([]table.Row, len(m.visible))
	for i, item := range m.visible {
		rows[i] = table.Row{
			item.ApplicationID,
			string(item.Exception),
			fmt.Sprintf("%.3f", item.Probability),
			fmt.Sprintf("%.3f", item.Margin),
			decisionLabel(item.Approved),
			string(item.Bands.Risk),
			string(item.Bands.Income),
		}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
	m.refreshDetail()
}

// resize fits the table and detail pane into the current terminal.
func (m *Model) resize() {
	if m.width == 0 {
		return
	}

	tableHeight := m.height - chromeHeight
	if m.showDetail {
		tableHeight -= detailHeight + 2
	}
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
	m.table.SetWidth(m.width)

	m.detail.Width = m.width - 4
	m.detail.Height = detailHeight
	m.help.Width = m.width
}

// refreshDetail re-renders the detail pane for the current cursor position.
func (m *Model) refreshDetail() {
	if !m.showDetail {
		return
	}
	item, ok := m.selected()
	if !ok {
		m.detail.SetContent(m.theme.Subtitle.Render("nothing selected"))
		return
	}
	m.detail.SetContent(m.renderDetail(item))
}

func queueColumns() []table.Column {
	return []table.Column{
		{Title: "Application", Width: 14},
		{Title: "Exception", Width: 15},
		{Title: "P(approve)", Width: 10},
		{Title: "Margin", Width: 7},
		{Title: "Decision", Width: 9},
		{Title: "Risk", Width: 10},
		{Title: "Income", Width: 11},
	}
}

func decisionLabel(approved bool) string {
	if approved {
		return "approved"
	}
	return "rejected"
}
