package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/assetcache/resource"
)

const trackerInterval = 250 * time.Millisecond

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F"))
)

// trackerModel shows live cache usage. Every tick is one frame: the tracker
// ends it (running the collector) unless paused, then redraws.
type trackerModel struct {
	s         *session
	err       error
	status    string
	table     table.Model
	input     textinput.Model
	usage     []resource.Usage
	erased    int
	inputting bool
	paused    bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(trackerInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newTrackerModel(s *session) *trackerModel {
	cols := []table.Column{
		{Title: usageHeaders[0], Width: 40},
		{Title: usageHeaders[1], Width: 20},
		{Title: usageHeaders[2], Width: 8},
		{Title: usageHeaders[3], Width: 8},
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))
	t.SetStyles(styles)

	in := textinput.New()
	in.Placeholder = "provider://path"
	in.Prompt = "get: "
	in.Width = 50

	m := &trackerModel{s: s, table: t, input: in}
	m.refresh()
	return m
}

func (m *trackerModel) Init() tea.Cmd {
	return tick()
}

func (m *trackerModel) refresh() {
	m.usage = m.s.engine.Cache().Usage()
	rows := make([]table.Row, len(m.usage))
	for i, u := range m.usage {
		rows[i] = table.Row(usageRow(u))
	}
	m.table.SetRows(rows)
}

func (m *trackerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.paused {
			m.erased += m.s.engine.EndFrame()
		}
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		if m.inputting {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "a", "/":
			m.inputting = true
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		case "r":
			m.releaseSelected()
		case "f":
			n := m.s.engine.EndFrame()
			m.erased += n
			m.setStatus(fmt.Sprintf("flushed, erased %d", n), nil)
			m.refresh()
		case "p":
			m.paused = !m.paused
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *trackerModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputting = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.inputting = false
		m.input.Blur()
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		h, err := m.s.get(text, "")
		if err != nil {
			m.setStatus("", err)
		} else {
			m.setStatus("holding "+h.ID().String(), nil)
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *trackerModel) releaseSelected() {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return
	}
	left, err := m.s.release(row[0])
	if err != nil {
		m.setStatus("", err)
		return
	}
	m.setStatus(fmt.Sprintf("released %s, %d still held here", row[0], left), nil)
	m.refresh()
}

func (m *trackerModel) setStatus(s string, err error) {
	m.status = s
	m.err = err
}

func (m *trackerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Resource Usage"))
	fmt.Fprintf(&b, " session %s  frame %d  erased %d", m.s.engine.Session(), m.s.engine.Frame(), m.erased)
	if m.paused {
		b.WriteString("  ")
		b.WriteString(pausedStyle.Render("paused"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	switch {
	case m.inputting:
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter load • esc cancel"))
	default:
		if m.err != nil {
			b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		} else if m.status != "" {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • a load • r release • f flush • p pause frames • q quit"))
	}
	return b.String()
}

func runTracker(s *session) error {
	p := tea.NewProgram(newTrackerModel(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
