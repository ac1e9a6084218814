// Package ui renders interactive progress for long-running heap
// sweeps.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"caldera/internal/verify"
)

type sweepModel struct {
	title   string
	events  <-chan verify.SweepEvent
	spinner spinner.Model
	prog    progress.Model
	items   []regionItem
	width   int
	done    bool
}

type regionItem struct {
	label   string
	status  verify.SweepStatus
	objects int
}

type eventMsg verify.SweepEvent
type doneMsg struct{}

// NewSweepModel returns a Bubble Tea model that renders per-region
// sweep progress. labels carries one row label per region.
func NewSweepModel(title string, labels []string, events <-chan verify.SweepEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]regionItem, 0, len(labels))
	for _, label := range labels {
		items = append(items, regionItem{label: label, status: verify.StatusQueued})
	}
	return &sweepModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		width:   80,
	}
}

func (m *sweepModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *sweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(verify.SweepEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progModel, cmd := m.prog.Update(msg)
		m.prog = progModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *sweepModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 10
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		name := truncate(item.label, nameWidth)
		if item.objects > 0 {
			name = fmt.Sprintf("%s (%d objects)", name, item.objects)
		}
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%10s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", statusStyled, name)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *sweepModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *sweepModel) applyEvent(ev verify.SweepEvent) tea.Cmd {
	if ev.Region < 0 || ev.Region >= len(m.items) {
		return nil
	}
	m.items[ev.Region].status = ev.Status
	if ev.Objects > 0 {
		m.items[ev.Region].objects = ev.Objects
	}

	settled := 0
	for _, item := range m.items {
		if item.status == verify.StatusClean || item.status == verify.StatusBroken {
			settled++
		}
	}
	return m.prog.SetPercent(float64(settled) / float64(len(m.items)))
}

func styleStatus(status verify.SweepStatus) lipgloss.Style {
	switch status {
	case verify.StatusClean:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case verify.StatusBroken:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case verify.StatusSweeping:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
