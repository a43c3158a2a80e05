package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outbound/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("OUTBOUND AGENDA · " + m.owner))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderTable())
	s.WriteString("\n")

	s.WriteString(m.renderStatus())
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, p := range platformTabs {
		name := string(p)
		if name == "" {
			name = "All"
		}
		if i == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v", m.err)
	}
	if len(m.tasks) == 0 {
		return "No tasks queued."
	}

	columns := []table.Column{
		{Title: "Customer", Width: 24},
		{Title: "Contact", Width: 24},
		{Title: "Platform", Width: 9},
		{Title: "Exp", Width: 6},
		{Title: "Seq", Width: 4},
		{Title: "Pain point", Width: 30},
	}

	rows := make([]table.Row, 0, len(m.tasks))
	for _, t := range m.tasks {
		rows = append(rows, table.Row{
			t.Customer.DisplayName(),
			t.Customer.ContactKey(t.Platform),
			string(t.Platform),
			fmt.Sprint(t.ExperimentID),
			fmt.Sprint(t.SequenceIdx),
			truncate(t.Content[models.SlotA], 30),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderStatus() string {
	if m.message == "" {
		return ""
	}
	if strings.HasPrefix(m.message, "Error") {
		return errorStyle.Render(m.message) + "\n"
	}
	return messageStyle.Render(m.message) + "\n"
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Platform",
		"Enter: Details",
		"c: Complete",
		"g: Graph",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.tasks)-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % len(platformTabs)
		m.selectedRow = 0
		m.loadTasks()
	case "r":
		m.loadTasks()
	case "enter":
		if _, ok := m.selectedTask(); ok {
			m.viewMode = ViewDetail
		}
	case "c":
		if _, ok := m.selectedTask(); ok {
			m.viewMode = ViewConfirmComplete
		}
	case "g":
		if err := m.generateGraph(); err != nil {
			m.message = "Error: " + err.Error()
		} else {
			m.viewMode = ViewGraph
		}
	}

	return m, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
