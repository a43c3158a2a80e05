package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outbound/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("COMPOSITION GRAPH"))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Render(m.graphDOT))

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(strings.Join([]string{"Esc: Back", "q: Quit"}, " • ")))
	return s.String()
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewMode = ViewList
		m.graphDOT = ""
	}
	return m, nil
}

func (m *Model) generateGraph() error {
	dot, err := viz.NewGraphGenerator(m.engine).GenerateCompositionGraph(m.ctx, m.owner)
	if err != nil {
		return err
	}
	m.graphDOT = dot
	return nil
}
