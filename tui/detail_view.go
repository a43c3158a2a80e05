package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outbound/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TASK"))
	s.WriteString("\n\n")

	t, ok := m.selectedTask()
	if !ok {
		s.WriteString("No task selected.")
	} else {
		s.WriteString(renderTask(t))
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderDetailHelp())
	return s.String()
}

func renderTask(t models.Task) string {
	var s strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		s.WriteString(fieldLabelStyle.Render(label + ":"))
		s.WriteString(fieldValueStyle.Render(value))
		s.WriteString("\n")
	}

	field("Customer", t.Customer.DisplayName())
	field("Company", t.Customer.Company)
	field("Role", t.Customer.Role)
	field("Phone", t.Customer.PhoneNumber)
	field("Email", t.Customer.Email)
	field("LinkedIn", t.Customer.LinkedInURL)
	field("Experiment", fmt.Sprintf("%d (generator %d)", t.ExperimentID, t.ExperimentGeneratorID))
	field("Arm", fmt.Sprintf("%d: variable %d of generator %d", t.SequenceIdx, t.Arm.VariableID, t.Arm.VariableGeneratorID))
	s.WriteString("\n")
	for _, slot := range models.Slots {
		field(slot.Kind(), t.Content[slot])
	}
	return s.String()
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Enter/c: Complete",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	case "enter", "c":
		m.viewMode = ViewConfirmComplete
	}
	return m, nil
}
