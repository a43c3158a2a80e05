// ABOUTME: Completion dialog for agenda tasks
// ABOUTME: Removes the task and records an event with the chosen outcome
package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

// Event statuses written from the dialog.
const (
	StatusSuccess   = "success"
	StatusNoSuccess = "no_success"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	successButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("28")).
				Padding(0, 2).
				MarginRight(2)

	failureButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmCompleteView() string {
	t, ok := m.selectedTask()
	if !ok {
		return "No task selected."
	}

	title := titleStyle.Render("COMPLETE TASK")
	info := fmt.Sprintf("%s\nexperiment %d, arm %d", t.Customer.DisplayName(), t.ExperimentID, t.SequenceIdx)

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		successButtonStyle.Render("Success (y)"),
		failureButtonStyle.Render("No success (n)"),
		cancelButtonStyle.Render("Cancel (esc)"),
	)

	box := confirmBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, title, info, "", buttons))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) handleConfirmCompleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.complete(true)
	case "n", "N":
		m.complete(false)
	case "esc":
		m.viewMode = ViewDetail
	}
	return m, nil
}

func (m *Model) complete(success bool) {
	m.viewMode = ViewList
	t, ok := m.selectedTask()
	if !ok {
		return
	}
	if err := m.completeTask(t, success); err != nil {
		m.message = "Error: " + err.Error()
		return
	}
	m.message = fmt.Sprintf("Completed task for %s", t.Customer.DisplayName())
	m.loadTasks()
}

func (m *Model) completeTask(t models.Task, success bool) error {
	status := StatusNoSuccess
	if success {
		status = StatusSuccess
	}
	_, err := m.engine.CompleteTask(m.ctx, m.owner, campaign.TaskMatch{
		Platform:    t.Platform,
		PhoneNumber: t.Customer.PhoneNumber,
		Email:       t.Customer.Email,
		SequenceIdx: strconv.Itoa(t.SequenceIdx),
	}, &models.Event{Status: status, Success: success})
	return err
}
