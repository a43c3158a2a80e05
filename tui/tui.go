// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Agenda browser for working through queued outreach tasks
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewConfirmComplete
	ViewGraph
)

// platformTabs are cycled with tab; the empty platform shows every task.
var platformTabs = []models.Platform{"", models.PlatformPhone, models.PlatformEmail, models.PlatformLinkedIn}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	engine   *campaign.Engine
	owner    string
	viewMode ViewMode
	tab      int

	tasks       []models.Task
	selectedRow int

	graphDOT string

	message string
	width   int
	height  int
	err     error
}

// NewModel creates a model for owner's agenda and loads it.
func NewModel(ctx context.Context, engine *campaign.Engine, owner string) Model {
	m := Model{
		ctx:      ctx,
		engine:   engine,
		owner:    owner,
		viewMode: ViewList,
		width:    80,
		height:   24,
	}
	m.loadTasks()
	return m
}

func (m *Model) loadTasks() {
	tasks, err := m.engine.Agenda(m.ctx, m.owner, platformTabs[m.tab])
	if err != nil {
		m.err = err
		m.tasks = nil
		return
	}
	m.err = nil
	m.tasks = tasks
	if m.selectedRow >= len(tasks) {
		m.selectedRow = max(len(tasks)-1, 0)
	}
}

func (m Model) selectedTask() (models.Task, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.tasks) {
		return models.Task{}, false
	}
	return m.tasks[m.selectedRow], true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewConfirmComplete:
		return m.renderConfirmCompleteView()
	case ViewGraph:
		return m.renderGraphView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewConfirmComplete:
		return m.handleConfirmCompleteKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
