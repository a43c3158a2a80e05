// ABOUTME: Tests for the agenda browser
// ABOUTME: Drives the model with key messages against an in-memory store
package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

const owner = "rep@example.com"

func setupAgenda(t *testing.T) *campaign.Engine {
	t.Helper()
	ctx := context.Background()
	store, err := db.OpenBadgerMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	e := campaign.New(store, campaign.WithSeed(5))

	g, err := e.CreateVariableGenerator(ctx, "Phase 1", "FT-1", owner, models.PlatformPhone)
	require.NoError(t, err)
	var c models.Content
	c[models.SlotA] = "Slow onboarding"
	_, _, err = e.CreateVariable(ctx, g.ID, "onboarding", c)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		cust := models.Customer{Name: fmt.Sprintf("Customer %d", i), PhoneNumber: fmt.Sprintf("555-%d", i), Country: "Mexico"}
		cust.RefreshFlags()
		_, err := store.Add(ctx, models.CollectionCustomers, cust.Fields())
		require.NoError(t, err)
	}

	_, err = e.FullExperimentalSetup(ctx, campaign.SetupRequest{
		VariableGeneratorIDs: []int64{g.ID}, Trials: 2, Rounds: 1,
		Platform: models.PlatformPhone, Country: "Mexico", OwnerEmail: owner,
	})
	require.NoError(t, err)
	return e
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestListViewShowsAgenda(t *testing.T) {
	e := setupAgenda(t)
	m := NewModel(context.Background(), e, owner)

	require.Len(t, m.tasks, 2)
	out := m.View()
	assert.Contains(t, out, "OUTBOUND AGENDA")
	assert.Contains(t, out, "Slow onboarding")
}

func TestEnterThenCompleteRemovesTask(t *testing.T) {
	ctx := context.Background()
	e := setupAgenda(t)
	m := NewModel(ctx, e, owner)

	m = press(t, m, "enter")
	assert.Equal(t, ViewDetail, m.viewMode)
	assert.Contains(t, m.View(), "PainPoint")

	m = press(t, m, "enter")
	assert.Equal(t, ViewConfirmComplete, m.viewMode)

	m = press(t, m, "y")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Len(t, m.tasks, 1)
	assert.Contains(t, m.message, "Completed task")

	events, err := e.ListEvents(ctx, models.PlatformPhone)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, StatusSuccess, events[0].Status)
	assert.True(t, events[0].Success)
}

func TestCancelKeepsTask(t *testing.T) {
	e := setupAgenda(t)
	m := NewModel(context.Background(), e, owner)

	m = press(t, m, "c", "esc", "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Len(t, m.tasks, 2)
}

func TestPlatformTabs(t *testing.T) {
	e := setupAgenda(t)
	m := NewModel(context.Background(), e, owner)

	m = press(t, m, "tab")
	assert.Len(t, m.tasks, 2, "phone tab")

	m = press(t, m, "tab")
	assert.Empty(t, m.tasks, "email tab")
	assert.Contains(t, m.View(), "No tasks queued.")
}

func TestNavigationStaysInRange(t *testing.T) {
	e := setupAgenda(t)
	m := NewModel(context.Background(), e, owner)

	m = press(t, m, "down", "down", "down")
	assert.Equal(t, 1, m.selectedRow)
}
