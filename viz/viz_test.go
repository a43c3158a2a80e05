// ABOUTME: Tests for the composition graph and the dashboard
// ABOUTME: Seeds an in-memory store with one setup and checks the rendered output
package viz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

const owner = "rep@example.com"

func seededEngine(t *testing.T) (*campaign.Engine, *campaign.SetupResult) {
	t.Helper()
	ctx := context.Background()
	store, err := db.OpenBadgerMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	e := campaign.New(store, campaign.WithSeed(11))

	var ids []int64
	for _, phase := range []string{"Phase 1", "Phase 3"} {
		g, err := e.CreateVariableGenerator(ctx, phase, "FT-1", owner, models.PlatformEmail)
		require.NoError(t, err)
		var c models.Content
		c[models.SlotA] = phase
		_, _, err = e.CreateVariable(ctx, g.ID, "pain", c)
		require.NoError(t, err)
		ids = append(ids, g.ID)
	}
	for i := 0; i < 2; i++ {
		c := models.Customer{Name: fmt.Sprint("c", i), Email: fmt.Sprintf("c%d@example.com", i), Country: "Mexico"}
		c.RefreshFlags()
		_, err := store.Add(ctx, models.CollectionCustomers, c.Fields())
		require.NoError(t, err)
	}

	res, err := e.FullExperimentalSetup(ctx, campaign.SetupRequest{
		VariableGeneratorIDs: ids, Trials: 2, Rounds: 1, Platform: models.PlatformEmail, Country: "Mexico", OwnerEmail: owner,
	})
	require.NoError(t, err)
	return e, res
}

func TestGenerateCompositionGraph(t *testing.T) {
	e, res := seededEngine(t)

	dot, err := NewGraphGenerator(e).GenerateCompositionGraph(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, dot, fmt.Sprintf("eg_%d", res.ExperimentGenerator.ID))
	for _, id := range res.ExperimentGenerator.VariableGeneratorIDs {
		assert.Contains(t, dot, fmt.Sprintf("vg_%d", id))
	}
	assert.Contains(t, dot, "arm 2")
	assert.Contains(t, dot, "Phase 3")
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	e, res := seededEngine(t)
	exp := res.Rounds[0].Experiment

	_, err := e.SubmitEvent(ctx, models.Event{
		Platform:              models.PlatformEmail,
		OwnerEmail:            owner,
		ExperimentID:          exp.ID,
		ExperimentGeneratorID: exp.ExperimentGeneratorID,
		Success:               true,
	})
	require.NoError(t, err)

	stats, err := GenerateDashboardStats(ctx, e, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Counts[models.CollectionCustomers])
	require.Len(t, stats.Generators, 1)
	assert.Equal(t, int64(1), stats.Generators[0].Trials)
	assert.Equal(t, int64(1), stats.Generators[0].Successes)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "OUTBOUND DASHBOARD")
	assert.Contains(t, out, "1/1 (1 experiments)")

	empty := RenderDashboard(&DashboardStats{Counts: map[string]int{}})
	assert.Contains(t, empty, "none yet")
}
