// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes collection counts and experiment success rates per generator
package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

type DashboardStats struct {
	Counts     map[string]int
	Generators []GeneratorStats
}

// GeneratorStats totals the experiments of one experiment generator.
type GeneratorStats struct {
	ID          int64
	Platform    models.Platform
	Experiments int
	Trials      int64
	Successes   int64
}

// Rate is the success rate, or 0 before any trial.
func (g GeneratorStats) Rate() float64 {
	if g.Trials == 0 {
		return 0
	}
	return float64(g.Successes) / float64(g.Trials)
}

func GenerateDashboardStats(ctx context.Context, engine *campaign.Engine, owner string) (*DashboardStats, error) {
	counts, err := engine.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{Counts: counts}

	egs, err := engine.ListExperimentGenerators(ctx, owner, "")
	if err != nil {
		return nil, err
	}
	for _, eg := range egs {
		views, err := engine.GetExperiments(ctx, eg.OwnerEmail, []int64{eg.ID})
		if err != nil {
			return nil, err
		}
		gs := GeneratorStats{ID: eg.ID, Platform: eg.Platform, Experiments: len(views)}
		for _, v := range views {
			gs.Trials += v.Trials
			gs.Successes += v.Successes
		}
		stats.Generators = append(stats.Generators, gs)
	}

	sort.SliceStable(stats.Generators, func(i, j int) bool {
		return stats.Generators[i].Rate() > stats.Generators[j].Rate()
	})
	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  OUTBOUND DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("RECORDS\n")
	for _, name := range campaign.StatisticsCollections {
		out.WriteString(fmt.Sprintf("  %-22s %d\n", name, stats.Counts[name]))
	}
	out.WriteString("\n")

	out.WriteString("EXPERIMENT GENERATORS\n")
	if len(stats.Generators) == 0 {
		out.WriteString("  none yet\n")
		return out.String()
	}
	for _, g := range stats.Generators {
		out.WriteString(fmt.Sprintf("  EG %-4d %-9s %s  %d/%d (%d experiments)\n",
			g.ID, g.Platform, bar(g.Rate()), g.Successes, g.Trials, g.Experiments))
	}
	return out.String()
}

// bar draws rate as ten blocks.
func bar(rate float64) string {
	n := int(rate*10 + 0.5)
	if n > 10 {
		n = 10
	}
	return strings.Repeat("█", n) + strings.Repeat("░", 10-n)
}
