// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the dashboard and composition graph commands
package cli

import (
	"context"
	"os"

	"github.com/harperreed/outbound/viz"
)

// VizGraphCommand writes the experiment composition graph as DOT.
func VizGraphCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("viz graph")
	owner := fs.String("owner", "", "Only this owner's experiment generators")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator(env.Engine).GenerateCompositionGraph(ctx, *owner)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	env.printf("%s\n", dot)
	return nil
}

// VizDashboardCommand prints record counts and experiment success rates.
func VizDashboardCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("viz dashboard")
	owner := fs.String("owner", "", "Only this owner's experiment generators")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := viz.GenerateDashboardStats(ctx, env.Engine, *owner)
	if err != nil {
		return err
	}
	env.printf("%s", viz.RenderDashboard(stats))
	return nil
}
