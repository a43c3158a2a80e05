// ABOUTME: Experiment CLI commands
// ABOUTME: Full experimental setup, experiment listings, and contact exports
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
	"github.com/harperreed/outbound/outreach"
)

// SetupCommand runs a full experimental setup.
func SetupCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("setup")
	generators := fs.String("generators", "", "Comma-separated variable generator ids, one per arm (required)")
	trials := fs.Int("trials", 0, "Customers per experiment (required)")
	rounds := fs.Int("rounds", 1, "Number of experiments to run")
	platform := fs.String("platform", "", "Email, LinkedIn, or Phone (required)")
	country := fs.String("country", "", "Customer country (required)")
	owner := fs.String("owner", "", "Owner email; phone setups queue tasks on this agenda")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*generators)
	if err != nil {
		return fmt.Errorf("--generators: %w", err)
	}
	p, err := models.ParsePlatform(*platform)
	if err != nil {
		return err
	}

	result, err := env.Engine.FullExperimentalSetup(ctx, campaign.SetupRequest{
		VariableGeneratorIDs: ids,
		Trials:               *trials,
		Rounds:               *rounds,
		Platform:             p,
		Country:              *country,
		OwnerEmail:           *owner,
	})
	if result != nil {
		printSetup(env, result)
	}

	var partial *campaign.PartialSetupError
	if errors.As(err, &partial) {
		env.printf("⚠ Stopped after %d of %d rounds\n", partial.Committed, partial.Requested)
	}
	return err
}

func printSetup(env *Env, result *campaign.SetupResult) {
	eg := result.ExperimentGenerator
	verb := "Reused"
	if result.GeneratorCreated {
		verb = "Created"
	}
	env.printf("✓ %s experiment generator %d (%s, generators %s)\n", verb, eg.ID, eg.Platform, joinIDs(eg.VariableGeneratorIDs))

	w := env.table()
	_, _ = fmt.Fprintln(w, "ROUND\tEXPERIMENT\tNEW\tASSIGNED\tSKIPPED\tTASKS")
	for i, r := range result.Rounds {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%t\t%d\t%d\t%d\n", i+1, r.Experiment.ID, r.ExperimentCreated, len(r.Assigned), len(r.Skipped), r.Tasks)
	}
	_ = w.Flush()
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

// ListExperimentsCommand lists experiment generators, or the experiments under some of them.
func ListExperimentsCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-experiments")
	owner := fs.String("owner", "", "Owner email")
	platform := fs.String("platform", "", "Filter generators by platform")
	generators := fs.String("generators", "", "Show experiments of these experiment generator ids")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *generators == "" {
		p, err := optionalPlatform(*platform)
		if err != nil {
			return err
		}
		egs, err := env.Engine.ListExperimentGenerators(ctx, *owner, p)
		if err != nil {
			return err
		}
		w := env.table()
		_, _ = fmt.Fprintln(w, "ID\tPLATFORM\tOWNER\tVARIABLE GENERATORS")
		for _, eg := range egs {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", eg.ID, eg.Platform, eg.OwnerEmail, joinIDs(eg.VariableGeneratorIDs))
		}
		return w.Flush()
	}

	ids, err := parseIDs(*generators)
	if err != nil {
		return err
	}
	views, err := env.Engine.GetExperiments(ctx, *owner, ids)
	if err != nil {
		return err
	}
	w := env.table()
	_, _ = fmt.Fprintln(w, "EXPERIMENT\tGENERATOR\tTRIALS\tSUCCESSES\tARM 1 PAIN POINT")
	for _, v := range views {
		first := ""
		if len(v.Content) > 0 {
			first = short(v.Content[0][models.SlotA])
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", v.ID, v.ExperimentGeneratorID, v.Trials, v.Successes, first)
	}
	return w.Flush()
}

// ExportContactsCommand writes the outbound contacts of some experiment generators as CSV.
func ExportContactsCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("export-contacts")
	generators := fs.String("generators", "", "Comma-separated experiment generator ids (required)")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*generators)
	if err != nil {
		return fmt.Errorf("--generators: %w", err)
	}

	contacts, err := env.Engine.OutboundContacts(ctx, ids)
	if err != nil {
		return err
	}

	var w io.Writer = env.out()
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := outreach.WriteContactsCSV(w, contacts); err != nil {
		return err
	}
	if *output != "" {
		env.printf("✓ Exported %d contacts to %s\n", len(contacts), *output)
	}
	return nil
}
