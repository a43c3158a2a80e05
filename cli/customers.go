// ABOUTME: Customer CLI commands
// ABOUTME: Spreadsheet import, filtered listing, and placeholder cleanup
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/importer"
)

// ImportCustomersCommand loads a customer CSV for one platform.
func ImportCustomersCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("import-customers")
	file := fs.String("file", "", "CSV file (required)")
	platform := fs.String("platform", "", "Email, LinkedIn, or Phone (required)")
	title := fs.String("title", "", "Role recorded for LinkedIn and phone uploads")
	country := fs.String("country", "", "Country recorded when the file has none")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}
	p, err := optionalPlatform(*platform)
	if err != nil || p == "" {
		return fmt.Errorf("--platform must be Email, LinkedIn, or Phone")
	}

	table, err := importer.ReadCSVFile(*file)
	if err != nil {
		return err
	}
	res, err := importer.New(env.Engine, env.Log).ImportCustomers(ctx, table, p, *title, *country)
	if err != nil {
		return err
	}

	env.printf("✓ Imported %d customers\n", res.Imported)
	if res.Duplicates > 0 {
		env.printf("  Skipped %d duplicates\n", res.Duplicates)
	}
	if res.MissingKey > 0 {
		env.printf("  Skipped %d rows without a contact for %s\n", res.MissingKey, p)
	}
	return nil
}

// ListCustomersCommand prints customers matching the filters.
func ListCustomersCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-customers")
	role := fs.String("role", "", "Filter by role")
	platform := fs.String("platform", "", "Only customers reachable on this platform")
	country := fs.String("country", "", "Filter by country")
	inactive := fs.Bool("inactive", false, "Only customers without an assignment on the platform")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := optionalPlatform(*platform)
	if err != nil {
		return err
	}

	customers, err := env.Engine.ListCustomers(ctx, campaign.CustomerFilter{
		Role: *role, Platform: p, Country: *country, InactiveOnly: *inactive,
	})
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		env.printf("No customers found.\n")
		return nil
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "NAME\tCOMPANY\tROLE\tCOUNTRY\tEMAIL\tPHONE")
	for _, c := range customers {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.DisplayName(), c.Company, c.Role, c.Country, c.Email, c.PhoneNumber)
	}
	return w.Flush()
}

// NormalizeCommand nulls placeholder values left by spreadsheet uploads.
func NormalizeCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("normalize")
	collections := fs.String("collections", "", "Comma-separated collections (default: all top-level collections)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	names := splitList(*collections)
	if len(names) == 0 {
		names = campaign.StatisticsCollections
	}

	changed, err := importer.NormalizeCollections(ctx, env.Engine.Store(), names)
	if err != nil {
		return err
	}
	env.printf("✓ Normalized %d documents across %d collections\n", changed, len(names))
	return nil
}
