// ABOUTME: Variable CLI commands
// ABOUTME: Variable uploads, generated content, and generator listings
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/harperreed/outbound/content"
	"github.com/harperreed/outbound/importer"
	"github.com/harperreed/outbound/models"
)

// ImportVariablesCommand loads a variables CSV, one generator per phase.
func ImportVariablesCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("import-variables")
	file := fs.String("file", "", "CSV file with Phase, Pain Point, contentA.. columns (required)")
	platform := fs.String("platform", "", "Email, LinkedIn, or Phone (required)")
	product := fs.String("product", "", "Product the content is for (required)")
	owner := fs.String("owner", "", "Owner email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *product == "" || *owner == "" {
		return fmt.Errorf("--file, --product, and --owner are required")
	}
	p, err := models.ParsePlatform(*platform)
	if err != nil {
		return err
	}

	table, err := importer.ReadCSVFile(*file)
	if err != nil {
		return err
	}
	results, err := importer.New(env.Engine, env.Log).ImportVariables(ctx, table, p, *product, *owner)
	if err != nil {
		return err
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "GENERATOR\tVERSION\tPHASE\tCREATED\tREJECTED")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\n", r.Generator.ID, r.Generator.VersionID, r.Generator.Phase, r.Created, r.Rejected)
	}
	return w.Flush()
}

// GenerateContentCommand writes a variables CSV of generated content.
func GenerateContentCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("generate-content")
	briefPath := fs.String("brief", "", "JSON file describing product, audience, industry, features, language (required)")
	phases := fs.String("phases", strings.Join(content.Phases, ","), "Comma-separated phases")
	painPoints := fs.String("pain-points", "", "Comma-separated pain points")
	painFile := fs.String("pain-file", "", "File with one pain point per line")
	slots := fs.String("slots", "A,B", "Comma-separated content slots (letters or kinds)")
	output := fs.String("output", "", "Output file (default: stdout)")
	parallel := fs.Int("parallel", 0, "Concurrent requests (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *briefPath == "" {
		return fmt.Errorf("--brief is required")
	}

	brief, err := readBrief(*briefPath)
	if err != nil {
		return err
	}
	pains := splitList(*painPoints)
	if *painFile != "" {
		more, err := readLines(*painFile)
		if err != nil {
			return err
		}
		pains = append(pains, more...)
	}
	if len(pains) == 0 {
		return fmt.Errorf("no pain points given; use --pain-points or --pain-file")
	}

	var slotList []models.Slot
	for _, s := range splitList(*slots) {
		slot, err := models.ParseSlot(s)
		if err != nil {
			return err
		}
		slotList = append(slotList, slot)
	}

	gen := env.Generator
	if gen == nil {
		gen, err = content.NewOpenAIGenerator(env.Config.OpenAIKey, env.Config.OpenAIModel, env.Log)
		if err != nil {
			return err
		}
	}
	limit := *parallel
	if limit == 0 {
		limit = env.Config.Parallelism
	}

	rows, err := content.GenerateRows(ctx, gen, *brief, splitList(*phases), pains, slotList, limit)
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
	if err := content.WriteVariablesCSV(w, rows, slotList); err != nil {
		return err
	}
	if *output != "" {
		env.printf("✓ Wrote %d rows to %s\n", len(rows), *output)
	}
	return nil
}

func readBrief(path string) (*content.Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read brief: %w", err)
	}
	var brief content.Brief
	if err := json.Unmarshal(data, &brief); err != nil {
		return nil, fmt.Errorf("failed to parse brief: %w", err)
	}
	return &brief, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// ListGeneratorsCommand lists the owner's variable generators.
func ListGeneratorsCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-generators")
	owner := fs.String("owner", "", "Owner email (required)")
	platform := fs.String("platform", "", "Filter by platform")
	phase := fs.String("phase", "", "Filter by phase")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return fmt.Errorf("--owner is required")
	}
	p, err := optionalPlatform(*platform)
	if err != nil {
		return err
	}

	gens, err := env.Engine.ListVariableGenerators(ctx, *owner, p, *phase)
	if err != nil {
		return err
	}
	if len(gens) == 0 {
		env.printf("No variable generators found.\n")
		return nil
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "ID\tVERSION\tPHASE\tPRODUCT\tPLATFORM")
	for _, g := range gens {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", g.ID, g.VersionID, g.Phase, g.Product, g.Platform)
	}
	return w.Flush()
}

// ListVariablesCommand lists the variables of one generator.
func ListVariablesCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-variables")
	generator := fs.Int64("generator", 0, "Variable generator id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *generator == 0 {
		return fmt.Errorf("--generator is required")
	}

	vars, err := env.Engine.ListVariables(ctx, *generator)
	if err != nil {
		return err
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "ID\tPAIN POINT\tA\tB\tC\tD\tE\tTRIALS\tSUCCESSES")
	for _, v := range vars {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.PainPoint,
			short(v.Content[models.SlotA]), short(v.Content[models.SlotB]), short(v.Content[models.SlotC]),
			short(v.Content[models.SlotD]), short(v.Content[models.SlotE]),
			strconv.FormatInt(v.Trials, 10), strconv.FormatInt(v.Successes, 10))
	}
	return w.Flush()
}

func short(s string) string {
	r := []rune(s)
	if len(r) <= 24 {
		return s
	}
	return string(r[:23]) + "…"
}
