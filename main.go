// ABOUTME: Entry point for the outbound campaign CLI, MCP server, and HTTP API
// ABOUTME: Loads config, opens the store, and routes to subcommands
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/cli"
	"github.com/harperreed/outbound/config"
	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/logger"
	"github.com/harperreed/outbound/metrics"
)

const version = "0.1.0"

type command func(ctx context.Context, env *cli.Env, args []string) error

var commands = map[string]command{
	"import-customers": cli.ImportCustomersCommand,
	"list-customers":   cli.ListCustomersCommand,
	"import-variables": cli.ImportVariablesCommand,
	"generate-content": cli.GenerateContentCommand,
	"list-generators":  cli.ListGeneratorsCommand,
	"list-variables":   cli.ListVariablesCommand,
	"setup":            cli.SetupCommand,
	"list-experiments": cli.ListExperimentsCommand,
	"export-contacts":  cli.ExportContactsCommand,
	"agenda":           cli.AgendaCommand,
	"complete-task":    cli.CompleteTaskCommand,
	"record-event":     cli.RecordEventCommand,
	"draft-emails":     cli.DraftEmailsCommand,
	"normalize":        cli.NormalizeCommand,
	"mcp":              cli.MCPCommand,
	"serve":            cli.ServeCommand,
	"tui":              cli.TUICommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/outbound/config.json)")
	dbPath := flag.String("db-path", "", "SQLite database path (overrides config)")
	store := flag.String("store", "", "Store backend: sqlite or badger (overrides config)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("outbound version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	name, cmdArgs := args[0], args[1:]
	run, ok := commands[name]
	if name == "viz" {
		run, cmdArgs, ok = vizCommand(cmdArgs)
	}
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *store != "" {
		cfg.Store = *store
	}

	logMode := cfg.LogMode
	if name == "tui" {
		logMode = "quiet"
	}
	lg, err := logger.New(logMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	st, err := db.Open(cfg.Store, cfg.StoreLocation())
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store, err)
	}
	defer func() { _ = st.Close() }()

	collector := metrics.New()
	opts := []campaign.Option{campaign.WithLogger(lg), campaign.WithRecorder(collector)}
	if cfg.Seed != 0 {
		opts = append(opts, campaign.WithSeed(cfg.Seed))
	}

	env := &cli.Env{
		Engine:  campaign.New(st, opts...),
		Config:  cfg,
		Log:     lg,
		Metrics: collector,
		Version: version,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, env, cmdArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		_ = st.Close()
		os.Exit(1)
	}
}

func vizCommand(args []string) (command, []string, bool) {
	if len(args) == 0 {
		return nil, nil, false
	}
	switch args[0] {
	case "graph":
		return cli.VizGraphCommand, args[1:], true
	case "dashboard":
		return cli.VizDashboardCommand, args[1:], true
	}
	return nil, nil, false
}

func printUsage() {
	fmt.Printf(`outbound v%s - outreach experiment toolkit

USAGE:
  outbound [global flags] <command> [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/outbound/config.json)
  --db-path <path>       SQLite database path
  --store <backend>      sqlite or badger

DATA:
  import-customers       Load a customer CSV
    --file <csv> --platform <Email|LinkedIn|Phone> [--title <role>] [--country <name>]
  list-customers         List customers [--role] [--platform] [--country] [--inactive]
  import-variables       Load a variables CSV, one generator per phase
    --file <csv> --platform <p> --product <name> --owner <email>
  generate-content       Write a variables CSV with generated content
    --brief <json> --pain-points <a,b> [--phases] [--slots A,B,C] [--output <csv>]
  normalize              Null placeholder values [--collections a,b]

EXPERIMENTS:
  list-generators        --owner <email> [--platform] [--phase]
  list-variables         --generator <id>
  setup                  Run a full experimental setup
    --generators <id,id> --trials <n> --rounds <n> --platform <p> --country <name> [--owner <email>]
  list-experiments       [--owner] [--platform] [--generators <eg ids>]
  export-contacts        --generators <eg ids> [--output <csv>]
  draft-emails           --generators <eg ids> [--from <addr>] [--dry-run]

AGENDA:
  agenda                 --owner <email> [--platform]
  complete-task          --owner <email> [--phone] [--email] [--seq] [--status] [--success]
  record-event           --platform <p> [--status] [--experiment <id> --generator <id>] [--success]

SERVERS:
  mcp                    MCP server on stdio
  serve                  HTTP API [--addr :8080]
  tui                    Agenda browser --owner <email>

VIZ:
  viz graph              Composition graph as DOT [--owner] [--output <file>]
  viz dashboard          Record counts and success rates [--owner]

`, version)
}
