// ABOUTME: Offline maintenance for a SQLite campaign store
// ABOUTME: Backs up the file, reports collection sizes, and nulls spreadsheet placeholder values

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/importer"
)

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before cleanup")
	collections := flag.String("collections", "", "Comma-separated collections (default: all top-level collections)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}

	names := campaign.StatisticsCollections
	if *collections != "" {
		names = strings.Split(*collections, ",")
	}

	changed, err := cleanup(context.Background(), *dbPath, names, *dryRun, *backup)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	if *dryRun {
		log.Printf("[DRY RUN] %d documents would be normalized", changed)
		return
	}
	log.Printf("Cleanup completed successfully: %d documents normalized", changed)
}

// cleanup normalizes names in the store at dbPath and returns how many
// documents changed, or would change on a dry run.
func cleanup(ctx context.Context, dbPath string, names []string, dryRun, createBackup bool) (int, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return 0, fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
		log.Printf("Creating backup: %s", backupPath)

		input, err := os.ReadFile(dbPath)
		if err != nil {
			return 0, fmt.Errorf("failed to read database: %w", err)
		}

		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return 0, fmt.Errorf("failed to create backup: %w", err)
		}
		log.Printf("Backup created successfully")
	}

	store, err := db.OpenSQLiteStore(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	counts, err := collectionCounts(store.DB())
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	for _, name := range names {
		log.Printf("Collection %s: %d documents", name, counts[name])
	}

	if !dryRun {
		return importer.NormalizeCollections(ctx, store, names)
	}

	pending := 0
	for _, name := range names {
		docs, err := store.Query(ctx, name)
		if err != nil {
			return 0, err
		}
		for _, d := range docs {
			if fields := importer.PlaceholderFields(d.Fields); len(fields) > 0 {
				pending++
				log.Printf("[DRY RUN] %s: would null %d fields", d.Path, len(fields))
			}
		}
	}
	return pending, nil
}

func collectionCounts(database *sql.DB) (map[string]int, error) {
	rows, err := database.Query("SELECT collection, COUNT(*) FROM documents GROUP BY collection ORDER BY collection")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}

	return counts, rows.Err()
}
