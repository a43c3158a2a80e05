// ABOUTME: Database connection management and store construction
// ABOUTME: Opens SQLite with WAL mode at XDG path and selects the configured store backend
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

func OpenDatabase(path string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// WAL mode; transactions take the write lock up front so read-then-write
	// sequences inside RunTransaction cannot interleave.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Configure connection pool for SQLite (avoid database locked errors)
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Open returns the store for backend at location: a database file for
// sqlite, a directory for badger.
func Open(backend, location string) (Store, error) {
	switch backend {
	case "", BackendSQLite:
		return OpenSQLiteStore(location)
	case BackendBadger:
		return OpenBadgerStore(location)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}
