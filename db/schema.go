// ABOUTME: Database schema definitions for the SQLite document store
// ABOUTME: Creates the documents table keyed by path with a per-collection index
package db

import (
	"database/sql"
)

// seq preserves insertion order; an upsert keeps the original seq.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	collection TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
