// ABOUTME: SQLite implementation of the document store
// ABOUTME: Stores JSON documents by path and filters them with json_extract equality predicates
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore keeps every document in one table, keyed by path.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database, now: time.Now}
}

// OpenSQLiteStore opens (and initializes) the database file at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	database, err := OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	return NewSQLiteStore(database), nil
}

// SetClock overrides the clock used for server timestamps.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Get(ctx context.Context, path string) (*Doc, error) {
	if _, _, err := SplitDocPath(path); err != nil {
		return nil, err
	}
	return sqliteGet(ctx, s.db, path)
}

func (s *SQLiteStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Doc, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	return sqliteQuery(ctx, s.db, collection, filters)
}

func (s *SQLiteStore) Add(ctx context.Context, collection string, fields map[string]any) (*Doc, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	path := NewDocPath(collection)
	stored, err := sqlitePut(ctx, s.db, path, fields, s.now())
	if err != nil {
		return nil, err
	}
	_, id, _ := SplitDocPath(path)
	return &Doc{Path: path, ID: id, Fields: stored}, nil
}

func (s *SQLiteStore) Commit(ctx context.Context, ops []Op) error {
	for _, op := range ops {
		if _, _, err := SplitDocPath(op.Path); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	for _, op := range ops {
		if err := sqliteApply(ctx, tx, op, now); err != nil {
			return fmt.Errorf("failed to apply %s %s: %w", op.Kind, op.Path, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqliteTx{ctx: ctx, tx: tx, now: s.now()}); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
	now time.Time
}

func (t *sqliteTx) Get(path string) (*Doc, error) {
	if _, _, err := SplitDocPath(path); err != nil {
		return nil, err
	}
	return sqliteGet(t.ctx, t.tx, path)
}

func (t *sqliteTx) Query(collection string, filters ...Filter) ([]Doc, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	return sqliteQuery(t.ctx, t.tx, collection, filters)
}

func (t *sqliteTx) Set(path string, fields map[string]any) error {
	if _, _, err := SplitDocPath(path); err != nil {
		return err
	}
	_, err := sqlitePut(t.ctx, t.tx, path, fields, t.now)
	return err
}

func (t *sqliteTx) Delete(path string) error {
	if _, _, err := SplitDocPath(path); err != nil {
		return err
	}
	return sqliteApply(t.ctx, t.tx, Op{Kind: OpDelete, Path: path}, t.now)
}

func sqliteApply(ctx context.Context, q sqlQuerier, op Op, now time.Time) error {
	switch op.Kind {
	case OpSet:
		_, err := sqlitePut(ctx, q, op.Path, op.Fields, now)
		return err
	case OpMerge:
		existing := map[string]any{}
		doc, err := sqliteGet(ctx, q, op.Path)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if doc != nil {
			existing = doc.Fields
		}
		update, err := prepareFields(op.Fields, now)
		if err != nil {
			return err
		}
		_, err = sqlitePut(ctx, q, op.Path, mergeFields(existing, update), now)
		return err
	case OpDelete:
		_, err := q.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, op.Path)
		return err
	}
	return fmt.Errorf("unknown op kind %d", op.Kind)
}

func sqliteGet(ctx context.Context, q sqlQuerier, path string) (*Doc, error) {
	var id string
	var data []byte

	err := q.QueryRowContext(ctx, `SELECT doc_id, data FROM documents WHERE path = ?`, path).Scan(&id, &data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields, err := decodeFields(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &Doc{Path: path, ID: id, Fields: fields}, nil
}

func sqliteQuery(ctx context.Context, q sqlQuerier, collection string, filters []Filter) ([]Doc, error) {
	var sb strings.Builder
	args := []any{collection}

	sb.WriteString(`SELECT path, doc_id, data FROM documents WHERE collection = ?`)
	for _, f := range filters {
		jsonPath := `$."` + f.Field + `"`
		v := filterValue(f.Value)
		if v == nil {
			sb.WriteString(` AND json_extract(data, ?) IS NULL`)
			args = append(args, jsonPath)
			continue
		}
		sb.WriteString(` AND json_extract(data, ?) = ?`)
		args = append(args, jsonPath, v)
	}
	sb.WriteString(` ORDER BY seq`)

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]Doc, 0)
	for rows.Next() {
		var doc Doc
		var data []byte
		if err := rows.Scan(&doc.Path, &doc.ID, &data); err != nil {
			return nil, err
		}
		doc.Fields, err = decodeFields(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", doc.Path, err)
		}
		// SQLite treats true and 1 alike; keep the stricter in-memory semantics.
		if !matches(doc.Fields, filters) {
			continue
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

func sqlitePut(ctx context.Context, q sqlQuerier, path string, fields map[string]any, now time.Time) (map[string]any, error) {
	collection, id, err := SplitDocPath(path)
	if err != nil {
		return nil, err
	}

	stored, err := prepareFields(fields, now)
	if err != nil {
		return nil, err
	}

	data, err := encodeFields(stored)
	if err != nil {
		return nil, err
	}

	ts := now.UTC()
	_, err = q.ExecContext(ctx, `
		INSERT INTO documents (path, collection, doc_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, path, collection, id, string(data), ts, ts)
	if err != nil {
		return nil, err
	}

	return stored, nil
}
