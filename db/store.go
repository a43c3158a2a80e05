// ABOUTME: Collection-oriented document store abstraction
// ABOUTME: Defines Store, Tx, filters, batched write ops, paths, and the server timestamp sentinel
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidPath = errors.New("invalid document path")
	ErrTxConflict  = errors.New("transaction conflict")
)

// Doc is one stored document. Path is the full slash-separated path,
// ID its last segment.
type Doc struct {
	Path   string
	ID     string
	Fields map[string]any
}

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter. Eq(field, nil) matches null or missing fields.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type OpKind int

const (
	OpSet OpKind = iota
	OpMerge
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpMerge:
		return "merge"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Op is a single write applied as part of an atomic commit.
type Op struct {
	Kind   OpKind
	Path   string
	Fields map[string]any
}

// Store is the document database the campaign engine runs against.
type Store interface {
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, path string) (*Doc, error)
	// Query returns the documents of one collection matching every filter,
	// in insertion order. Documents of nested sub-collections are never included.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Doc, error)
	// Add stores a new document under a store-assigned id.
	Add(ctx context.Context, collection string, fields map[string]any) (*Doc, error)
	// Commit applies all ops atomically.
	Commit(ctx context.Context, ops []Op) error
	// RunTransaction runs fn with serializable reads and buffered writes.
	// fn may be invoked more than once when the backend detects a conflict.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the view a transaction function gets.
type Tx interface {
	Get(path string) (*Doc, error)
	Query(collection string, filters ...Filter) ([]Doc, error)
	Set(path string, fields map[string]any) error
	// Delete removes the document at path. Deleting a missing document is not an error.
	Delete(path string) error
}

// Batch accumulates writes for one atomic commit.
type Batch struct {
	store Store
	ops   []Op
}

func NewBatch(store Store) *Batch {
	return &Batch{store: store}
}

// Set creates or fully replaces the document at path.
func (b *Batch) Set(path string, fields map[string]any) *Batch {
	b.ops = append(b.ops, Op{Kind: OpSet, Path: path, Fields: fields})
	return b
}

// Merge overwrites the given top-level fields, creating the document if needed.
func (b *Batch) Merge(path string, fields map[string]any) *Batch {
	b.ops = append(b.ops, Op{Kind: OpMerge, Path: path, Fields: fields})
	return b
}

// Delete removes the document at path. Deleting a missing document is not an error.
func (b *Batch) Delete(path string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpDelete, Path: path})
	return b
}

func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) Ops() []Op {
	return b.ops
}

// Commit applies the accumulated ops. An empty batch commits nothing.
func (b *Batch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	return b.store.Commit(ctx, b.ops)
}

type serverTimestamp struct{}

func (serverTimestamp) String() string { return "ServerTimestamp" }

// ServerTimestamp is replaced by the store clock when a write is applied.
var ServerTimestamp any = serverTimestamp{}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// NewDocPath returns a path for a new document with a random id.
func NewDocPath(collection string) string {
	return Join(collection, uuid.New().String())
}

// SplitDocPath returns the parent collection and id of a document path.
func SplitDocPath(path string) (collection, id string, err error) {
	segs, err := segments(path)
	if err != nil {
		return "", "", err
	}
	if len(segs)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is a collection path", ErrInvalidPath, path)
	}
	return Join(segs[:len(segs)-1]...), segs[len(segs)-1], nil
}

// ValidateCollection checks that path names a collection (odd segment count).
func ValidateCollection(path string) error {
	segs, err := segments(path)
	if err != nil {
		return err
	}
	if len(segs)%2 != 1 {
		return fmt.Errorf("%w: %q is a document path", ErrInvalidPath, path)
	}
	return nil
}

func segments(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return segs, nil
}
