// ABOUTME: BadgerDB implementation of the document store
// ABOUTME: Keeps JSON envelopes under path keys with a sequence for insertion order
package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const (
	docKeyPrefix       = "doc/"
	seqKey             = "meta/seq"
	seqBandwidth       = 100
	maxConflictRetries = 5
)

// BadgerStore is the embedded key-value backend. Reads in RunTransaction are
// tracked by badger, so conflicting transactions are retried.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

type envelope struct {
	Seq  uint64          `json:"seq"`
	Data json.RawMessage `json:"data"`
}

// OpenBadgerStore opens a persistent store in dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create badger directory %s: %w", dir, err)
	}
	return openBadger(badger.DefaultOptions(dir))
}

// OpenBadgerMemory opens a store that lives only as long as the process.
func OpenBadgerMemory() (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	database, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	seq, err := database.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("open badger sequence: %w", err)
	}

	return &BadgerStore{db: database, seq: seq, now: time.Now}, nil
}

// SetClock overrides the clock used for server timestamps.
func (s *BadgerStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *BadgerStore) Get(ctx context.Context, path string) (*Doc, error) {
	if _, _, err := SplitDocPath(path); err != nil {
		return nil, err
	}
	var doc *Doc
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = badgerGet(txn, path)
		return err
	})
	return doc, err
}

func (s *BadgerStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Doc, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	var docs []Doc
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		docs, err = badgerQuery(txn, collection, filters)
		return err
	})
	return docs, err
}

func (s *BadgerStore) Add(ctx context.Context, collection string, fields map[string]any) (*Doc, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	path := NewDocPath(collection)
	_, id, _ := SplitDocPath(path)

	var stored map[string]any
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		stored, err = s.put(txn, path, fields, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Doc{Path: path, ID: id, Fields: stored}, nil
}

func (s *BadgerStore) Commit(ctx context.Context, ops []Op) error {
	for _, op := range ops {
		if _, _, err := SplitDocPath(op.Path); err != nil {
			return err
		}
	}

	now := s.now()
	return s.update(ctx, func(txn *badger.Txn) error {
		for _, op := range ops {
			if err := s.apply(txn, op, now); err != nil {
				return fmt.Errorf("failed to apply %s %s: %w", op.Kind, op.Path, err)
			}
		}
		return nil
	})
}

func (s *BadgerStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	now := s.now()
	return s.update(ctx, func(txn *badger.Txn) error {
		return fn(&badgerTx{store: s, txn: txn, now: now})
	})
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return ErrTxConflict
}

func (s *BadgerStore) apply(txn *badger.Txn, op Op, now time.Time) error {
	switch op.Kind {
	case OpSet:
		_, err := s.put(txn, op.Path, op.Fields, now)
		return err
	case OpMerge:
		existing := map[string]any{}
		doc, err := badgerGet(txn, op.Path)
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
		return s.write(txn, op.Path, mergeFields(existing, update))
	case OpDelete:
		return txn.Delete(docKey(op.Path))
	}
	return fmt.Errorf("unknown op kind %d", op.Kind)
}

func (s *BadgerStore) put(txn *badger.Txn, path string, fields map[string]any, now time.Time) (map[string]any, error) {
	stored, err := prepareFields(fields, now)
	if err != nil {
		return nil, err
	}
	if err := s.write(txn, path, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// write stores already prepared fields, keeping the sequence of an existing document.
func (s *BadgerStore) write(txn *badger.Txn, path string, stored map[string]any) error {
	key := docKey(path)

	var seq uint64
	item, err := txn.Get(key)
	switch {
	case err == nil:
		env, err := readEnvelope(item)
		if err != nil {
			return err
		}
		seq = env.Seq
	case errors.Is(err, badger.ErrKeyNotFound):
		seq, err = s.seq.Next()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
	default:
		return err
	}

	data, err := encodeFields(stored)
	if err != nil {
		return err
	}
	value, err := json.Marshal(envelope{Seq: seq, Data: data})
	if err != nil {
		return err
	}

	return txn.Set(key, value)
}

type badgerTx struct {
	store *BadgerStore
	txn   *badger.Txn
	now   time.Time
}

func (t *badgerTx) Get(path string) (*Doc, error) {
	if _, _, err := SplitDocPath(path); err != nil {
		return nil, err
	}
	return badgerGet(t.txn, path)
}

func (t *badgerTx) Query(collection string, filters ...Filter) ([]Doc, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	return badgerQuery(t.txn, collection, filters)
}

func (t *badgerTx) Set(path string, fields map[string]any) error {
	if _, _, err := SplitDocPath(path); err != nil {
		return err
	}
	_, err := t.store.put(t.txn, path, fields, t.now)
	return err
}

func (t *badgerTx) Delete(path string) error {
	if _, _, err := SplitDocPath(path); err != nil {
		return err
	}
	return t.store.apply(t.txn, Op{Kind: OpDelete, Path: path}, t.now)
}

func docKey(path string) []byte {
	return []byte(docKeyPrefix + path)
}

func readEnvelope(item *badger.Item) (envelope, error) {
	var env envelope
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode %s: %w", item.Key(), err)
	}
	return env, nil
}

func badgerGet(txn *badger.Txn, path string) (*Doc, error) {
	item, err := txn.Get(docKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	env, err := readEnvelope(item)
	if err != nil {
		return nil, err
	}
	fields, err := decodeFields(env.Data)
	if err != nil {
		return nil, err
	}

	_, id, _ := SplitDocPath(path)
	return &Doc{Path: path, ID: id, Fields: fields}, nil
}

func badgerQuery(txn *badger.Txn, collection string, filters []Filter) ([]Doc, error) {
	prefix := docKey(collection + "/")

	type seqDoc struct {
		seq uint64
		doc Doc
	}
	var found []seqDoc

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		id := string(bytes.TrimPrefix(item.KeyCopy(nil), prefix))
		// Sub-collection documents live under the same prefix.
		if strings.Contains(id, "/") {
			continue
		}

		env, err := readEnvelope(item)
		if err != nil {
			return nil, err
		}
		fields, err := decodeFields(env.Data)
		if err != nil {
			return nil, err
		}
		if !matches(fields, filters) {
			continue
		}

		found = append(found, seqDoc{
			seq: env.Seq,
			doc: Doc{Path: Join(collection, id), ID: id, Fields: fields},
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	docs := make([]Doc, 0, len(found))
	for _, f := range found {
		docs = append(docs, f.doc)
	}
	return docs, nil
}
