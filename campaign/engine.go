// ABOUTME: Campaign engine wiring the document store, randomness, logging, and metrics
// ABOUTME: Holds shared helpers for id allocation and composition keys used by every operation
package campaign

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/logger"
	"github.com/harperreed/outbound/models"
)

const (
	collectionCounters               = "counters"
	collectionExperimentGeneratorKey = "experimentGeneratorKeys"
	collectionExperimentKey          = "experimentKeys"
	fieldLast                        = "last"
)

// Engine runs experiment setup and the queries around it against one store.
type Engine struct {
	store    db.Store
	log      *logger.Logger
	recorder Recorder

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Engine)

// WithRand fixes the random source, for reproducible sampling.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithSeed seeds the random source; 0 keeps a time based seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		if seed != 0 {
			e.rng = rand.New(rand.NewSource(seed))
		}
	}
}

func New(store db.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		log:      logger.Nop(),
		recorder: nopRecorder{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() db.Store {
	return e.store
}

// intn draws from the shared source; *rand.Rand is not safe for concurrent use.
func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// reader is the read side shared by the store and a transaction.
type reader interface {
	Get(path string) (*db.Doc, error)
	Query(collection string, filters ...db.Filter) ([]db.Doc, error)
}

type storeReader struct {
	ctx   context.Context
	store db.Store
}

func (r storeReader) Get(path string) (*db.Doc, error) {
	return r.store.Get(r.ctx, path)
}

func (r storeReader) Query(collection string, filters ...db.Filter) ([]db.Doc, error) {
	return r.store.Query(r.ctx, collection, filters...)
}

func (e *Engine) reader(ctx context.Context) reader {
	return storeReader{ctx: ctx, store: e.store}
}

// nextID returns one past the larger of the highest id among docs and the
// named counter, and advances the counter. The counter document makes two
// concurrent allocations touch the same key so the store serializes them.
func nextID(tx db.Tx, counter string, docs []db.Doc, field string) (int64, error) {
	last := maxInt(docs, field)

	path := db.Join(collectionCounters, counter)
	doc, err := tx.Get(path)
	switch {
	case err == nil:
		if v := models.Int(doc.Fields, fieldLast); v > last {
			last = v
		}
	case !errors.Is(err, db.ErrNotFound):
		return 0, err
	}

	id := last + 1
	if err := tx.Set(path, map[string]any{fieldLast: id}); err != nil {
		return 0, err
	}
	return id, nil
}

func maxInt(docs []db.Doc, field string) int64 {
	var highest int64
	for _, d := range docs {
		if v := models.Int(d.Fields, field); v > highest {
			highest = v
		}
	}
	return highest
}

// hashKey is a stable document id for an identity made of parts.
func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func firstDoc(docs []db.Doc) *db.Doc {
	if len(docs) == 0 {
		return nil
	}
	return &docs[0]
}
