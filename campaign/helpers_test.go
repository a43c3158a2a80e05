// ABOUTME: Shared fixtures for campaign engine tests
// ABOUTME: Stores, a write-counting store wrapper, and seeding helpers for generators and customers
package campaign

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

const testOwner = "operator@example.com"

// countingStore counts every document write that reaches the store.
type countingStore struct {
	db.Store
	writes atomic.Int64
}

func (s *countingStore) Add(ctx context.Context, collection string, fields map[string]any) (*db.Doc, error) {
	s.writes.Add(1)
	return s.Store.Add(ctx, collection, fields)
}

func (s *countingStore) Commit(ctx context.Context, ops []db.Op) error {
	s.writes.Add(int64(len(ops)))
	return s.Store.Commit(ctx, ops)
}

func (s *countingStore) RunTransaction(ctx context.Context, fn func(tx db.Tx) error) error {
	return s.Store.RunTransaction(ctx, func(tx db.Tx) error {
		return fn(&countingTx{Tx: tx, writes: &s.writes})
	})
}

type countingTx struct {
	db.Tx
	writes *atomic.Int64
}

func (t *countingTx) Set(path string, fields map[string]any) error {
	t.writes.Add(1)
	return t.Tx.Set(path, fields)
}

func (t *countingTx) Delete(path string) error {
	t.writes.Add(1)
	return t.Tx.Delete(path)
}

func newBadgerStore(t *testing.T) db.Store {
	t.Helper()
	s, err := db.OpenBadgerMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSQLiteStore(t *testing.T) db.Store {
	t.Helper()
	s, err := db.OpenSQLiteStore(filepath.Join(t.TempDir(), "outbound.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestEngine(t *testing.T) (*Engine, *countingStore) {
	t.Helper()
	store := &countingStore{Store: newBadgerStore(t)}
	return New(store, WithRand(rand.New(rand.NewSource(42)))), store
}

// seedGenerator creates a variable generator holding n variables with distinct content.
func seedGenerator(t *testing.T, e *Engine, phase string, platform models.Platform, n int) *models.VariableGenerator {
	t.Helper()
	ctx := context.Background()

	g, err := e.CreateVariableGenerator(ctx, phase, "outbound", testOwner, platform)
	require.NoError(t, err)

	for i := 1; i <= n; i++ {
		var c models.Content
		c[models.SlotA] = fmt.Sprintf("%s pain %d", phase, i)
		c[models.SlotD] = fmt.Sprintf("%s cta %d", phase, i)
		_, ok, err := e.CreateVariable(ctx, g.ID, fmt.Sprintf("pain %d", i), c)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return g
}

// seedCustomers stores n customers reachable on every platform.
func seedCustomers(t *testing.T, store db.Store, country string, n int) []models.Customer {
	t.Helper()
	ctx := context.Background()

	out := make([]models.Customer, 0, n)
	for i := 0; i < n; i++ {
		c := models.Customer{
			FirstName:   "Customer",
			LastName:    fmt.Sprint(i),
			Role:        "CTO",
			Company:     "Acme",
			Email:       fmt.Sprintf("c%d@example.com", i),
			LinkedInURL: fmt.Sprintf("https://linkedin.com/in/c%d", i),
			PhoneNumber: fmt.Sprintf("+1555000%04d", i),
			Country:     country,
		}
		c.RefreshFlags()
		doc, err := store.Add(ctx, models.CollectionCustomers, c.Fields())
		require.NoError(t, err)
		c.DocID = doc.ID
		out = append(out, c)
	}
	return out
}

func assignmentsFor(t *testing.T, store db.Store, customerID string, egID int64) []db.Doc {
	t.Helper()
	docs, err := store.Query(context.Background(),
		db.Join(models.CollectionCustomers, customerID, models.SubcollectionAssignments),
		db.Eq(models.FieldExperimentGeneratorID, egID))
	require.NoError(t, err)
	return docs
}
