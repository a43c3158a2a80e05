// ABOUTME: Tests for the full experimental setup orchestration
// ABOUTME: Pool shrink across rounds, partial results, preconditions, and no double assignment
package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outbound/models"
)

func setupFixture(t *testing.T, customers int) (*Engine, *countingStore, []int64) {
	t.Helper()
	e, store := newTestEngine(t)
	a := seedGenerator(t, e, "Phase 1", models.PlatformEmail, 3)
	b := seedGenerator(t, e, "Phase 2", models.PlatformEmail, 3)
	seedCustomers(t, store, "US", customers)
	return e, store, []int64{a.ID, b.ID}
}

func TestFullExperimentalSetupPoolShrink(t *testing.T) {
	e, store, ids := setupFixture(t, 12)
	ctx := context.Background()

	result, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids,
		Trials:               5,
		Rounds:               3,
		Platform:             models.PlatformEmail,
		Country:              "US",
		OwnerEmail:           testOwner,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCustomers)

	var partial *PartialSetupError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 2, partial.Committed)
	assert.Equal(t, 3, partial.Requested)

	require.NotNil(t, result)
	require.Len(t, result.Rounds, 2)
	seen := map[string]bool{}
	for _, round := range result.Rounds {
		assert.Len(t, round.Assigned, 5)
		for _, c := range round.Assigned {
			assert.False(t, seen[c.DocID], "rounds must not overlap")
			seen[c.DocID] = true
		}
	}

	customers, err := e.Collection(ctx, models.CollectionCustomers)
	require.NoError(t, err)
	assigned := 0
	for _, c := range customers {
		n := len(assignmentsFor(t, store, c.ID, result.ExperimentGenerator.ID))
		assert.LessOrEqual(t, n, 1)
		assigned += n
	}
	assert.Equal(t, 10, assigned)
}

func TestFullExperimentalSetupNoDoubleAssignment(t *testing.T) {
	e, store, ids := setupFixture(t, 12)
	ctx := context.Background()
	req := SetupRequest{
		VariableGeneratorIDs: ids,
		Trials:               4,
		Rounds:               2,
		Platform:             models.PlatformEmail,
		Country:              "US",
	}

	first, err := e.FullExperimentalSetup(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.GeneratorCreated)

	second, err := e.FullExperimentalSetup(ctx, req)
	require.ErrorIs(t, err, ErrInsufficientCustomers)
	assert.False(t, second.GeneratorCreated)
	assert.Equal(t, first.ExperimentGenerator.ID, second.ExperimentGenerator.ID)
	require.Len(t, second.Rounds, 1, "four customers are left for the second call")

	customers, err := e.Collection(ctx, models.CollectionCustomers)
	require.NoError(t, err)
	for _, c := range customers {
		assert.LessOrEqual(t, len(assignmentsFor(t, store, c.ID, first.ExperimentGenerator.ID)), 1)
	}

	_, err = e.FullExperimentalSetup(ctx, req)
	assert.ErrorIs(t, err, ErrInsufficientCustomers, "every customer is assigned under this generator")
}

func TestFullExperimentalSetupSharedContactAssignsPooledDocument(t *testing.T) {
	e, store, ids := setupFixture(t, 0)
	ctx := context.Background()
	req := SetupRequest{
		VariableGeneratorIDs: ids,
		Trials:               1,
		Rounds:               1,
		Platform:             models.PlatformEmail,
		Country:              "US",
	}

	addShared := func(name string) string {
		c := models.Customer{FirstName: name, Email: "dup@example.com", Country: "US"}
		c.RefreshFlags()
		doc, err := store.Add(ctx, models.CollectionCustomers, c.Fields())
		require.NoError(t, err)
		return doc.ID
	}

	firstID := addShared("First")
	first, err := e.FullExperimentalSetup(ctx, req)
	require.NoError(t, err)
	egID := first.ExperimentGenerator.ID
	require.Len(t, assignmentsFor(t, store, firstID, egID), 1)

	secondID := addShared("Second")
	second, err := e.FullExperimentalSetup(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.Rounds, 1)
	require.Len(t, second.Rounds[0].Assigned, 1)
	assert.Equal(t, secondID, second.Rounds[0].Assigned[0].DocID)

	assert.Len(t, assignmentsFor(t, store, firstID, egID), 1)
	assert.Len(t, assignmentsFor(t, store, secondID, egID), 1)
}

func TestFullExperimentalSetupMissingCountry(t *testing.T) {
	e, store, ids := setupFixture(t, 3)
	before := store.writes.Load()

	result, err := e.FullExperimentalSetup(context.Background(), SetupRequest{
		VariableGeneratorIDs: ids, Trials: 1, Rounds: 1, Platform: models.PlatformEmail, Country: "  ",
	})
	assert.ErrorIs(t, err, ErrMissingCountry)
	assert.Nil(t, result)
	assert.Equal(t, before, store.writes.Load())
}

func TestFullExperimentalSetupInvalidRequest(t *testing.T) {
	e, _, ids := setupFixture(t, 3)

	tests := []struct {
		name string
		req  SetupRequest
	}{
		{"bad platform", SetupRequest{VariableGeneratorIDs: ids, Trials: 1, Rounds: 1, Platform: "Fax", Country: "US"}},
		{"zero trials", SetupRequest{VariableGeneratorIDs: ids, Trials: 0, Rounds: 1, Platform: models.PlatformEmail, Country: "US"}},
		{"zero rounds", SetupRequest{VariableGeneratorIDs: ids, Trials: 1, Rounds: 0, Platform: models.PlatformEmail, Country: "US"}},
		{"no generators", SetupRequest{Trials: 1, Rounds: 1, Platform: models.PlatformEmail, Country: "US"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.FullExperimentalSetup(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestFullExperimentalSetupEmptyPoolWritesNothing(t *testing.T) {
	e, store, ids := setupFixture(t, 3)
	before := store.writes.Load()

	result, err := e.FullExperimentalSetup(context.Background(), SetupRequest{
		VariableGeneratorIDs: ids, Trials: 1, Rounds: 1, Platform: models.PlatformEmail, Country: "NZ",
	})
	assert.ErrorIs(t, err, ErrInsufficientCustomers)
	assert.Nil(t, result)
	assert.Equal(t, before, store.writes.Load())

	n, err := e.CountRecords(context.Background(), models.CollectionExperimentGenerators)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFullExperimentalSetupInvalidComposition(t *testing.T) {
	e, _, ids := setupFixture(t, 3)

	_, err := e.FullExperimentalSetup(context.Background(), SetupRequest{
		VariableGeneratorIDs: []int64{ids[0], 404}, Trials: 1, Rounds: 1, Platform: models.PlatformEmail, Country: "US",
	})
	assert.ErrorIs(t, err, ErrInvalidGeneratorComposition)
}

func TestFullExperimentalSetupPhoneQueuesTasks(t *testing.T) {
	e, _, ids := setupFixture(t, 4)
	ctx := context.Background()

	result, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 2, Rounds: 2, Platform: models.PlatformPhone, Country: "US", OwnerEmail: testOwner,
	})
	require.NoError(t, err)
	require.Len(t, result.Rounds, 2)

	tasks, err := e.Agenda(ctx, testOwner, "")
	require.NoError(t, err)
	assert.Len(t, tasks, 8, "two arms for each of four customers")
}

func TestFullExperimentalSetupEmailQueuesNoTasks(t *testing.T) {
	e, _, ids := setupFixture(t, 4)
	ctx := context.Background()

	_, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 2, Rounds: 1, Platform: models.PlatformEmail, Country: "US", OwnerEmail: testOwner,
	})
	require.NoError(t, err)

	tasks, err := e.Agenda(ctx, testOwner, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestFullExperimentalSetupCanceled(t *testing.T) {
	e, _, ids := setupFixture(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 2, Rounds: 1, Platform: models.PlatformEmail, Country: "US",
	})
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingRecorder struct {
	nopRecorder
	outcomes []string
	assigned int
}

func (r *recordingRecorder) SetupFinished(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingRecorder) RoundCommitted(_ models.Platform, n int) {
	r.assigned += n
}

func TestFullExperimentalSetupRecordsOutcome(t *testing.T) {
	e, _, ids := setupFixture(t, 6)
	rec := &recordingRecorder{}
	e.recorder = rec
	ctx := context.Background()

	_, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 3, Rounds: 3, Platform: models.PlatformEmail, Country: "US",
	})
	require.ErrorIs(t, err, ErrInsufficientCustomers)

	_, err = e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 1, Rounds: 1, Platform: models.PlatformEmail, Country: "",
	})
	require.ErrorIs(t, err, ErrMissingCountry)

	assert.Equal(t, []string{OutcomePartial, OutcomeFailed}, rec.outcomes)
	assert.Equal(t, 6, rec.assigned)
}
