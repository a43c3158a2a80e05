// ABOUTME: Tests for listings, outbound contacts, the agenda, and event recording
// ABOUTME: Uses a full setup as fixture so queries run against realistic documents
package campaign

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

func TestListVariableGeneratorsFilters(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	seedGenerator(t, e, "Phase 1", models.PlatformEmail, 1)
	seedGenerator(t, e, "Phase 2", models.PlatformEmail, 1)
	seedGenerator(t, e, "Phase 1", models.PlatformPhone, 1)
	_, err := e.CreateVariableGenerator(ctx, "Phase 1", "CRM", "someone@example.com", models.PlatformEmail)
	require.NoError(t, err)

	all, err := e.ListVariableGenerators(ctx, testOwner, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	email, err := e.ListVariableGenerators(ctx, testOwner, models.PlatformEmail, "")
	require.NoError(t, err)
	assert.Len(t, email, 2)

	phase, err := e.ListVariableGenerators(ctx, testOwner, models.PlatformEmail, "Phase 2")
	require.NoError(t, err)
	require.Len(t, phase, 1)
	assert.Equal(t, "Phase 2", phase[0].Phase)
}

func TestGetExperimentsJoinsContent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	eg := resolvedGenerator(t, e, 1)
	_, _, err := e.ResolveExperiment(ctx, eg, VariableBank{{1}, {1}}, testOwner)
	require.NoError(t, err)

	views, err := e.GetExperiments(ctx, testOwner, []int64{eg.ID, 999})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(1), views[0].ID)
	require.Len(t, views[0].Content, 2)
	assert.Equal(t, "Phase 2 pain 1", views[0].Content[1][models.SlotA])

	others, err := e.GetExperiments(ctx, "other@example.com", []int64{eg.ID})
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestOutboundContacts(t *testing.T) {
	e, _, ids := setupFixture(t, 6)
	ctx := context.Background()

	result, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 2, Rounds: 2, Platform: models.PlatformEmail, Country: "US",
	})
	require.NoError(t, err)

	contacts, err := e.OutboundContacts(ctx, []int64{result.ExperimentGenerator.ID})
	require.NoError(t, err)
	assert.Len(t, contacts, 4)
	for _, c := range contacts {
		assert.NotEmpty(t, c.Customer.Email)
		assert.Equal(t, result.ExperimentGenerator.ID, c.Assignment.ExperimentGeneratorID)
		require.Len(t, c.Assignment.ArmContent, 2)
		assert.NotEmpty(t, c.Assignment.ArmContent[0][models.SlotA])
	}

	none, err := e.OutboundContacts(ctx, []int64{12345})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListCustomersInactiveOnly(t *testing.T) {
	e, _, ids := setupFixture(t, 5)
	ctx := context.Background()

	_, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 2, Rounds: 1, Platform: models.PlatformEmail, Country: "US",
	})
	require.NoError(t, err)

	all, err := e.ListCustomers(ctx, CustomerFilter{Platform: models.PlatformEmail, Country: "US"})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	inactive, err := e.ListCustomers(ctx, CustomerFilter{Platform: models.PlatformEmail, InactiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, inactive, 3)

	phoneInactive, err := e.ListCustomers(ctx, CustomerFilter{Platform: models.PlatformPhone, InactiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, phoneInactive, 5, "email assignments do not make a customer active on phone")

	ctos, err := e.ListCustomers(ctx, CustomerFilter{Role: "CTO"})
	require.NoError(t, err)
	assert.Len(t, ctos, 5)

	_, err = e.ListCustomers(ctx, CustomerFilter{Platform: "Fax"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSubmitEventUpdatesCounters(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	eg := resolvedGenerator(t, e, 1)
	exp, _, err := e.ResolveExperiment(ctx, eg, VariableBank{{1}, {1}}, testOwner)
	require.NoError(t, err)

	for _, success := range []bool{true, false, true} {
		_, err := e.SubmitEvent(ctx, models.Event{
			Platform:              models.PlatformEmail,
			OwnerEmail:            testOwner,
			CustomerEmail:         "c0@example.com",
			ExperimentID:          exp.ID,
			ExperimentGeneratorID: eg.ID,
			Success:               success,
		})
		require.NoError(t, err)
	}

	views, err := e.GetExperiments(ctx, testOwner, []int64{eg.ID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(3), views[0].Trials)
	assert.Equal(t, int64(2), views[0].Successes)

	vars, err := e.ListVariables(ctx, eg.VariableGeneratorIDs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(3), vars[0].Trials)
	assert.Equal(t, int64(2), vars[0].Successes)

	events, err := e.ListEvents(ctx, models.PlatformEmail)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.NotEmpty(t, events[0].RecordedAt)
}

func TestSubmitEventWithoutExperiment(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	ev, err := e.SubmitEvent(ctx, models.Event{
		Platform: models.PlatformLinkedIn,
		Status:   "connected",
		Extra:    map[string]any{"profile": "https://linkedin.com/in/x"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.DocID)
	assert.Equal(t, "connected", ev.Status)
	assert.Equal(t, "https://linkedin.com/in/x", ev.Extra["profile"])

	_, err = e.SubmitEvent(ctx, models.Event{ExperimentID: 5, ExperimentGeneratorID: 5})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCompleteTask(t *testing.T) {
	e, _, ids := setupFixture(t, 2)
	ctx := context.Background()

	_, err := e.FullExperimentalSetup(ctx, SetupRequest{
		VariableGeneratorIDs: ids, Trials: 2, Rounds: 1, Platform: models.PlatformPhone, Country: "US", OwnerEmail: testOwner,
	})
	require.NoError(t, err)

	tasks, err := e.Agenda(ctx, testOwner, models.PlatformPhone)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	target := tasks[0]

	done, err := e.CompleteTask(ctx, testOwner, TaskMatch{
		Platform:    models.PlatformPhone,
		PhoneNumber: target.Customer.PhoneNumber,
		SequenceIdx: strconv.Itoa(target.SequenceIdx),
	}, &models.Event{
		Platform:              models.PlatformPhone,
		OwnerEmail:            testOwner,
		PhoneNumber:           target.Customer.PhoneNumber,
		SequenceIdx:           strconv.Itoa(target.SequenceIdx),
		Status:                "called",
		ExperimentID:          target.ExperimentID,
		ExperimentGeneratorID: target.ExperimentGeneratorID,
		Success:               true,
	})
	require.NoError(t, err)
	assert.Equal(t, target.SequenceIdx, done.SequenceIdx)
	assert.Equal(t, target.Customer.PhoneNumber, done.Customer.PhoneNumber)

	left, err := e.Agenda(ctx, testOwner, "")
	require.NoError(t, err)
	assert.Len(t, left, 3)

	events, err := e.ListEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "called", events[0].Status)

	views, err := e.GetExperiments(ctx, testOwner, []int64{target.ExperimentGeneratorID})
	require.NoError(t, err)
	var trials int64
	for _, v := range views {
		trials += v.Trials
	}
	assert.Equal(t, int64(1), trials)

	// A bare outcome picks up the task's experiment and contact.
	next := left[0]
	bare := &models.Event{Status: "no answer"}
	_, err = e.CompleteTask(ctx, testOwner, TaskMatch{
		PhoneNumber: next.Customer.PhoneNumber,
		SequenceIdx: strconv.Itoa(next.SequenceIdx),
	}, bare)
	require.NoError(t, err)
	assert.Equal(t, next.ExperimentID, bare.ExperimentID)
	assert.Equal(t, next.ExperimentGeneratorID, bare.ExperimentGeneratorID)
	assert.Equal(t, models.PlatformPhone, bare.Platform)
	assert.Equal(t, testOwner, bare.OwnerEmail)
	assert.Equal(t, next.Customer.PhoneNumber, bare.PhoneNumber)

	_, err = e.CompleteTask(ctx, testOwner, TaskMatch{PhoneNumber: "nobody"}, nil)
	assert.True(t, IsNotFound(err))

	_, err = e.CompleteTask(ctx, "stranger@example.com", TaskMatch{}, nil)
	assert.True(t, IsNotFound(err))
}

func TestCompleteTaskKeepsTaskWhenCountersFail(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	batch := db.NewBatch(store)
	agenda, err := e.agendaPath(ctx, batch, testOwner)
	require.NoError(t, err)
	orphan := models.Task{
		SequenceIdx:           1,
		Platform:              models.PlatformPhone,
		OwnerEmail:            testOwner,
		ExperimentID:          9,
		ExperimentGeneratorID: 9,
		Customer:              models.Customer{PhoneNumber: "+15550001111"},
	}
	batch.Set(db.Join(agenda, "task-1"), orphan.Fields())
	require.NoError(t, batch.Commit(ctx))

	match := TaskMatch{PhoneNumber: "+15550001111"}
	_, err = e.CompleteTask(ctx, testOwner, match, &models.Event{Status: "called", Success: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)

	tasks, err := e.Agenda(ctx, testOwner, "")
	require.NoError(t, err)
	assert.Len(t, tasks, 1, "task must stay queued")
	events, err := e.ListEvents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, events)

	// Without an experiment reference the same task completes.
	done, err := e.CompleteTask(ctx, testOwner, match, nil)
	require.NoError(t, err)
	assert.Equal(t, "task-1", done.DocID)
}

func TestAgendaUnknownOwner(t *testing.T) {
	e, _ := newTestEngine(t)
	tasks, err := e.Agenda(context.Background(), "nobody@example.com", "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStatistics(t *testing.T) {
	e, _, _ := setupFixture(t, 4)

	stats, err := e.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats[models.CollectionCustomers])
	assert.Equal(t, 2, stats[models.CollectionVariableGenerators])
	assert.Equal(t, 6, stats[models.CollectionVariables])
	assert.Equal(t, 0, stats[models.CollectionExperiments])

	_, err = e.Collection(context.Background(), "customers/x")
	assert.ErrorIs(t, err, db.ErrInvalidPath)
}
