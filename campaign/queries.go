// ABOUTME: Read paths and the event-recording path around the assignment engine
// ABOUTME: Listings, experiment content joins, outbound contacts, the agenda, and event counters
package campaign

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

// ListVariableGenerators filters by owner; empty platform or phase match everything.
func (e *Engine) ListVariableGenerators(ctx context.Context, ownerEmail string, platform models.Platform, phase string) ([]models.VariableGenerator, error) {
	filters := []db.Filter{db.Eq(models.FieldOwnerEmail, ownerEmail)}
	if platform != "" {
		filters = append(filters, db.Eq(models.FieldPlatform, string(platform)))
	}
	if phase != "" {
		filters = append(filters, db.Eq(models.FieldPhase, phase))
	}

	docs, err := e.store.Query(ctx, models.CollectionVariableGenerators, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list variable generators: %w", err)
	}
	out := make([]models.VariableGenerator, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.VariableGeneratorFromFields(d.Fields))
	}
	return out, nil
}

func (e *Engine) ListVariables(ctx context.Context, generatorID int64) ([]models.Variable, error) {
	docs, err := e.store.Query(ctx, models.CollectionVariables, db.Eq(models.FieldVariableGeneratorID, generatorID))
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	out := make([]models.Variable, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.VariableFromFields(d.Fields))
	}
	return out, nil
}

// ListExperimentGenerators filters by owner and platform; empty values match everything.
func (e *Engine) ListExperimentGenerators(ctx context.Context, ownerEmail string, platform models.Platform) ([]models.ExperimentGenerator, error) {
	var filters []db.Filter
	if ownerEmail != "" {
		filters = append(filters, db.Eq(models.FieldOwnerEmail, ownerEmail))
	}
	if platform != "" {
		filters = append(filters, db.Eq(models.FieldPlatform, string(platform)))
	}

	docs, err := e.store.Query(ctx, models.CollectionExperimentGenerators, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiment generators: %w", err)
	}
	out := make([]models.ExperimentGenerator, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.ExperimentGeneratorFromFields(d.Fields))
	}
	return out, nil
}

// ExperimentView is an experiment joined with the content of each arm.
type ExperimentView struct {
	models.Experiment
	Content []models.Content `json:"content"`
}

// GetExperiments returns the owner's experiments under each generator, in
// the order the generator ids were given.
func (e *Engine) GetExperiments(ctx context.Context, ownerEmail string, generatorIDs []int64) ([]ExperimentView, error) {
	var out []ExperimentView
	for _, egID := range generatorIDs {
		docs, err := e.store.Query(ctx, models.CollectionExperiments,
			db.Eq(models.FieldOwnerEmail, ownerEmail),
			db.Eq(models.FieldExperimentGeneratorID, egID),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list experiments: %w", err)
		}
		for _, d := range docs {
			exp := models.ExperimentFromFields(d.Fields)
			content, err := e.ExperimentContent(ctx, &exp)
			if err != nil {
				return nil, err
			}
			out = append(out, ExperimentView{Experiment: exp, Content: content})
		}
	}
	return out, nil
}

// OutboundContact pairs a customer with one of its assignment records.
type OutboundContact struct {
	Customer   models.Customer   `json:"customer"`
	Assignment models.Assignment `json:"assignment"`
}

// OutboundContacts lists every assignment under the given generators with its customer.
func (e *Engine) OutboundContacts(ctx context.Context, generatorIDs []int64) ([]OutboundContact, error) {
	customers, err := e.store.Query(ctx, models.CollectionCustomers)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	var out []OutboundContact
	for _, egID := range generatorIDs {
		for _, c := range customers {
			assignments, err := e.store.Query(ctx, db.Join(c.Path, models.SubcollectionAssignments),
				db.Eq(models.FieldExperimentGeneratorID, egID))
			if err != nil {
				return nil, fmt.Errorf("failed to list assignments of %s: %w", c.ID, err)
			}
			for _, a := range assignments {
				out = append(out, OutboundContact{
					Customer:   models.CustomerFromFields(c.ID, c.Fields),
					Assignment: models.AssignmentFromFields(a.ID, a.Fields),
				})
			}
		}
	}
	return out, nil
}

// Agenda lists the owner's queued tasks, optionally for one platform. An
// owner without a user document has an empty agenda.
func (e *Engine) Agenda(ctx context.Context, ownerEmail string, platform models.Platform) ([]models.Task, error) {
	user, err := e.findUser(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	if user == "" {
		return []models.Task{}, nil
	}

	var filters []db.Filter
	if platform != "" {
		filters = append(filters, db.Eq(models.FieldPlatform, string(platform)))
	}
	docs, err := e.store.Query(ctx, db.Join(user, models.SubcollectionAgenda), filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list agenda: %w", err)
	}
	tasks := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, models.TaskFromFields(d.ID, d.Fields))
	}
	return tasks, nil
}

// TaskMatch selects an agenda task; empty fields match anything.
type TaskMatch struct {
	Platform    models.Platform `json:"platform,omitempty"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Email       string          `json:"email,omitempty"`
	SequenceIdx string          `json:"sequence_idx,omitempty"`
}

func (m TaskMatch) filters() []db.Filter {
	var filters []db.Filter
	add := func(field, value string) {
		if value != "" {
			filters = append(filters, db.Eq(field, value))
		}
	}
	add(models.FieldPlatform, string(m.Platform))
	add(models.FieldPhoneNumber, m.PhoneNumber)
	add(models.FieldEmail, m.Email)
	add(models.FieldSequenceIdx, m.SequenceIdx)
	return filters
}

// CompleteTask removes the first task matching m from the owner's agenda and
// stores event alongside it. Event fields left empty are taken from the task,
// so callers usually set only Status and Success. The delete, the event and the
// experiment counters share one transaction: when any of them fails the task
// stays queued and nothing is recorded.
func (e *Engine) CompleteTask(ctx context.Context, ownerEmail string, m TaskMatch, event *models.Event) (*models.Task, error) {
	user, err := e.findUser(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	if user == "" {
		return nil, fmt.Errorf("no agenda for owner: %w", db.ErrNotFound)
	}

	agenda := db.Join(user, models.SubcollectionAgenda)
	eventPath := db.Join(models.CollectionEvents, ulid.Make().String())

	var task models.Task
	err = e.store.RunTransaction(ctx, func(tx db.Tx) error {
		docs, err := tx.Query(agenda, m.filters()...)
		if err != nil {
			return fmt.Errorf("failed to find task: %w", err)
		}
		doc := firstDoc(docs)
		if doc == nil {
			return fmt.Errorf("no matching task: %w", db.ErrNotFound)
		}
		task = models.TaskFromFields(doc.ID, doc.Fields)

		if err := tx.Delete(doc.Path); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		if event == nil {
			return nil
		}

		recorded := *event
		fillEvent(&recorded, task, ownerEmail)
		if err := tx.Set(eventPath, eventFields(recorded)); err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
		if recorded.ExperimentID != 0 && recorded.ExperimentGeneratorID != 0 {
			if err := incrementCounters(tx, recorded); err != nil {
				return fmt.Errorf("failed to update experiment counters: %w", err)
			}
		}
		*event = recorded
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("task completed", "task_id", task.DocID, "sequence_idx", task.SequenceIdx)
	return &task, nil
}

// SubmitEvent stores event and, when it names an experiment, counts a trial
// (and a success) on the experiment and its arms' variables in the same transaction.
func (e *Engine) SubmitEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	path := db.Join(models.CollectionEvents, ulid.Make().String())

	err := e.store.RunTransaction(ctx, func(tx db.Tx) error {
		if err := tx.Set(path, eventFields(event)); err != nil {
			return err
		}
		if event.ExperimentID == 0 || event.ExperimentGeneratorID == 0 {
			return nil
		}
		return incrementCounters(tx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit event: %w", err)
	}

	doc, err := e.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	stored := models.EventFromFields(doc.ID, doc.Fields)
	return &stored, nil
}

func fillEvent(event *models.Event, t models.Task, ownerEmail string) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	if event.Platform == "" {
		event.Platform = t.Platform
	}
	fill(&event.OwnerEmail, ownerEmail)
	fill(&event.Email, t.Customer.Email)
	fill(&event.PhoneNumber, t.Customer.PhoneNumber)
	fill(&event.LinkedInURL, t.Customer.LinkedInURL)
	fill(&event.SequenceIdx, strconv.Itoa(t.SequenceIdx))
	if event.ExperimentID == 0 {
		event.ExperimentID = t.ExperimentID
	}
	if event.ExperimentGeneratorID == 0 {
		event.ExperimentGeneratorID = t.ExperimentGeneratorID
	}
}

func eventFields(event models.Event) map[string]any {
	fields := event.Fields()
	fields[models.FieldRecordedAt] = db.ServerTimestamp
	return fields
}

func incrementCounters(tx db.Tx, event models.Event) error {
	docs, err := tx.Query(models.CollectionExperiments,
		db.Eq(models.FieldOwnerEmail, event.OwnerEmail),
		db.Eq(models.FieldExperimentGeneratorID, event.ExperimentGeneratorID),
		db.Eq(models.FieldExperimentID, event.ExperimentID),
	)
	if err != nil {
		return err
	}
	doc := firstDoc(docs)
	if doc == nil {
		return fmt.Errorf("experiment %d of generator %d: %w", event.ExperimentID, event.ExperimentGeneratorID, db.ErrNotFound)
	}
	if err := tx.Set(doc.Path, bump(doc.Fields, event.Success)); err != nil {
		return err
	}

	exp := models.ExperimentFromFields(doc.Fields)
	for _, arm := range exp.Arms {
		vars, err := tx.Query(models.CollectionVariables,
			db.Eq(models.FieldVariableGeneratorID, arm.VariableGeneratorID),
			db.Eq(models.FieldVariableID, arm.VariableID),
		)
		if err != nil {
			return err
		}
		if v := firstDoc(vars); v != nil {
			if err := tx.Set(v.Path, bump(v.Fields, event.Success)); err != nil {
				return err
			}
		}
	}
	return nil
}

func bump(fields map[string]any, success bool) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	out[models.FieldTrials] = models.Int(fields, models.FieldTrials) + 1
	if success {
		out[models.FieldSuccesses] = models.Int(fields, models.FieldSuccesses) + 1
	}
	return out
}

func (e *Engine) ListEvents(ctx context.Context, platform models.Platform) ([]models.Event, error) {
	var filters []db.Filter
	if platform != "" {
		filters = append(filters, db.Eq(models.FieldPlatform, string(platform)))
	}
	docs, err := e.store.Query(ctx, models.CollectionEvents, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	out := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.EventFromFields(d.ID, d.Fields))
	}
	return out, nil
}

// CustomerFilter narrows ListCustomers; empty fields match everything.
// InactiveOnly keeps customers with no assignment on Platform (on any
// platform when Platform is empty).
type CustomerFilter struct {
	Role         string
	Platform     models.Platform
	Country      string
	InactiveOnly bool
}

func (e *Engine) ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, error) {
	var filters []db.Filter
	if f.Role != "" {
		filters = append(filters, db.Eq(models.FieldRole, f.Role))
	}
	if f.Country != "" {
		filters = append(filters, db.Eq(models.FieldCountry, f.Country))
	}
	if f.Platform != "" {
		if !f.Platform.Valid() {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidRequest, f.Platform)
		}
		filters = append(filters, db.Eq(f.Platform.FlagField(), true))
	}

	docs, err := e.store.Query(ctx, models.CollectionCustomers, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	out := make([]models.Customer, 0, len(docs))
	for _, d := range docs {
		if f.InactiveOnly {
			var sub []db.Filter
			if f.Platform != "" {
				sub = append(sub, db.Eq(models.FieldPlatform, string(f.Platform)))
			}
			assigned, err := e.store.Query(ctx, db.Join(d.Path, models.SubcollectionAssignments), sub...)
			if err != nil {
				return nil, fmt.Errorf("failed to list assignments of %s: %w", d.ID, err)
			}
			if len(assigned) > 0 {
				continue
			}
		}
		out = append(out, models.CustomerFromFields(d.ID, d.Fields))
	}
	return out, nil
}

// Collection dumps every document of a collection.
func (e *Engine) Collection(ctx context.Context, name string) ([]db.Doc, error) {
	docs, err := e.store.Query(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return docs, nil
}

func (e *Engine) CountRecords(ctx context.Context, name string) (int, error) {
	docs, err := e.Collection(ctx, name)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// StatisticsCollections are the collections Statistics counts.
var StatisticsCollections = []string{
	models.CollectionCustomers,
	models.CollectionVariableGenerators,
	models.CollectionVariables,
	models.CollectionExperimentGenerators,
	models.CollectionExperiments,
	models.CollectionEvents,
}

// Statistics counts the documents of every top-level collection.
func (e *Engine) Statistics(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(StatisticsCollections))
	for _, name := range StatisticsCollections {
		n, err := e.CountRecords(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

// IsNotFound reports whether err means a missing document or task.
func IsNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound) || errors.Is(err, ErrCustomerNotFound)
}
