// ABOUTME: Writes one round of assignments and the optional agenda fan-out in a single batch
// ABOUTME: Joins experiment content once per round and skips customers whose documents have gone stale
package campaign

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

// RoundResult describes one committed round.
type RoundResult struct {
	Experiment        models.Experiment `json:"experiment"`
	ExperimentCreated bool              `json:"experimentCreated"`
	Assigned          []models.Customer `json:"assigned"`
	Skipped           []string          `json:"skipped,omitempty"`
	Tasks             int               `json:"tasks"`
}

// AssignRound records exp for every customer that still resolves by contact
// key and, when ownerEmail is set, queues one agenda task per arm per
// customer. Everything lands in one atomic commit. Customers already holding
// an assignment under the experiment's generator are skipped, so calling it
// again after a successful commit assigns nobody twice.
func (e *Engine) AssignRound(ctx context.Context, exp *models.Experiment, customers []models.Customer, platform models.Platform, ownerEmail string) (*RoundResult, error) {
	content, err := e.ExperimentContent(ctx, exp)
	if err != nil {
		return nil, err
	}

	batch := db.NewBatch(e.store)
	result := &RoundResult{Experiment: *exp}

	var agenda string
	if ownerEmail != "" {
		agenda, err = e.agendaPath(ctx, batch, ownerEmail)
		if err != nil {
			return nil, err
		}
	}

	for _, c := range customers {
		key := c.ContactKey(platform)
		doc, err := e.lookupCustomer(ctx, c, platform, exp.ExperimentGeneratorID)
		if errors.Is(err, ErrCustomerNotFound) {
			e.log.Warn("skipping customer", "error", err, "platform", string(platform), "contact", key)
			e.recorder.CustomerSkipped(platform)
			result.Skipped = append(result.Skipped, key)
			continue
		}
		if err != nil {
			return nil, err
		}

		assignment := models.Assignment{
			ExperimentID:          exp.ID,
			ExperimentGeneratorID: exp.ExperimentGeneratorID,
			OwnerEmail:            ownerEmail,
			Platform:              platform,
			Status:                models.StatusActive,
			Arms:                  exp.Arms,
			ArmContent:            content,
		}
		fields := assignment.Fields()
		fields[models.FieldAssignedAt] = db.ServerTimestamp
		batch.Merge(db.Join(doc.Path, models.SubcollectionAssignments, uuid.New().String()), fields)

		stored := models.CustomerFromFields(doc.ID, doc.Fields)
		result.Assigned = append(result.Assigned, stored)

		if agenda == "" {
			continue
		}
		for i, arm := range exp.Arms {
			task := models.Task{
				SequenceIdx:           i + 1,
				Platform:              platform,
				OwnerEmail:            ownerEmail,
				ExperimentID:          exp.ID,
				ExperimentGeneratorID: exp.ExperimentGeneratorID,
				Arm:                   arm,
				Content:               content[i],
				Customer:              stored,
			}
			batch.Set(db.Join(agenda, ulid.Make().String()), task.Fields())
			result.Tasks++
		}
	}

	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit round: %w", err)
	}

	e.recorder.RoundCommitted(platform, len(result.Assigned))
	e.log.Info("round committed",
		"experiment_generator_id", exp.ExperimentGeneratorID,
		"experiment_id", exp.ID,
		"assigned", len(result.Assigned),
		"skipped", len(result.Skipped),
		"tasks", result.Tasks,
	)
	return result, nil
}

// ExperimentContent joins every arm with its variable's content slots.
func (e *Engine) ExperimentContent(ctx context.Context, exp *models.Experiment) ([]models.Content, error) {
	content := make([]models.Content, len(exp.Arms))
	for i, arm := range exp.Arms {
		docs, err := e.store.Query(ctx, models.CollectionVariables,
			db.Eq(models.FieldVariableGeneratorID, arm.VariableGeneratorID),
			db.Eq(models.FieldVariableID, arm.VariableID),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load content of arm %d: %w", i+1, err)
		}
		doc := firstDoc(docs)
		if doc == nil {
			return nil, fmt.Errorf("variable %d of generator %d: %w", arm.VariableID, arm.VariableGeneratorID, db.ErrNotFound)
		}
		content[i] = models.ContentFromFields(doc.Fields)
	}
	return content, nil
}

// lookupCustomer returns the stored document of c by its contact key. When c
// carries a document id only that document qualifies, since several customers
// may share a contact. Candidates already assigned under generatorID are
// passed over.
func (e *Engine) lookupCustomer(ctx context.Context, c models.Customer, platform models.Platform, generatorID int64) (*db.Doc, error) {
	key := c.ContactKey(platform)
	if key == "" {
		return nil, fmt.Errorf("%w: empty contact key", ErrCustomerNotFound)
	}
	field := platform.ContactField()
	docs, err := e.store.Query(ctx, models.CollectionCustomers, db.Eq(field, key))
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}

	taken := ""
	for i := range docs {
		doc := &docs[i]
		if c.DocID != "" && doc.ID != c.DocID {
			continue
		}
		assigned, err := e.store.Query(ctx, db.Join(doc.Path, models.SubcollectionAssignments),
			db.Eq(models.FieldExperimentGeneratorID, generatorID))
		if err != nil {
			return nil, fmt.Errorf("failed to query assignments of %s: %w", doc.ID, err)
		}
		if len(assigned) > 0 {
			taken = doc.ID
			continue
		}
		return doc, nil
	}
	if taken != "" {
		return nil, fmt.Errorf("%w: customer %s already assigned under generator %d", ErrCustomerNotFound, taken, generatorID)
	}
	return nil, fmt.Errorf("%w: no customer with %s", ErrCustomerNotFound, field)
}

// agendaPath returns the agenda collection of the owner's user document,
// adding the user to batch when it does not exist yet.
func (e *Engine) agendaPath(ctx context.Context, batch *db.Batch, ownerEmail string) (string, error) {
	user, err := e.findUser(ctx, ownerEmail)
	if err != nil {
		return "", err
	}
	if user == "" {
		user = db.NewDocPath(models.CollectionUsers)
		batch.Set(user, map[string]any{
			models.FieldEmail: ownerEmail,
			"createdAt":       db.ServerTimestamp,
		})
	}
	return db.Join(user, models.SubcollectionAgenda), nil
}

// findUser returns the path of the user document for email, or "".
func (e *Engine) findUser(ctx context.Context, email string) (string, error) {
	docs, err := e.store.Query(ctx, models.CollectionUsers, db.Eq(models.FieldEmail, email))
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if doc := firstDoc(docs); doc != nil {
		return doc.Path, nil
	}
	return "", nil
}
