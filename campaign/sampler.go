// ABOUTME: Draws a variable per arm and finds or creates the matching experiment
// ABOUTME: Experiments are scoped to an owner and generator and deduplicated by their arm combination
package campaign

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

// VariableBank holds, per arm position, the candidate variable ids of that
// arm's variable generator.
type VariableBank [][]int64

// BuildVariableBank reads the current variables of every arm's generator.
func (e *Engine) BuildVariableBank(ctx context.Context, eg *models.ExperimentGenerator) (VariableBank, error) {
	bank := make(VariableBank, len(eg.VariableGeneratorIDs))
	for i, genID := range eg.VariableGeneratorIDs {
		docs, err := e.store.Query(ctx, models.CollectionVariables, db.Eq(models.FieldVariableGeneratorID, genID))
		if err != nil {
			return nil, fmt.Errorf("failed to load variables of generator %d: %w", genID, err)
		}
		ids := make([]int64, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, models.Int(d.Fields, models.FieldVariableID))
		}
		bank[i] = ids
	}
	return bank, nil
}

// Draw picks one candidate per arm, independently and uniformly.
func (e *Engine) Draw(eg *models.ExperimentGenerator, bank VariableBank) ([]models.Arm, error) {
	if len(bank) != len(eg.VariableGeneratorIDs) {
		return nil, fmt.Errorf("%w: bank has %d arms, generator has %d", ErrEmptyVariableBank, len(bank), len(eg.VariableGeneratorIDs))
	}
	arms := make([]models.Arm, len(bank))
	for i, candidates := range bank {
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: arm %d (variable generator %d)", ErrEmptyVariableBank, i+1, eg.VariableGeneratorIDs[i])
		}
		arms[i] = models.Arm{
			VariableGeneratorID: eg.VariableGeneratorIDs[i],
			VariableID:          candidates[e.intn(len(candidates))],
		}
	}
	return arms, nil
}

// ResolveExperiment draws an arm combination from bank and returns the
// experiment holding it for (ownerEmail, eg), creating one when needed. An
// empty owner is a scope of its own.
func (e *Engine) ResolveExperiment(ctx context.Context, eg *models.ExperimentGenerator, bank VariableBank, ownerEmail string) (*models.Experiment, bool, error) {
	arms, err := e.Draw(eg, bank)
	if err != nil {
		return nil, false, err
	}
	return e.resolveArms(ctx, eg, arms, ownerEmail)
}

func (e *Engine) resolveArms(ctx context.Context, eg *models.ExperimentGenerator, arms []models.Arm, ownerEmail string) (*models.Experiment, bool, error) {
	scope := []db.Filter{
		db.Eq(models.FieldOwnerEmail, ownerEmail),
		db.Eq(models.FieldExperimentGeneratorID, eg.ID),
	}
	keyPath := db.Join(collectionExperimentKey, experimentKey(ownerEmail, eg.ID, arms))

	var (
		result  models.Experiment
		created bool
	)
	err := e.store.RunTransaction(ctx, func(tx db.Tx) error {
		created = false

		existing, err := tx.Query(models.CollectionExperiments, scope...)
		if err != nil {
			return err
		}

		key, err := tx.Get(keyPath)
		switch {
		case err == nil:
			want := models.Int(key.Fields, models.FieldExperimentID)
			for _, d := range existing {
				if models.Int(d.Fields, models.FieldExperimentID) == want {
					result = models.ExperimentFromFields(d.Fields)
					return nil
				}
			}
		case !errors.Is(err, db.ErrNotFound):
			return err
		}

		if found := matchExperiment(existing, arms); found != nil {
			result = *found
			return nil
		}

		id, err := nextID(tx, "experiments-"+hashKey(ownerEmail, strconv.FormatInt(eg.ID, 10)), existing, models.FieldExperimentID)
		if err != nil {
			return err
		}

		result = models.Experiment{
			ID:                    id,
			ExperimentGeneratorID: eg.ID,
			OwnerEmail:            ownerEmail,
			Platform:              eg.Platform,
			Arms:                  append([]models.Arm(nil), arms...),
		}
		if err := tx.Set(db.NewDocPath(models.CollectionExperiments), result.Fields()); err != nil {
			return err
		}
		created = true
		return tx.Set(keyPath, map[string]any{models.FieldExperimentID: id})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve experiment: %w", err)
	}

	e.recorder.ExperimentResolved(created)
	e.log.Debug("experiment resolved",
		"experiment_generator_id", eg.ID,
		"experiment_id", result.ID,
		"created", created,
	)
	return &result, created, nil
}

func matchExperiment(docs []db.Doc, arms []models.Arm) *models.Experiment {
	for _, d := range docs {
		if models.ArmCount(d.Fields) != len(arms) {
			continue
		}
		match := true
		for i, a := range arms {
			if models.Int(d.Fields, models.ArmGeneratorField(i+1)) != a.VariableGeneratorID ||
				models.Int(d.Fields, models.ArmVariableField(i+1)) != a.VariableID {
				match = false
				break
			}
		}
		if match {
			exp := models.ExperimentFromFields(d.Fields)
			return &exp
		}
	}
	return nil
}

func experimentKey(ownerEmail string, egID int64, arms []models.Arm) string {
	pairs := make([]string, len(arms))
	for i, a := range arms {
		pairs[i] = strconv.FormatInt(a.VariableGeneratorID, 10) + ":" + strconv.FormatInt(a.VariableID, 10)
	}
	return hashKey("experiment", ownerEmail, strconv.FormatInt(egID, 10), strings.Join(pairs, ","))
}
