// ABOUTME: Finds or creates experiment generators by their positional composition
// ABOUTME: A composition key document and an id counter keep concurrent creators from duplicating records
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

// ResolveExperimentGenerator returns the generator whose arms reference ids
// in exactly this order, creating it when none exists. Matching ignores the
// owner and platform of the stored record. created reports whether a record
// was written.
func (e *Engine) ResolveExperimentGenerator(ctx context.Context, ids []int64, platform models.Platform, ownerEmail string) (*models.ExperimentGenerator, bool, error) {
	if err := validateComposition(ids); err != nil {
		return nil, false, err
	}

	keyPath := db.Join(collectionExperimentGeneratorKey, generatorKey(ids))

	var (
		result  models.ExperimentGenerator
		created bool
	)
	err := e.store.RunTransaction(ctx, func(tx db.Tx) error {
		created = false

		found, err := findGenerator(tx, keyPath, ids)
		if err != nil {
			return err
		}
		if found != nil {
			result = *found
			return nil
		}

		for _, id := range ids {
			if err := checkGeneratorUsable(tx, id); err != nil {
				return err
			}
		}

		all, err := tx.Query(models.CollectionExperimentGenerators)
		if err != nil {
			return err
		}
		id, err := nextID(tx, models.CollectionExperimentGenerators, all, models.FieldExperimentGeneratorID)
		if err != nil {
			return err
		}

		result = models.ExperimentGenerator{
			ID:                   id,
			OwnerEmail:           ownerEmail,
			Platform:             platform,
			VariableGeneratorIDs: append([]int64(nil), ids...),
		}
		if err := tx.Set(db.NewDocPath(models.CollectionExperimentGenerators), result.Fields()); err != nil {
			return err
		}
		created = true
		return tx.Set(keyPath, map[string]any{models.FieldExperimentGeneratorID: id})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve experiment generator: %w", err)
	}

	e.recorder.GeneratorResolved(created)
	e.log.Info("experiment generator resolved",
		"experiment_generator_id", result.ID,
		"created", created,
		"composition", formatIDs(ids),
	)
	return &result, created, nil
}

// FindExperimentGenerator is the read-only lookup: nil when no generator has
// this composition.
func (e *Engine) FindExperimentGenerator(ctx context.Context, ids []int64) (*models.ExperimentGenerator, error) {
	if err := validateComposition(ids); err != nil {
		return nil, err
	}
	return findGenerator(e.reader(ctx), db.Join(collectionExperimentGeneratorKey, generatorKey(ids)), ids)
}

func findGenerator(r reader, keyPath string, ids []int64) (*models.ExperimentGenerator, error) {
	key, err := r.Get(keyPath)
	switch {
	case err == nil:
		docs, err := r.Query(models.CollectionExperimentGenerators,
			db.Eq(models.FieldExperimentGeneratorID, models.Int(key.Fields, models.FieldExperimentGeneratorID)))
		if err != nil {
			return nil, err
		}
		if doc := matchGenerator(docs, ids); doc != nil {
			return doc, nil
		}
	case !errors.Is(err, db.ErrNotFound):
		return nil, err
	}

	// Records written before key documents existed are still found by scanning.
	all, err := r.Query(models.CollectionExperimentGenerators)
	if err != nil {
		return nil, err
	}
	return matchGenerator(all, ids), nil
}

func matchGenerator(docs []db.Doc, ids []int64) *models.ExperimentGenerator {
	for _, d := range docs {
		if models.ArmCount(d.Fields) != len(ids) {
			continue
		}
		match := true
		for i, id := range ids {
			if models.Int(d.Fields, models.ArmGeneratorField(i+1)) != id {
				match = false
				break
			}
		}
		if match {
			g := models.ExperimentGeneratorFromFields(d.Fields)
			return &g
		}
	}
	return nil
}

func checkGeneratorUsable(r reader, id int64) error {
	gens, err := r.Query(models.CollectionVariableGenerators, db.Eq(models.FieldVariableGeneratorID, id))
	if err != nil {
		return err
	}
	if len(gens) == 0 {
		return fmt.Errorf("%w: variable generator %d does not exist", ErrInvalidGeneratorComposition, id)
	}

	vars, err := r.Query(models.CollectionVariables, db.Eq(models.FieldVariableGeneratorID, id))
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		return fmt.Errorf("%w: variable generator %d has no variables", ErrInvalidGeneratorComposition, id)
	}
	return nil
}

func validateComposition(ids []int64) error {
	if len(ids) == 0 || len(ids) > models.MaxArms {
		return fmt.Errorf("%w: need 1 to %d variable generators, got %d", ErrInvalidGeneratorComposition, models.MaxArms, len(ids))
	}
	return nil
}

func generatorKey(ids []int64) string {
	return hashKey("experimentGenerator", formatIDs(ids))
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
