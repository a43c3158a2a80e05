// ABOUTME: Variable generator and variable creation with per-generator uniqueness
// ABOUTME: Allocates global generator ids, per-identity version ids, and per-generator variable ids
package campaign

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

// CreateVariableGenerator stores a new version of the (phase, product, owner,
// platform) bucket. Its id is global; its version counts within the identity.
func (e *Engine) CreateVariableGenerator(ctx context.Context, phase, product, ownerEmail string, platform models.Platform) (*models.VariableGenerator, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidRequest, platform)
	}

	var created models.VariableGenerator
	err := e.store.RunTransaction(ctx, func(tx db.Tx) error {
		all, err := tx.Query(models.CollectionVariableGenerators)
		if err != nil {
			return err
		}
		id, err := nextID(tx, models.CollectionVariableGenerators, all, models.FieldVariableGeneratorID)
		if err != nil {
			return err
		}

		same, err := tx.Query(models.CollectionVariableGenerators,
			db.Eq(models.FieldPhase, phase),
			db.Eq(models.FieldProduct, product),
			db.Eq(models.FieldOwnerEmail, ownerEmail),
			db.Eq(models.FieldPlatform, string(platform)),
		)
		if err != nil {
			return err
		}
		version, err := nextID(tx, "versions-"+hashKey(phase, product, ownerEmail, string(platform)), same, models.FieldVersionID)
		if err != nil {
			return err
		}

		created = models.VariableGenerator{
			ID:         id,
			VersionID:  version,
			Phase:      phase,
			Product:    product,
			OwnerEmail: ownerEmail,
			Platform:   platform,
		}
		return tx.Set(db.NewDocPath(models.CollectionVariableGenerators), created.Fields())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create variable generator: %w", err)
	}

	e.log.Info("variable generator created", "variable_generator_id", created.ID, "version_id", created.VersionID, "phase", phase)
	return &created, nil
}

// CreateVariable stores a variant under generatorID unless it duplicates the
// existing ones. Populated slots are checked in order A..E and checking stops
// at the first slot whose content no existing variable shares; the variant is
// accepted when such a slot was found. The first variable of a generator is
// always accepted. A rejection returns (nil, false, nil) and consumes no id.
// A novel early slot is enough: novel A with a duplicate B is accepted, where a
// rule letting only the last populated slot decide would reject it.
func (e *Engine) CreateVariable(ctx context.Context, generatorID int64, painPoint string, content models.Content) (*models.Variable, bool, error) {
	var created *models.Variable
	err := e.store.RunTransaction(ctx, func(tx db.Tx) error {
		created = nil

		existing, err := tx.Query(models.CollectionVariables, db.Eq(models.FieldVariableGeneratorID, generatorID))
		if err != nil {
			return err
		}
		if len(existing) > 0 && !hasNovelSlot(existing, content) {
			return nil
		}

		id, err := nextID(tx, "variables-"+strconv.FormatInt(generatorID, 10), existing, models.FieldVariableID)
		if err != nil {
			return err
		}

		v := models.Variable{
			ID:          id,
			GeneratorID: generatorID,
			PainPoint:   painPoint,
			Content:     content,
		}
		if err := tx.Set(db.NewDocPath(models.CollectionVariables), v.Fields()); err != nil {
			return err
		}
		created = &v
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create variable: %w", err)
	}

	if created == nil {
		e.log.Debug("variable rejected as duplicate", "variable_generator_id", generatorID)
		return nil, false, nil
	}
	return created, true, nil
}

func hasNovelSlot(existing []db.Doc, content models.Content) bool {
	unique := false
	for _, s := range models.Slots {
		if unique || !content.Populated(s) {
			continue
		}
		unique = true
		for _, d := range existing {
			if models.Str(d.Fields, s.FieldName()) == content[s] {
				unique = false
				break
			}
		}
	}
	return unique
}

// VariableGenerator returns the generator with id, or db.ErrNotFound.
func (e *Engine) VariableGenerator(ctx context.Context, id int64) (*models.VariableGenerator, error) {
	docs, err := e.store.Query(ctx, models.CollectionVariableGenerators, db.Eq(models.FieldVariableGeneratorID, id))
	if err != nil {
		return nil, err
	}
	doc := firstDoc(docs)
	if doc == nil {
		return nil, fmt.Errorf("variable generator %d: %w", id, db.ErrNotFound)
	}
	g := models.VariableGeneratorFromFields(doc.Fields)
	return &g, nil
}
