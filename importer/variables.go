// ABOUTME: Variable upload: one variable generator per phase, one variable per row
// ABOUTME: Rows go through the engine's uniqueness check, so duplicates are counted, not stored
package importer

import (
	"context"
	"fmt"

	"github.com/harperreed/outbound/models"
)

const (
	columnPhase     = "Phase"
	columnPainPoint = "Pain Point"
)

// GeneratorImport is the outcome for one phase of an upload.
type GeneratorImport struct {
	Generator models.VariableGenerator `json:"generator"`
	Created   int                      `json:"created"`
	Rejected  int                      `json:"rejected"`
}

// ImportVariables creates a variable generator for each distinct phase, in
// first-seen order, and submits every row of that phase as a variable.
// contentA and contentB are always read; contentC..E only when the upload
// carries the column.
func (im *Importer) ImportVariables(ctx context.Context, table *Table, platform models.Platform, product, ownerEmail string) ([]GeneratorImport, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	if table.Has(indexColumn) {
		table.Drop(indexColumn)
	}
	if !table.Has(columnPhase) {
		return nil, fmt.Errorf("variable upload is missing column %q", columnPhase)
	}

	slots := []models.Slot{models.SlotA, models.SlotB}
	for _, s := range []models.Slot{models.SlotC, models.SlotD, models.SlotE} {
		if table.Has(s.FieldName()) {
			slots = append(slots, s)
		}
	}

	var phases []string
	byPhase := make(map[string][]Row)
	for _, r := range table.Rows {
		phase := r[columnPhase]
		if phase == "" {
			continue
		}
		if _, ok := byPhase[phase]; !ok {
			phases = append(phases, phase)
		}
		byPhase[phase] = append(byPhase[phase], r)
	}

	results := make([]GeneratorImport, 0, len(phases))
	for _, phase := range phases {
		gen, err := im.engine.CreateVariableGenerator(ctx, phase, product, ownerEmail, platform)
		if err != nil {
			return results, err
		}

		res := GeneratorImport{Generator: *gen}
		for _, r := range byPhase[phase] {
			var content models.Content
			for _, s := range slots {
				content[s] = r[s.FieldName()]
			}
			_, created, err := im.engine.CreateVariable(ctx, gen.ID, r[columnPainPoint], content)
			if err != nil {
				return results, err
			}
			if created {
				res.Created++
			} else {
				res.Rejected++
			}
		}

		im.log.Info("variables imported",
			"variable_generator_id", gen.ID,
			"phase", phase,
			"created", res.Created,
			"rejected", res.Rejected)
		results = append(results, res)
	}

	return results, nil
}
