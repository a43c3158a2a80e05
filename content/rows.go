// ABOUTME: Bulk content generation over phases, pain points, and slots
// ABOUTME: Fans out with a bounded errgroup and writes rows in the variable upload CSV layout
package content

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/outbound/models"
)

// Row is one generated variable: a phase and pain point with its slot content.
type Row struct {
	Phase     string
	PainPoint string
	Content   models.Content
}

// GenerateRows generates every requested slot for each phase and pain point
// combination, with at most limit requests in flight. Rows come back in phase
// then pain point order regardless of completion order. The first failure
// cancels outstanding requests and is returned.
func GenerateRows(ctx context.Context, gen Generator, brief Brief, phases, painPoints []string, slots []models.Slot, limit int) ([]Row, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("no content slots requested")
	}
	for _, p := range phases {
		if _, err := phaseNumber(p); err != nil {
			return nil, err
		}
	}
	if limit < 1 {
		limit = 1
	}

	rows := make([]Row, 0, len(phases)*len(painPoints))
	for _, phase := range phases {
		for _, pain := range painPoints {
			rows = append(rows, Row{Phase: phase, PainPoint: pain})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range rows {
		for _, slot := range slots {
			g.Go(func() error {
				req := Request{Brief: brief, Phase: rows[i].Phase, PainPoint: rows[i].PainPoint, Slot: slot}
				p, err := BuildPrompt(req)
				if err != nil {
					return err
				}
				text, err := gen.Generate(gctx, p)
				if err != nil {
					return fmt.Errorf("%s %s %q: %w", rows[i].Phase, slot.Kind(), rows[i].PainPoint, err)
				}
				// Each goroutine owns one (row, slot) cell.
				rows[i].Content[slot] = text
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteVariablesCSV writes rows with the columns the variable import reads.
// contentA and contentB are always written, other slots only when requested.
func WriteVariablesCSV(w io.Writer, rows []Row, slots []models.Slot) error {
	columns := csvSlots(slots)

	cw := csv.NewWriter(w)
	header := []string{"Phase", "Pain Point"}
	for _, s := range columns {
		header = append(header, s.FieldName())
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{r.Phase, r.PainPoint}
		for _, s := range columns {
			record = append(record, r.Content[s])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvSlots(slots []models.Slot) []models.Slot {
	want := map[models.Slot]bool{models.SlotA: true, models.SlotB: true}
	for _, s := range slots {
		want[s] = true
	}
	var out []models.Slot
	for _, s := range models.Slots {
		if want[s] {
			out = append(out, s)
		}
	}
	return out
}
