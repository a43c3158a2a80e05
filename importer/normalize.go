// ABOUTME: Cleanup of placeholder values left by spreadsheet uploads
// ABOUTME: Replaces N/A, NaN, None, and non-finite numbers with null across whole collections
package importer

import (
	"context"
	"fmt"
	"math"

	"github.com/harperreed/outbound/db"
)

// NormalizeCollections rewrites placeholder fields of every document in the
// given collections to null. Each collection is merged in one batch. It
// returns the number of documents changed.
func NormalizeCollections(ctx context.Context, store db.Store, collections []string) (int, error) {
	changed := 0
	for _, name := range collections {
		docs, err := store.Query(ctx, name)
		if err != nil {
			return changed, fmt.Errorf("failed to read %s: %w", name, err)
		}

		batch := db.NewBatch(store)
		for _, d := range docs {
			if update := PlaceholderFields(d.Fields); len(update) > 0 {
				batch.Merge(d.Path, update)
			}
		}
		if err := batch.Commit(ctx); err != nil {
			return changed, fmt.Errorf("failed to normalize %s: %w", name, err)
		}
		changed += batch.Len()
	}
	return changed, nil
}

// PlaceholderFields returns the fields of a document that should be null.
func PlaceholderFields(fields map[string]any) map[string]any {
	update := make(map[string]any)
	for k, v := range fields {
		switch t := v.(type) {
		case string:
			if isPlaceholder(t) {
				update[k] = nil
			}
		case float64:
			if math.IsNaN(t) || math.IsInf(t, 0) {
				update[k] = nil
			}
		}
	}
	return update
}
