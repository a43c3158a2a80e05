// ABOUTME: Value normalization and filter matching for stored documents
// ABOUTME: Resolves server timestamps, canonicalizes numbers, and compares filter values
package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
)

// prepareFields resolves sentinels and canonicalizes values before a write.
// Non-finite floats are stored as null since JSON cannot carry them.
func prepareFields(fields map[string]any, now time.Time) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		nv, err := prepareValue(v, now)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func prepareValue(v any, now time.Time) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case serverTimestamp:
		return now.UTC().Format(time.RFC3339Nano), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case string, bool:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, nil
		}
		return t, nil
	case float32:
		return prepareValue(float64(t), now)
	case json.Number:
		return numberValue(t), nil
	case map[string]any:
		return prepareFields(t, now)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ne, err := prepareValue(e, now)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	}
	if n, ok := asInt64(v); ok {
		return n, nil
	}
	// Typed slices and maps go through JSON once to land on the canonical shapes.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	return canonical(decoded), nil
}

func encodeFields(fields map[string]any) ([]byte, error) {
	return json.Marshal(fields)
}

func decodeFields(data []byte) (map[string]any, error) {
	fields := make(map[string]any)
	if len(data) == 0 || string(data) == "null" {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		fields[k] = canonical(v)
	}
	return fields, nil
}

// canonical converts decoded JSON numbers to int64 or float64, recursively.
func canonical(v any) any {
	switch t := v.(type) {
	case json.Number:
		return numberValue(t)
	case map[string]any:
		for k, e := range t {
			t[k] = canonical(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = canonical(e)
		}
		return t
	}
	return v
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return f
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	if n, ok := asInt64(v); ok {
		return float64(n), true
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	}
	return 0, false
}

// filterValue canonicalizes a filter operand the same way writes are canonicalized.
func filterValue(v any) any {
	if n, ok := asInt64(v); ok {
		return n
	}
	if f, ok := v.(float32); ok {
		return float64(f)
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	if v == nil {
		return nil
	}
	// Named string and bool types (platforms, statuses) compare by underlying value.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

func valuesEqual(stored, want any) bool {
	want = filterValue(want)
	if stored == nil || want == nil {
		return stored == nil && want == nil
	}
	if a, ok := asFloat64(stored); ok {
		b, ok := asFloat64(want)
		return ok && a == b
	}
	return reflect.DeepEqual(stored, want)
}

func matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !valuesEqual(fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// mergeFields overlays update onto existing at the top level.
func mergeFields(existing, update map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(update))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}
