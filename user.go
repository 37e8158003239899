package userfields

import (
	"maps"
	"slices"
	"time"
)

// User is the user entity: a static set of core attributes plus the dynamic
// attribute bag validated through the resolved schema.
type User struct {
	ID            string
	Email         string
	DynamicFields DynamicFields
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DynamicFields maps internal names to JSON-like values (string, json.Number,
// bool, nil, []any, map[string]any). It may hold keys of definitions that
// were deleted after the value was written.
type DynamicFields map[string]any

// Clone returns a copy that shares no slices or maps with d.
func (d DynamicFields) Clone() DynamicFields {
	if d == nil {
		return DynamicFields{}
	}
	out := make(DynamicFields, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge writes every key of other into a clone of d.
func (d DynamicFields) Merge(other DynamicFields) DynamicFields {
	out := d.Clone()
	for k, v := range other {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]any:
		out := maps.Clone(t)
		for k, e := range out {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
