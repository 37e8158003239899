package schema

import (
	"context"
	"slices"
	"strconv"

	json "github.com/goccy/go-json"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/codec"
)

// Validator checks one submitted value and returns it in stored form.
// nil (absent or JSON null) is always accepted.
type Validator interface {
	Validate(ctx context.Context, p userfields.PathRef, v any) (any, userfields.Issues)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, p userfields.PathRef, v any) (any, userfields.Issues)

func (f ValidatorFunc) Validate(ctx context.Context, p userfields.PathRef, v any) (any, userfields.Issues) {
	return f(ctx, p, v)
}

// ValidatorFor returns the rule for def's field type. Unknown types accept
// anything.
func ValidatorFor(def userfields.UserCustomField) Validator {
	label := def.Label()
	switch def.FieldType {
	case userfields.FieldText:
		return textValidator{label: label}
	case userfields.FieldNumber:
		return numberValidator{label: label}
	case userfields.FieldDropdown:
		return dropdownValidator{label: label, options: slices.Clone(def.Options)}
	case userfields.FieldMultiDropdown:
		return multiDropdownValidator{label: label, options: slices.Clone(def.Options)}
	default:
		return ValidatorFunc(func(_ context.Context, _ userfields.PathRef, v any) (any, userfields.Issues) { return v, nil })
	}
}

type textValidator struct{ label string }

func (t textValidator) Validate(_ context.Context, p userfields.PathRef, v any) (any, userfields.Issues) {
	switch v.(type) {
	case nil, string:
		return v, nil
	}
	return nil, userfields.Issues{userfields.AttributeIssue(p, t.label, userfields.CodeInvalidType, map[string]any{"got": v})}
}

type numberValidator struct{ label string }

func (n numberValidator) Validate(ctx context.Context, p userfields.PathRef, v any) (any, userfields.Issues) {
	var text string
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		text = x
	case json.Number:
		text = x.String()
	case float64:
		text = strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		text = strconv.Itoa(x)
	case int64:
		text = strconv.FormatInt(x, 10)
	default:
		return nil, n.fail(p, v)
	}
	num, err := codec.Number().Decode(ctx, text)
	if err != nil {
		return nil, n.fail(p, v)
	}
	return num, nil
}

func (n numberValidator) fail(p userfields.PathRef, v any) userfields.Issues {
	return userfields.Issues{userfields.AttributeIssue(p, n.label, userfields.CodeNotANumber, map[string]any{"got": v})}
}

type dropdownValidator struct {
	label   string
	options []string
}

func (d dropdownValidator) Validate(_ context.Context, p userfields.PathRef, v any) (any, userfields.Issues) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && slices.Contains(d.options, s) {
		return s, nil
	}
	return nil, userfields.Issues{userfields.AttributeIssue(p, d.label, userfields.CodeInvalidEnum, map[string]any{"got": v, "options": d.options})}
}

type multiDropdownValidator struct {
	label   string
	options []string
}

func (m multiDropdownValidator) Validate(_ context.Context, p userfields.PathRef, v any) (any, userfields.Issues) {
	var items []any
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		items = x
	case []string:
		for _, s := range x {
			items = append(items, s)
		}
	default:
		return nil, m.fail(p, v)
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok || !slices.Contains(m.options, s) {
			return nil, m.fail(p, v)
		}
		out = append(out, s)
	}
	return out, nil
}

func (m multiDropdownValidator) fail(p userfields.PathRef, v any) userfields.Issues {
	return userfields.Issues{userfields.AttributeIssue(p, m.label, userfields.CodeInvalidEnum, map[string]any{"got": v, "options": m.options})}
}
