// Package schema derives the writable shape of a User payload from the
// current set of custom field definitions.
package schema

import (
	"context"
	"slices"
	"sort"

	userfields "github.com/reoring/userfields"
)

// Option configures Resolve.
type Option func(*Schema)

// WithUnknownPolicy selects how undeclared keys are handled by Filter and
// Validate. The default is userfields.UnknownStrip.
func WithUnknownPolicy(p userfields.UnknownPolicy) Option {
	return func(s *Schema) { s.unknown = p }
}

// WithCoreKeys names keys handled outside the dynamic schema (for example
// "email"). Filter neither returns nor reports them.
func WithCoreKeys(keys ...string) Option {
	return func(s *Schema) { s.core = append(s.core, keys...) }
}

type rule struct {
	def       userfields.UserCustomField
	validator Validator
}

// Schema is an immutable snapshot of the permitted dynamic keys and their
// validators, in definition order.
type Schema struct {
	rules   []rule
	byKey   map[string][]int
	keys    []string
	unknown userfields.UnknownPolicy
	core    []string
}

// Resolve builds a Schema from defs. Definitions sharing an internal name
// all apply to that key.
func Resolve(defs []userfields.UserCustomField, opts ...Option) *Schema {
	s := &Schema{byKey: make(map[string][]int, len(defs))}
	for _, o := range opts {
		o(s)
	}
	for _, d := range defs {
		if d.InternalName == "" {
			continue
		}
		if _, seen := s.byKey[d.InternalName]; !seen {
			s.keys = append(s.keys, d.InternalName)
		}
		s.byKey[d.InternalName] = append(s.byKey[d.InternalName], len(s.rules))
		s.rules = append(s.rules, rule{def: d, validator: ValidatorFor(d)})
	}
	return s
}

// Permitted returns the permitted dynamic keys in definition order.
func (s *Schema) Permitted() []string { return slices.Clone(s.keys) }

// Permits reports whether key is a declared dynamic attribute.
func (s *Schema) Permits(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// Definitions returns the definitions the schema was resolved from, skipping
// ones without an internal name.
func (s *Schema) Definitions() []userfields.UserCustomField {
	out := make([]userfields.UserCustomField, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.def
	}
	return out
}

// Filter keeps the permitted keys of payload. Under UnknownStrict every
// other non-core key yields an unknown_key issue, sorted by key.
func (s *Schema) Filter(payload map[string]any) (userfields.DynamicFields, userfields.Issues) {
	out := userfields.DynamicFields{}
	var unknown []string
	for k, v := range payload {
		if s.Permits(k) {
			out[k] = v
			continue
		}
		if slices.Contains(s.core, k) {
			continue
		}
		unknown = append(unknown, k)
	}
	if s.unknown != userfields.UnknownStrict || len(unknown) == 0 {
		return out, nil
	}
	sort.Strings(unknown)
	var iss userfields.Issues
	for _, k := range unknown {
		iss = userfields.AppendIssues(iss, userfields.AttributeIssue(userfields.At(k), userfields.Humanize(k), userfields.CodeUnknownKey, map[string]any{"key": k}))
	}
	return out, iss
}

// Validate filters payload and checks every supplied permitted key. The
// returned fields hold normalized values and are only meaningful when no
// issues are reported. Issues follow definition order.
func (s *Schema) Validate(ctx context.Context, payload map[string]any) (userfields.DynamicFields, userfields.Issues) {
	fields, iss := s.Filter(payload)
	var ruleIss userfields.Issues
	for _, r := range s.rules {
		key := r.def.InternalName
		raw, ok := payload[key]
		if !ok {
			continue
		}
		norm, vi := r.validator.Validate(ctx, userfields.At(key), raw)
		if len(vi) > 0 {
			ruleIss = userfields.AppendIssues(ruleIss, vi...)
			continue
		}
		fields[key] = norm
	}
	if len(ruleIss) > 0 {
		iss = append(ruleIss, iss...)
	}
	return fields, iss
}

// FieldLister lists the current field definitions in creation order.
type FieldLister interface {
	List(ctx context.Context) ([]userfields.UserCustomField, error)
}

// Resolver reads the definitions on every call, so a write always sees the
// schema current at that moment.
type Resolver struct {
	Fields  FieldLister
	Options []Option
}

// NewResolver returns a Resolver over fields.
func NewResolver(fields FieldLister, opts ...Option) *Resolver {
	return &Resolver{Fields: fields, Options: opts}
}

// Resolve lists the definitions and builds a fresh Schema.
func (r *Resolver) Resolve(ctx context.Context) (*Schema, error) {
	defs, err := r.Fields.List(ctx)
	if err != nil {
		return nil, err
	}
	return Resolve(defs, r.Options...), nil
}
