package schema

import (
	"slices"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/codec"
	"github.com/reoring/userfields/jsonschema"
)

// JSONSchema exports the writable user payload: the core email attribute
// plus one property per permitted dynamic key. A key backed by several
// definitions is described by the first of them.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	out := &jsonschema.Schema{
		Schema: jsonschema.Draft,
		Title:  userfields.ResourceUser,
		Type:   "object",
		Properties: map[string]*jsonschema.Schema{
			"email": {Type: "string", Format: "email"},
		},
		Required: []string{"email"},
	}
	if s.unknown == userfields.UnknownStrict {
		out.AdditionalProperties = false
	}
	for _, key := range s.keys {
		def := s.rules[s.byKey[key][0]].def
		out.Properties[key] = propertyFor(def)
	}
	return out
}

func propertyFor(def userfields.UserCustomField) *jsonschema.Schema {
	p := &jsonschema.Schema{Title: def.Name, Description: def.Label()}
	switch def.FieldType {
	case userfields.FieldText:
		p.Type = jsonschema.Nullable("string")
	case userfields.FieldNumber:
		p.AnyOf = []*jsonschema.Schema{
			{Type: "number"},
			{Type: "string", Pattern: codec.NumberPattern},
			{Type: "null"},
		}
	case userfields.FieldDropdown:
		p.Type = jsonschema.Nullable("string")
		p.Enum = enumOf(def.Options, true)
	case userfields.FieldMultiDropdown:
		p.Type = jsonschema.Nullable("array")
		p.Items = &jsonschema.Schema{Type: "string", Enum: enumOf(def.Options, false)}
	}
	return p
}

func enumOf(options []string, nullable bool) []any {
	out := make([]any, 0, len(options)+1)
	for _, o := range slices.Clone(options) {
		out = append(out, o)
	}
	if nullable {
		out = append(out, nil)
	}
	return out
}
