package fields

import (
	userfields "github.com/reoring/userfields"
)

// DecodeAttrs reads the writable attributes from a decoded
// user_custom_field object. internal_name and unknown keys are ignored;
// null options clear the list.
func DecodeAttrs(raw map[string]any) (userfields.FieldAttrs, userfields.Issues) {
	var attrs userfields.FieldAttrs
	var iss userfields.Issues
	if v, ok := raw["name"]; ok {
		s, valid := stringOrNull(v)
		if !valid {
			iss = userfields.AppendIssues(iss, userfields.AttributeIssue(userfields.At("name"), "Name", userfields.CodeInvalidType, nil))
		}
		attrs.Name = &s
	}
	if v, ok := raw["field_type"]; ok {
		s, valid := stringOrNull(v)
		if !valid {
			iss = userfields.AppendIssues(iss, userfields.AttributeIssue(userfields.At("field_type"), "Field type", userfields.CodeInvalidType, nil))
		}
		attrs.FieldType = &s
	}
	if v, ok := raw["options"]; ok {
		opts := []string{}
		switch x := v.(type) {
		case nil:
		case []any:
			for _, e := range x {
				s, isString := e.(string)
				if !isString {
					iss = userfields.AppendIssues(iss, userfields.AttributeIssue(userfields.At("options"), "Options", userfields.CodeInvalidType, nil))
					break
				}
				opts = append(opts, s)
			}
		default:
			iss = userfields.AppendIssues(iss, userfields.AttributeIssue(userfields.At("options"), "Options", userfields.CodeInvalidType, nil))
		}
		attrs.Options = &opts
	}
	return attrs, iss
}

func stringOrNull(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	default:
		return "", false
	}
}
