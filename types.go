package userfields

// FieldType enumerates the kinds of custom fields an admin can define.
type FieldType string

const (
	FieldText          FieldType = "text"
	FieldNumber        FieldType = "number"
	FieldDropdown      FieldType = "dropdown"
	FieldMultiDropdown FieldType = "multi_dropdown"
)

// FieldTypes lists every supported FieldType in declaration order.
var FieldTypes = []FieldType{FieldText, FieldNumber, FieldDropdown, FieldMultiDropdown}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDropdown, FieldMultiDropdown:
		return true
	default:
		return false
	}
}

// HasOptions reports whether values of t are chosen from a list of options.
func (t FieldType) HasOptions() bool { return t == FieldDropdown || t == FieldMultiDropdown }

// UnknownPolicy controls how keys that no field definition declares are
// handled in a User write payload.
type UnknownPolicy int

const (
	UnknownStrip  UnknownPolicy = iota // Drop unknown keys (allow-list filtering).
	UnknownStrict                      // Reject unknown keys with an issue.
)
