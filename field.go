package userfields

import (
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UserCustomField is an admin-configured description of one dynamic
// attribute available to User records.
type UserCustomField struct {
	ID           string
	Name         string
	InternalName string
	FieldType    FieldType
	Options      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Label is the human name used in validation messages ("movie_genre" ->
// "Movie genre").
func (f UserCustomField) Label() string { return Humanize(f.InternalName) }

// FieldAttrs carries the caller-writable attributes of a definition. A nil
// pointer means "not supplied"; internal_name is never writable.
type FieldAttrs struct {
	Name      *string
	FieldType *string
	Options   *[]string
}

// Apply merges attrs into a copy of f and re-derives the internal name.
func (f UserCustomField) Apply(a FieldAttrs) UserCustomField {
	out := f
	if a.Name != nil {
		out.Name = *a.Name
	}
	if a.FieldType != nil {
		out.FieldType = FieldType(*a.FieldType)
	}
	if a.Options != nil {
		out.Options = slices.Clone(*a.Options)
	}
	out.InternalName = InternalName(out.Name)
	return out
}

// ReservedNames are internal names that would shadow core User attributes.
var ReservedNames = []string{"id", "email", "custom_fields", "created_at", "updated_at"}

// Validate checks the definition invariants and returns every violation.
func (f UserCustomField) Validate() Issues {
	var iss Issues
	if strings.TrimSpace(f.Name) == "" {
		iss = AppendIssues(iss, AttributeIssue(At("name"), "Name", CodeRequired, nil))
	}
	if f.InternalName == "" {
		iss = AppendIssues(iss, AttributeIssue(At("internal_name"), "Internal name", CodeRequired, nil))
	} else if slices.Contains(ReservedNames, f.InternalName) {
		iss = AppendIssues(iss, AttributeIssue(At("name"), "Name", CodeReserved, map[string]any{"internal_name": f.InternalName}))
	}
	switch {
	case f.FieldType == "":
		iss = AppendIssues(iss, AttributeIssue(At("field_type"), "Field type", CodeRequired, nil))
	case !f.FieldType.Valid():
		iss = AppendIssues(iss, AttributeIssue(At("field_type"), "Field type", CodeInvalidEnum, map[string]any{"got": string(f.FieldType), "options": FieldTypes}))
	case f.FieldType.HasOptions():
		if len(f.Options) == 0 {
			iss = AppendIssues(iss, AttributeIssue(At("options"), "Options", CodeRequired, nil))
		} else if slices.ContainsFunc(f.Options, func(o string) bool { return strings.TrimSpace(o) == "" }) {
			iss = AppendIssues(iss, AttributeIssue(At("options"), "Options", CodeInvalidType, nil))
		}
	default:
		if len(f.Options) > 0 {
			iss = AppendIssues(iss, AttributeIssue(At("options"), "Options", CodeMustBeBlank, nil))
		}
	}
	return iss
}

// InternalName derives the machine key from a display name: diacritics are
// folded, the result is lower-cased, every run of characters that are not
// letters or digits becomes a single '_' and leading/trailing '_' are
// trimmed. "some test name" -> "some_test_name".
func InternalName(name string) string {
	// transformers carry state; build one per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}
	b := &strings.Builder{}
	sep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// Humanize turns an internal name into a label: underscores become spaces
// and the first letter is upper-cased ("first_name" -> "First name").
func Humanize(internal string) string {
	s := strings.TrimSpace(strings.ReplaceAll(internal, "_", " "))
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
