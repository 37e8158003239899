package userfields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/userfields/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeRequired     = "required"
	CodeInvalidType  = "invalid_type"
	CodeInvalidEnum  = "invalid_enum"
	CodeNotANumber   = "not_a_number"
	CodeMustBeBlank  = "must_be_blank"
	CodeUniqueness   = "uniqueness"
	CodeReserved     = "reserved"
	CodeUnknownKey   = "unknown_key"
	CodeDuplicateKey = "duplicate_key"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
)

// Resource names used in error messages.
const (
	ResourceUser        = "User"
	ResourceCustomField = "UserCustomField"
)

// Issue represents a single validation entry.
type Issue struct {
	Path      string // JSON Pointer (for example: /movie_genre/1).
	Code      string // One of the codes listed above.
	Attribute string // Human label the message is prefixed with, e.g. "Movie genre".
	Message   string // Full message, e.g. "Movie genre is not included in the list".
	// Params carries structured parameters (e.g., {"options": [...], "got": "x"})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. not_a_number at /age
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Messages returns the full messages in order.
func (iss Issues) Messages() []string {
	out := make([]string, 0, len(iss))
	for _, it := range iss {
		out = append(out, it.Message)
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// AttributeIssue builds an Issue whose message is the localized full message
// for attribute and code.
func AttributeIssue(p PathRef, attribute, code string, params map[string]any) Issue {
	return Issue{
		Path:      p.Pointer(),
		Code:      code,
		Attribute: attribute,
		Message:   i18n.Full(attribute, code, nil),
		Params:    params,
	}
}

// ValidationError reports schema or shape violations of a write payload.
type ValidationError struct {
	Resource string
	Issues   Issues
}

func (e *ValidationError) Error() string {
	return "Validation failed: " + strings.Join(e.Issues.Messages(), ", ")
}

func (e *ValidationError) Unwrap() error { return e.Issues }

// NotFoundError reports an unknown record id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return i18n.T("not_found", map[string]string{"resource": e.Resource, "id": e.ID})
}

// MissingParameterError reports an absent or empty top-level parameter
// wrapper such as {"user": {...}}.
type MissingParameterError struct {
	Param string
}

func (e *MissingParameterError) Error() string {
	return i18n.T("param_missing", map[string]string{"param": e.Param})
}

// MalformedBodyError reports a request body that is not acceptable JSON
// (syntax errors, duplicate keys, size or depth limits).
type MalformedBodyError struct {
	Issues Issues
}

func (e *MalformedBodyError) Error() string {
	return strings.Join(e.Issues.Messages(), ", ")
}

func (e *MalformedBodyError) Unwrap() error { return e.Issues }

// ConflictError reports a uniqueness violation detected by the persistence
// layer.
type ConflictError struct {
	Resource string
	Issues   Issues
	Cause    error
}

func (e *ConflictError) Error() string {
	return strings.Join(e.Issues.Messages(), ", ")
}

func (e *ConflictError) Unwrap() error { return e.Cause }

// NewConflict builds a ConflictError for attribute (e.g. "Email").
func NewConflict(resource string, p PathRef, attribute string, cause error) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Issues:   Issues{AttributeIssue(p, attribute, CodeUniqueness, nil)},
		Cause:    cause,
	}
}

// AsNotFound reports whether err wraps a *NotFoundError.
func AsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	ok := errors.As(err, &nf)
	return nf, ok
}

// AsConflict reports whether err wraps a *ConflictError.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}
