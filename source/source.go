// Package source decodes request bodies into generic JSON objects while
// enforcing duplicate-key, depth and size limits.
package source

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/i18n"
	eng "github.com/reoring/userfields/internal/engine"
	"github.com/reoring/userfields/source/gojson"
)

// Options controls body enforcement. Zero limits are unlimited.
type Options struct {
	MaxBytes           int64
	MaxDepth           int
	AllowDuplicateKeys bool
}

// DefaultOptions returns the limits used at HTTP boundaries.
func DefaultOptions() Options {
	return Options{MaxBytes: 1 << 20, MaxDepth: 32}
}

// DecodeObject reads one JSON object from r. An empty body yields a nil
// map and no error. Any other failure is a *userfields.MalformedBodyError.
// The body is buffered up to MaxBytes and checked against the JSON grammar
// before it is tokenized, since the token stream does not see separators.
func DecodeObject(r io.Reader, opt Options) (map[string]any, error) {
	body, err := readBody(r, opt.MaxBytes)
	if err != nil {
		return nil, malformed(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, malformed(errSyntax)
	}

	dup := eng.DupError
	if opt.AllowDuplicateKeys {
		dup = eng.DupIgnore
	}
	src := eng.WrapWithEnforcement(gojson.NewBytes(body), eng.EnforceOptions{
		OnDuplicate: dup,
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
	})

	first, err := src.NextToken()
	if err != nil {
		return nil, malformed(err)
	}
	if first.Kind != eng.KindBeginObject {
		return nil, malformed(nil)
	}
	v, err := eng.DecodeAny(&prefixed{first: first, src: src})
	if err != nil {
		return nil, malformed(err)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		// trailing data after the object
		return nil, malformed(err)
	}
	return v.(map[string]any), nil
}

var errSyntax = errors.New("invalid JSON syntax")

// readBody reads all of r, failing with a truncated issue once more than
// limit bytes arrive. A non-positive limit reads without bound.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, eng.IssueError{SimpleIssue: eng.SimpleIssue{Code: userfields.CodeTruncated, Path: "/", Message: "max bytes exceeded"}}
	}
	return body, nil
}

// prefixed replays an already consumed first token.
type prefixed struct {
	first eng.Token
	used  bool
	src   eng.TokenSource
}

func (p *prefixed) NextToken() (eng.Token, error) {
	if !p.used {
		p.used = true
		return p.first, nil
	}
	return p.src.NextToken()
}

func (p *prefixed) Location() int64 { return p.src.Location() }

func malformed(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		iss := userfields.Issue{Path: ie.Path, Code: ie.Code}
		switch ie.Code {
		case userfields.CodeDuplicateKey:
			key := pointerUnescaper.Replace(ie.Path[strings.LastIndexByte(ie.Path, '/')+1:])
			iss.Message = i18n.T(ie.Code, map[string]string{"key": key})
			iss.Params = map[string]any{"key": key}
		default:
			iss.Message = i18n.T(ie.Code, nil)
		}
		return &userfields.MalformedBodyError{Issues: userfields.Issues{iss}}
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &userfields.MalformedBodyError{Issues: userfields.Issues{{Path: "/", Code: userfields.CodeTruncated, Message: i18n.T(userfields.CodeTruncated, nil)}}}
	}
	iss := userfields.Issue{Path: "/", Code: userfields.CodeParseError, Message: i18n.T(userfields.CodeParseError, nil)}
	if err != nil {
		iss.Params = map[string]any{"cause": err.Error()}
	}
	return &userfields.MalformedBodyError{Issues: userfields.Issues{iss}}
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
