// Package engine turns a stream of JSON tokens into a generic value tree
// and enforces body limits while the tokens are read.
package engine

import (
	"errors"

	json "github.com/goccy/go-json"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ErrUnexpectedToken reports a token that cannot appear where it was read.
var ErrUnexpectedToken = errors.New("engine: unexpected token")

// partial is an object or array still being filled.
type partial struct {
	obj   map[string]any
	arr   []any
	key   string
	keyed bool // key read, value pending
}

func (p *partial) value() any {
	if p.obj != nil {
		return p.obj
	}
	return p.arr
}

// DecodeAny builds a value tree from src. Objects become map[string]any,
// arrays []any and numbers json.Number so no precision is lost. Nesting is
// tracked on an explicit stack; depth limits belong to the source.
func DecodeAny(src TokenSource) (any, error) {
	var stack []*partial
	top := func() *partial {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		var v any
		switch tok.Kind {
		case KindBeginObject:
			stack = append(stack, &partial{obj: map[string]any{}})
			continue
		case KindBeginArray:
			stack = append(stack, &partial{arr: []any{}})
			continue
		case KindKey:
			t := top()
			if t == nil || t.obj == nil || t.keyed {
				return nil, ErrUnexpectedToken
			}
			t.key, t.keyed = tok.String, true
			continue
		case KindEndObject, KindEndArray:
			t := top()
			if t == nil || t.keyed || (tok.Kind == KindEndObject) != (t.obj != nil) {
				return nil, ErrUnexpectedToken
			}
			stack = stack[:len(stack)-1]
			v = t.value()
		case KindString:
			v = tok.String
		case KindNumber:
			v = json.Number(tok.Number)
		case KindBool:
			v = tok.Bool
		case KindNull:
		default:
			return nil, ErrUnexpectedToken
		}

		parent := top()
		switch {
		case parent == nil:
			return v, nil
		case parent.obj == nil:
			parent.arr = append(parent.arr, v)
		case parent.keyed:
			parent.obj[parent.key] = v
			parent.keyed = false
		default:
			return nil, ErrUnexpectedToken
		}
	}
}
