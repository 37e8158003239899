package gojson

import (
	"errors"
	"io"
	"strings"
	"testing"

	eng "github.com/reoring/userfields/internal/engine"
)

func kinds(t *testing.T, src eng.TokenSource) []eng.Kind {
	t.Helper()
	var out []eng.Kind
	for {
		tok, err := src.NextToken()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("token err: %v", err)
		}
		out = append(out, tok.Kind)
	}
}

func TestNextToken_KeysAndValues(t *testing.T) {
	got := kinds(t, NewBytes([]byte(`{"a":"x","b":[1,"y",true,null],"c":{"d":"e"}}`)))
	want := []eng.Kind{
		eng.KindBeginObject,
		eng.KindKey, eng.KindString,
		eng.KindKey, eng.KindBeginArray, eng.KindNumber, eng.KindString, eng.KindBool, eng.KindNull, eng.KindEndArray,
		eng.KindKey, eng.KindBeginObject, eng.KindKey, eng.KindString, eng.KindEndObject,
		eng.KindEndObject,
	}
	if len(got) != len(want) {
		t.Fatalf("len %d != %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestDecodeAny_PreservesNumberText(t *testing.T) {
	v, err := eng.DecodeAny(NewReader(strings.NewReader(`{"n":12345678901234567890}`)))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := v.(map[string]any)["n"]; got == nil || got.(interface{ String() string }).String() != "12345678901234567890" {
		t.Fatalf("unexpected number %#v", got)
	}
}

func TestLocation_CountsBytes(t *testing.T) {
	body := `{"a":"` + strings.Repeat("x", 100) + `"}`
	src := NewBytes([]byte(body))
	for {
		if _, err := src.NextToken(); err != nil {
			break
		}
	}
	if src.Location() != int64(len(body)) {
		t.Fatalf("location %d, want %d", src.Location(), len(body))
	}
}
