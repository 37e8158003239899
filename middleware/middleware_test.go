package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users", nil)
	if id := RequestID(r); len(id) != 36 {
		t.Fatalf("expected generated uuid, got %q", id)
	}
	r.Header.Set(HeaderRequestID, "abc")
	if id := RequestID(r); id != "abc" {
		t.Fatalf("expected inbound id, got %q", id)
	}
	ctx := ContextWithRequestID(context.Background(), "abc")
	if id, ok := RequestIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("context round trip failed")
	}
	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Fatalf("empty context has no id")
	}
}

func TestDefaultSourceOptions(t *testing.T) {
	if opt := DefaultSourceOptions(0); opt.MaxBytes != 1<<20 || opt.AllowDuplicateKeys {
		t.Fatalf("unexpected defaults %+v", opt)
	}
	if opt := DefaultSourceOptions(512); opt.MaxBytes != 512 {
		t.Fatalf("override ignored: %+v", opt)
	}
}

func TestLogRequest(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	LogRequest(ContextWithRequestID(context.Background(), "rid"), l, "POST", "/users", 201, time.Millisecond)
	out := buf.String()
	for _, want := range []string{"method=POST", "path=/users", "status=201", "request_id=rid", "level=INFO"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	buf.Reset()
	LogRequest(context.Background(), l, "GET", "/x", 500, 0)
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("5xx must log at error: %q", buf.String())
	}
}
