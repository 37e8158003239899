// Package middleware holds the framework-neutral pieces shared by the gin
// and echo adapters.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/userfields/source"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

type ctxKeyRequestID struct{}

// ContextWithRequestID attaches a request id to the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// RequestIDFromContext retrieves the request id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyRequestID{}).(string)
	return id, ok && id != ""
}

// RequestID returns the inbound X-Request-ID or a new random id.
func RequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

// DefaultSourceOptions returns the body limits for HTTP JSON boundaries:
// duplicate keys are errors and bodies above maxBytes are rejected. A
// non-positive maxBytes keeps the package default.
func DefaultSourceOptions(maxBytes int64) source.Options {
	opt := source.DefaultOptions()
	if maxBytes > 0 {
		opt.MaxBytes = maxBytes
	}
	return opt
}

// LogRequest writes the one-line access log entry.
func LogRequest(ctx context.Context, l *slog.Logger, method, path string, status int, latency time.Duration) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("latency", latency),
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("request_id", id))
	}
	l.LogAttrs(ctx, level, "request", attrs...)
}
