// Package testutil builds a memory-backed gateway for HTTP adapter tests.
package testutil

import (
	"io"
	"log/slog"

	"github.com/reoring/userfields/fields"
	"github.com/reoring/userfields/gateway"
	"github.com/reoring/userfields/schema"
	"github.com/reoring/userfields/store/memory"
	"github.com/reoring/userfields/users"
)

// DiscardLogger drops every record.
func DiscardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// NewGateway returns a gateway over a fresh memory store.
func NewGateway() *gateway.Gateway {
	st := memory.New()
	fs := fields.NewService(st.Fields())
	us := users.NewService(st.Users(), schema.NewResolver(fs, schema.WithCoreKeys(users.CoreAttributes...)))
	return gateway.New(us, fs, gateway.WithLogger(DiscardLogger()))
}
