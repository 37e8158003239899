// Package gateway maps the CRUD verbs of both resources onto the services
// and renders every outcome, including failures, as an Envelope.
package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/fields"
	"github.com/reoring/userfields/i18n"
	"github.com/reoring/userfields/middleware"
	"github.com/reoring/userfields/source"
	"github.com/reoring/userfields/users"
)

// Parameter wrapper keys of the two resources.
const (
	ParamUser        = "user"
	ParamCustomField = "user_custom_field"
)

// Gateway is the framework-neutral request handler set.
type Gateway struct {
	users  *users.Service
	fields *fields.Service
	log    *slog.Logger
	body   source.Options
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger for unexpected failures.
func WithLogger(l *slog.Logger) Option { return func(g *Gateway) { g.log = l } }

// WithSourceOptions sets request body limits.
func WithSourceOptions(opt source.Options) Option { return func(g *Gateway) { g.body = opt } }

// New returns a Gateway over the two services.
func New(us *users.Service, fs *fields.Service, opts ...Option) *Gateway {
	g := &Gateway{users: us, fields: fs, log: slog.Default(), body: middleware.DefaultSourceOptions(0)}
	for _, o := range opts {
		o(g)
	}
	return g
}

// ---- users ----

func (g *Gateway) ListUsers(ctx context.Context) Response {
	list, err := g.users.List(ctx)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusOK, "All users", newUserViews(list))
}

func (g *Gateway) CreateUser(ctx context.Context, body io.Reader) Response {
	payload, err := g.wrapped(body, ParamUser)
	if err != nil {
		return g.fail(ctx, err)
	}
	u, err := g.users.Create(ctx, payload)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusCreated, "User created successfully", newUserView(u))
}

func (g *Gateway) GetUser(ctx context.Context, id string) Response {
	u, err := g.users.Get(ctx, id)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusOK, "Current user", newUserView(u))
}

func (g *Gateway) UpdateUser(ctx context.Context, id string, body io.Reader) Response {
	// unknown ids are reported before body problems
	if _, err := g.users.Get(ctx, id); err != nil {
		return g.fail(ctx, err)
	}
	payload, err := g.wrapped(body, ParamUser)
	if err != nil {
		return g.fail(ctx, err)
	}
	u, err := g.users.Update(ctx, id, payload)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusOK, "User updated successfully", newUserView(u))
}

func (g *Gateway) DeleteUser(ctx context.Context, id string) Response {
	if err := g.users.Delete(ctx, id); err != nil {
		return g.fail(ctx, err)
	}
	return Response{Status: http.StatusNoContent}
}

// UserSchema publishes the JSON Schema of the writable user payload.
func (g *Gateway) UserSchema(ctx context.Context) Response {
	sch, err := g.users.Schema(ctx)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusOK, "User schema", sch.JSONSchema())
}

// ---- user custom fields ----

func (g *Gateway) ListFields(ctx context.Context) Response {
	list, err := g.fields.List(ctx)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusOK, "All User custom fields", newFieldViews(list))
}

func (g *Gateway) CreateField(ctx context.Context, body io.Reader) Response {
	payload, err := g.wrapped(body, ParamCustomField)
	if err != nil {
		return g.fail(ctx, err)
	}
	attrs, iss := fields.DecodeAttrs(payload)
	if len(iss) > 0 {
		return g.fail(ctx, &userfields.ValidationError{Resource: userfields.ResourceCustomField, Issues: iss})
	}
	f, err := g.fields.Create(ctx, attrs)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusCreated, "User custom field created successfully", newFieldView(f))
}

func (g *Gateway) GetField(ctx context.Context, id string) Response {
	f, err := g.fields.Get(ctx, id)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusOK, "Current user custom field", newFieldView(f))
}

func (g *Gateway) UpdateField(ctx context.Context, id string, body io.Reader) Response {
	if _, err := g.fields.Get(ctx, id); err != nil {
		return g.fail(ctx, err)
	}
	payload, err := g.wrapped(body, ParamCustomField)
	if err != nil {
		return g.fail(ctx, err)
	}
	attrs, iss := fields.DecodeAttrs(payload)
	if len(iss) > 0 {
		return g.fail(ctx, &userfields.ValidationError{Resource: userfields.ResourceCustomField, Issues: iss})
	}
	f, err := g.fields.Update(ctx, id, attrs)
	if err != nil {
		return g.fail(ctx, err)
	}
	return g.ok(ctx, http.StatusOK, "User custom field updated successfully", newFieldView(f))
}

func (g *Gateway) DeleteField(ctx context.Context, id string) Response {
	if err := g.fields.Delete(ctx, id); err != nil {
		return g.fail(ctx, err)
	}
	return Response{Status: http.StatusNoContent}
}

// Health reports liveness.
func (g *Gateway) Health(ctx context.Context) Response {
	return g.ok(ctx, http.StatusOK, "ok", nil)
}

// ---- helpers ----

// wrapped decodes body and returns the object under param. An absent body,
// an absent or non-object wrapper and an empty object are all reported as a
// missing parameter.
func (g *Gateway) wrapped(body io.Reader, param string) (map[string]any, error) {
	if body == nil {
		return nil, &userfields.MissingParameterError{Param: param}
	}
	doc, err := source.DecodeObject(body, g.body)
	if err != nil {
		return nil, err
	}
	obj, ok := doc[param].(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, &userfields.MissingParameterError{Param: param}
	}
	return obj, nil
}

func (g *Gateway) ok(ctx context.Context, status int, message string, data any) Response {
	return g.render(ctx, status, Envelope{Success: true, Message: message, Data: data})
}

// fail converts err to its status and envelope. Unrecognized errors are
// logged and reported as 500 without detail.
func (g *Gateway) fail(ctx context.Context, err error) Response {
	var (
		nf   *userfields.NotFoundError
		ve   *userfields.ValidationError
		mp   *userfields.MissingParameterError
		mb   *userfields.MalformedBodyError
		conf *userfields.ConflictError
	)
	switch {
	case errors.As(err, &nf):
		return g.render(ctx, http.StatusNotFound, Envelope{Message: nf.Error()})
	case errors.As(err, &ve):
		return g.render(ctx, http.StatusUnprocessableEntity, Envelope{Errors: ve.Issues.Messages()})
	case errors.As(err, &mp):
		return g.render(ctx, http.StatusBadRequest, Envelope{Errors: []string{mp.Error()}})
	case errors.As(err, &mb):
		return g.render(ctx, http.StatusBadRequest, Envelope{Errors: mb.Issues.Messages()})
	case errors.As(err, &conf):
		return g.render(ctx, http.StatusConflict, Envelope{Errors: conf.Issues.Messages()})
	}
	g.logError(ctx, "request failed", err)
	return g.internal(ctx)
}

func (g *Gateway) render(ctx context.Context, status int, env Envelope) Response {
	b, err := json.Marshal(env)
	if err != nil {
		g.logError(ctx, "encode response", err)
		return g.internal(ctx)
	}
	return Response{Status: status, Body: b}
}

func (g *Gateway) internal(ctx context.Context) Response {
	b, _ := json.Marshal(Envelope{Errors: []string{i18n.T("internal", nil)}})
	return Response{Status: http.StatusInternalServerError, Body: b}
}

func (g *Gateway) logError(ctx context.Context, msg string, err error) {
	attrs := []any{"error", err}
	if id, ok := middleware.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, "request_id", id)
	}
	g.log.ErrorContext(ctx, msg, attrs...)
}
