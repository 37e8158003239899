// Package users runs the User write lifecycle: core checks, dynamic
// filtering and validation against a freshly resolved schema, then
// persistence.
package users

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/internal/ident"
	"github.com/reoring/userfields/schema"
	"github.com/reoring/userfields/store"
)

// CoreAttributes are the payload keys handled by the static User struct.
var CoreAttributes = []string{"email"}

// SchemaResolver yields the dynamic schema current at call time.
type SchemaResolver interface {
	Resolve(ctx context.Context) (*schema.Schema, error)
}

// Service creates, updates and reads users.
type Service struct {
	repo     store.UserRepository
	resolver SchemaResolver
	now      func() time.Time
	newID    func() (string, error)
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDGenerator overrides the id source.
func WithIDGenerator(gen func() (string, error)) Option { return func(s *Service) { s.newID = gen } }

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// NewService returns a Service that validates writes with resolver.
func NewService(repo store.UserRepository, resolver SchemaResolver, opts ...Option) *Service {
	s := &Service{repo: repo, resolver: resolver, now: ident.Now, newID: ident.NewID, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schema resolves the current dynamic schema.
func (s *Service) Schema(ctx context.Context) (*schema.Schema, error) {
	return s.resolver.Resolve(ctx)
}

// List returns every user in creation order.
func (s *Service) List(ctx context.Context) ([]userfields.User, error) {
	return s.repo.List(ctx)
}

// Get returns one user or a *userfields.NotFoundError.
func (s *Service) Get(ctx context.Context, id string) (userfields.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return userfields.User{}, notFound(err, id)
	}
	return u, nil
}

// Create validates payload (the object inside the "user" wrapper) and
// stores a new user. Every violation is reported in one ValidationError.
func (s *Service) Create(ctx context.Context, payload map[string]any) (userfields.User, error) {
	sch, err := s.resolver.Resolve(ctx)
	if err != nil {
		return userfields.User{}, err
	}
	v, present := payload["email"]
	email, iss := checkEmail(v, present)
	fields, dyn := sch.Validate(ctx, payload)
	iss = append(iss, dyn...)
	if len(iss) > 0 {
		return userfields.User{}, &userfields.ValidationError{Resource: userfields.ResourceUser, Issues: iss}
	}

	id, err := s.newID()
	if err != nil {
		return userfields.User{}, err
	}
	now := s.now()
	u := userfields.User{ID: id, Email: email, DynamicFields: fields, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, u); err != nil {
		return userfields.User{}, conflict(err)
	}
	s.log.Debug("user created", "id", u.ID, "custom_fields", len(fields))
	return u, nil
}

// Update merges payload into the stored user: supplied keys overwrite,
// absent keys are kept. A payload that changes nothing returns the stored
// user with its updated_at untouched.
func (s *Service) Update(ctx context.Context, id string, payload map[string]any) (userfields.User, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return userfields.User{}, err
	}
	sch, err := s.resolver.Resolve(ctx)
	if err != nil {
		return userfields.User{}, err
	}
	next := cur
	var iss userfields.Issues
	if v, present := payload["email"]; present {
		next.Email, iss = checkEmail(v, true)
	}
	fields, dyn := sch.Validate(ctx, payload)
	iss = append(iss, dyn...)
	if len(iss) > 0 {
		return userfields.User{}, &userfields.ValidationError{Resource: userfields.ResourceUser, Issues: iss}
	}
	next.DynamicFields = cur.DynamicFields.Merge(fields)

	same, err := sameUser(cur, next)
	if err != nil {
		return userfields.User{}, err
	}
	if same {
		return cur, nil
	}
	next.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, next); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return userfields.User{}, notFound(err, id)
		}
		return userfields.User{}, conflict(err)
	}
	s.log.Debug("user updated", "id", id, "custom_fields", len(fields))
	return next, nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, id)
	}
	s.log.Debug("user deleted", "id", id)
	return nil
}

func checkEmail(v any, present bool) (string, userfields.Issues) {
	if !present || v == nil {
		return "", userfields.Issues{userfields.AttributeIssue(userfields.At("email"), "Email", userfields.CodeRequired, nil)}
	}
	s, ok := v.(string)
	if !ok {
		return "", userfields.Issues{userfields.AttributeIssue(userfields.At("email"), "Email", userfields.CodeInvalidType, map[string]any{"got": v})}
	}
	if strings.TrimSpace(s) == "" {
		return "", userfields.Issues{userfields.AttributeIssue(userfields.At("email"), "Email", userfields.CodeRequired, nil)}
	}
	return s, nil
}

// sameUser compares the writable state of two users. Dynamic fields are
// compared in their JSON form so []string and []any holding the same
// strings are equal.
func sameUser(a, b userfields.User) (bool, error) {
	if a.Email != b.Email {
		return false, nil
	}
	ja, err := json.Marshal(a.DynamicFields.Clone())
	if err != nil {
		return false, err
	}
	jb, err := json.Marshal(b.DynamicFields.Clone())
	if err != nil {
		return false, err
	}
	return bytes.Equal(ja, jb), nil
}

func notFound(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &userfields.NotFoundError{Resource: userfields.ResourceUser, ID: id}
	}
	return err
}

func conflict(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return userfields.NewConflict(userfields.ResourceUser, userfields.At("email"), "Email", err)
	}
	return err
}
