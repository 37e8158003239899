// Package fields manages UserCustomField definitions.
package fields

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/internal/ident"
	"github.com/reoring/userfields/store"
)

// Service validates and persists field definitions.
type Service struct {
	repo  store.FieldRepository
	now   func() time.Time
	newID func() (string, error)
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDGenerator overrides the id source.
func WithIDGenerator(gen func() (string, error)) Option { return func(s *Service) { s.newID = gen } }

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// NewService returns a Service over repo.
func NewService(repo store.FieldRepository, opts ...Option) *Service {
	s := &Service{repo: repo, now: ident.Now, newID: ident.NewID, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns every definition in creation order. It also serves as the
// schema.FieldLister for the user service.
func (s *Service) List(ctx context.Context) ([]userfields.UserCustomField, error) {
	return s.repo.List(ctx)
}

// Get returns one definition or a *userfields.NotFoundError.
func (s *Service) Get(ctx context.Context, id string) (userfields.UserCustomField, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return userfields.UserCustomField{}, notFound(err, id)
	}
	return f, nil
}

// Create derives the internal name, validates and stores a new definition.
func (s *Service) Create(ctx context.Context, attrs userfields.FieldAttrs) (userfields.UserCustomField, error) {
	f := userfields.UserCustomField{}.Apply(attrs)
	if iss := f.Validate(); len(iss) > 0 {
		return userfields.UserCustomField{}, &userfields.ValidationError{Resource: userfields.ResourceCustomField, Issues: iss}
	}
	id, err := s.newID()
	if err != nil {
		return userfields.UserCustomField{}, err
	}
	now := s.now()
	f.ID, f.CreatedAt, f.UpdatedAt = id, now, now
	if err := s.repo.Create(ctx, f); err != nil {
		return userfields.UserCustomField{}, conflict(err)
	}
	s.log.Debug("custom field created", "id", f.ID, "internal_name", f.InternalName, "field_type", f.FieldType)
	return f, nil
}

// Update merges attrs into the stored definition and re-validates it. A
// merge that changes nothing returns the stored definition untouched.
func (s *Service) Update(ctx context.Context, id string, attrs userfields.FieldAttrs) (userfields.UserCustomField, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return userfields.UserCustomField{}, err
	}
	next := cur.Apply(attrs)
	if iss := next.Validate(); len(iss) > 0 {
		return userfields.UserCustomField{}, &userfields.ValidationError{Resource: userfields.ResourceCustomField, Issues: iss}
	}
	if sameDefinition(cur, next) {
		return cur, nil
	}
	next.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, next); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return userfields.UserCustomField{}, notFound(err, id)
		}
		return userfields.UserCustomField{}, conflict(err)
	}
	s.log.Debug("custom field updated", "id", id, "internal_name", next.InternalName)
	return next, nil
}

// Delete removes a definition. Values stored on users are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, id)
	}
	s.log.Debug("custom field deleted", "id", id)
	return nil
}

func sameDefinition(a, b userfields.UserCustomField) bool {
	return a.Name == b.Name && a.FieldType == b.FieldType && slices.Equal(a.Options, b.Options)
}

func notFound(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &userfields.NotFoundError{Resource: userfields.ResourceCustomField, ID: id}
	}
	return err
}

func conflict(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return userfields.NewConflict(userfields.ResourceCustomField, userfields.At("name"), "Name", err)
	}
	return err
}
