// Package store declares the persistence contracts for field definitions
// and users. Implementations enforce uniqueness atomically.
package store

import (
	"context"
	"errors"

	userfields "github.com/reoring/userfields"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a write would violate a unique
	// constraint: (name, internal_name) for fields, email for users.
	ErrDuplicate = errors.New("store: duplicate record")
)

// FieldRepository persists UserCustomField definitions.
type FieldRepository interface {
	// List returns every definition ordered by creation time, then id.
	List(ctx context.Context) ([]userfields.UserCustomField, error)
	Get(ctx context.Context, id string) (userfields.UserCustomField, error)
	Create(ctx context.Context, f userfields.UserCustomField) error
	Update(ctx context.Context, f userfields.UserCustomField) error
	Delete(ctx context.Context, id string) error
}

// UserRepository persists User records.
type UserRepository interface {
	// List returns every user ordered by creation time, then id.
	List(ctx context.Context) ([]userfields.User, error)
	Get(ctx context.Context, id string) (userfields.User, error)
	Create(ctx context.Context, u userfields.User) error
	Update(ctx context.Context, u userfields.User) error
	Delete(ctx context.Context, id string) error
}

// Store bundles both repositories over one backend.
type Store interface {
	Fields() FieldRepository
	Users() UserRepository
	Close() error
}
