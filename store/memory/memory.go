// Package memory is an in-process Store used by tests and local runs.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	json "github.com/goccy/go-json"

	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/store"
)

// Store keeps records in insertion order behind a single lock, so
// uniqueness checks and inserts are atomic.
type Store struct {
	mu         sync.RWMutex
	fields     map[string]userfields.UserCustomField
	fieldOrder []string
	users      map[string]userfields.User
	userOrder  []string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		fields: map[string]userfields.UserCustomField{},
		users:  map[string]userfields.User{},
	}
}

func (s *Store) Fields() store.FieldRepository { return fieldRepo{s} }
func (s *Store) Users() store.UserRepository   { return userRepo{s} }
func (s *Store) Close() error                  { return nil }

type fieldRepo struct{ s *Store }

func (r fieldRepo) List(ctx context.Context) ([]userfields.UserCustomField, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]userfields.UserCustomField, 0, len(r.s.fieldOrder))
	for _, id := range r.s.fieldOrder {
		out = append(out, cloneField(r.s.fields[id]))
	}
	return out, nil
}

func (r fieldRepo) Get(ctx context.Context, id string) (userfields.UserCustomField, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.fields[id]
	if !ok {
		return userfields.UserCustomField{}, store.ErrNotFound
	}
	return cloneField(f), nil
}

func (r fieldRepo) Create(ctx context.Context, f userfields.UserCustomField) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.fields[f.ID]; ok || r.s.fieldTaken(f) {
		return store.ErrDuplicate
	}
	r.s.fields[f.ID] = cloneField(f)
	r.s.fieldOrder = append(r.s.fieldOrder, f.ID)
	return nil
}

func (r fieldRepo) Update(ctx context.Context, f userfields.UserCustomField) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.fields[f.ID]; !ok {
		return store.ErrNotFound
	}
	if r.s.fieldTaken(f) {
		return store.ErrDuplicate
	}
	r.s.fields[f.ID] = cloneField(f)
	return nil
}

func (r fieldRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.fields[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.fields, id)
	r.s.fieldOrder = slices.DeleteFunc(r.s.fieldOrder, func(x string) bool { return x == id })
	return nil
}

// fieldTaken reports whether another definition has f's (name,
// internal_name) pair. Callers hold mu.
func (s *Store) fieldTaken(f userfields.UserCustomField) bool {
	for id, other := range s.fields {
		if id != f.ID && other.Name == f.Name && other.InternalName == f.InternalName {
			return true
		}
	}
	return false
}

type userRepo struct{ s *Store }

func (r userRepo) List(ctx context.Context) ([]userfields.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]userfields.User, 0, len(r.s.userOrder))
	for _, id := range r.s.userOrder {
		u, err := cloneUser(r.s.users[id])
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r userRepo) Get(ctx context.Context, id string) (userfields.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return userfields.User{}, store.ErrNotFound
	}
	return cloneUser(u)
}

func (r userRepo) Create(ctx context.Context, u userfields.User) error {
	c, err := cloneUser(u)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok || r.s.emailTaken(u) {
		return store.ErrDuplicate
	}
	r.s.users[u.ID] = c
	r.s.userOrder = append(r.s.userOrder, u.ID)
	return nil
}

func (r userRepo) Update(ctx context.Context, u userfields.User) error {
	c, err := cloneUser(u)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	if r.s.emailTaken(u) {
		return store.ErrDuplicate
	}
	r.s.users[u.ID] = c
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.users, id)
	r.s.userOrder = slices.DeleteFunc(r.s.userOrder, func(x string) bool { return x == id })
	return nil
}

func (s *Store) emailTaken(u userfields.User) bool {
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return true
		}
	}
	return false
}

func cloneField(f userfields.UserCustomField) userfields.UserCustomField {
	f.Options = slices.Clone(f.Options)
	return f
}

// cloneUser snapshots the dynamic fields through a JSON round trip so the
// memory store hands back the same shapes a JSON column would.
func cloneUser(u userfields.User) (userfields.User, error) {
	b, err := json.Marshal(u.DynamicFields.Clone())
	if err != nil {
		return userfields.User{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var d userfields.DynamicFields
	if err := dec.Decode(&d); err != nil {
		return userfields.User{}, err
	}
	u.DynamicFields = d
	return u, nil
}

var _ store.Store = (*Store)(nil)
