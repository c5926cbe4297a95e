// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sync"

	"carbon/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu      sync.Mutex
	users   []*domain.User
	current *domain.Session
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionStore = (*DB)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by exact email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return clone(u), nil
		}
	}
	return nil, nil
}

// Create appends a new user.
func (db *DB) Create(ctx context.Context, u *domain.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	db.users = append(db.users, clone(u))
	return nil
}

// SaveFootprint replaces the footprint and history of user id.
func (db *DB) SaveFootprint(ctx context.Context, id string, f domain.Footprint, h domain.History) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.Footprint = f
			u.History = h.Normalize()
			return true, nil
		}
	}
	return false, nil
}

// Delete removes user id.
func (db *DB) Delete(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, u := range db.users {
		if u.ID == id {
			db.users = append(db.users[:i], db.users[i+1:]...)
			return nil
		}
	}
	return nil
}

// Count returns the number of stored users. It is an inspection helper for
// tests and is not part of the repository port.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionStore ---

// Current returns the active session, if any.
func (db *DB) Current(ctx context.Context) (*domain.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.current == nil {
		return nil, nil
	}
	s := *db.current
	return &s, nil
}

// Set makes s the active session.
func (db *DB) Set(ctx context.Context, s domain.Session) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.current = &s
	return nil
}

// Clear removes the active session.
func (db *DB) Clear(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.current = nil
	return nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.History = u.History.Normalize()
	return &c
}
