// Package localstore persists users and the current session in a SQLite
// key/value table, one JSON document per key.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"carbon/internal/adapter/localstore/migrations"
	"carbon/internal/domain"

	_ "modernc.org/sqlite"
)

// Keys of the two top-level entries.
const (
	UsersKey   = "carbonFootprintUsers"
	SessionKey = "currentUser"
)

// Store is a SQLite backed UserRepository and SessionStore.
type Store struct {
	mu    sync.Mutex
	sqlDB *sql.DB
}

var _ domain.UserRepository = (*Store)(nil)
var _ domain.SessionStore = (*Store)(nil)

// Open opens (creating if needed) the store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// --- UserRepository ---

// GetByEmail retrieves a user by exact email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, func(u *domain.User) bool { return u.Email == email })
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, func(u *domain.User) bool { return u.ID == id })
}

func (s *Store) findUser(ctx context.Context, match func(*domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers(ctx, s.sqlDB)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(&users[i]) {
			u := users[i]
			u.History = u.History.Normalize()
			return &u, nil
		}
	}
	return nil, nil
}

// Create appends u to the user list.
func (s *Store) Create(ctx context.Context, u *domain.User) error {
	return s.updateUsers(ctx, func(users []domain.User) ([]domain.User, error) {
		for _, existing := range users {
			if existing.Email == u.Email {
				return nil, domain.ErrEmailTaken
			}
		}
		rec := *u
		rec.History = u.History.Normalize()
		return append(users, rec), nil
	})
}

// SaveFootprint replaces the footprint and history of user id.
func (s *Store) SaveFootprint(ctx context.Context, id string, f domain.Footprint, h domain.History) (bool, error) {
	found := false
	err := s.updateUsers(ctx, func(users []domain.User) ([]domain.User, error) {
		for i := range users {
			if users[i].ID == id {
				users[i].Footprint = f
				users[i].History = h.Normalize()
				found = true
				return users, nil
			}
		}
		return nil, errNoChange
	})
	return found, err
}

// Delete removes user id from the list.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.updateUsers(ctx, func(users []domain.User) ([]domain.User, error) {
		for i := range users {
			if users[i].ID == id {
				return append(users[:i], users[i+1:]...), nil
			}
		}
		return nil, errNoChange
	})
}

var errNoChange = errors.New("no change")

// updateUsers runs fn over the stored list inside one transaction and writes
// the result back. fn returning errNoChange skips the write.
func (s *Store) updateUsers(ctx context.Context, fn func([]domain.User) ([]domain.User, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	users, err := s.readUsers(ctx, tx)
	if err != nil {
		return err
	}
	users, err = fn(users)
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := put(ctx, tx, UsersKey, users); err != nil {
		return err
	}
	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) readUsers(ctx context.Context, q querier) ([]domain.User, error) {
	var users []domain.User
	if _, err := get(ctx, q, UsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// --- SessionStore ---

// Current returns the active session, if any.
func (s *Store) Current(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess domain.Session
	ok, err := get(ctx, s.sqlDB, SessionKey, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

// Set makes sess the active session.
func (s *Store) Set(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return put(ctx, s.sqlDB, SessionKey, sess)
}

// Clear removes the active session.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.sqlDB.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", SessionKey)
	return err
}

func get(ctx context.Context, q querier, key string, dst any) (bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func put(ctx context.Context, q querier, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
