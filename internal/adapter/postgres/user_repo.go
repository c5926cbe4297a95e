package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carbon/internal/domain"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var _ domain.UserRepository = (*DB)(nil)

const userColumns = "id, name, email, password, footprint, history, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                  domain.User
		footprint, history []byte
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &footprint, &history, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(footprint, &u.Footprint); err != nil {
		return nil, fmt.Errorf("decode footprint for %s: %w", u.ID, err)
	}
	if err := json.Unmarshal(history, &u.History); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", u.ID, err)
	}
	u.History = u.History.Normalize()
	return &u, nil
}

// GetByEmail retrieves a user by exact email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// Create inserts a new user.
func (d *DB) Create(ctx context.Context, u *domain.User) error {
	footprint, history, err := encodeState(u.Footprint, u.History)
	if err != nil {
		return err
	}
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = d.sql.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		u.ID, u.Name, u.Email, u.Password, footprint, history, createdAt.UTC(),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

// SaveFootprint replaces the stored footprint and history of user id.
func (d *DB) SaveFootprint(ctx context.Context, id string, f domain.Footprint, h domain.History) (bool, error) {
	footprint, history, err := encodeState(f, h)
	if err != nil {
		return false, err
	}
	res, err := d.sql.ExecContext(ctx,
		"UPDATE users SET footprint = $2, history = $3 WHERE id = $1",
		id, footprint, history,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes user id.
func (d *DB) Delete(ctx context.Context, id string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}

func encodeState(f domain.Footprint, h domain.History) ([]byte, []byte, error) {
	footprint, err := json.Marshal(f)
	if err != nil {
		return nil, nil, fmt.Errorf("encode footprint: %w", err)
	}
	history, err := json.Marshal(h.Normalize())
	if err != nil {
		return nil, nil, fmt.Errorf("encode history: %w", err)
	}
	return footprint, history, nil
}
