package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carbon/internal/domain"
)

var _ domain.SessionStore = (*DB)(nil)

// Current returns the active session, if any.
func (d *DB) Current(ctx context.Context) (*domain.Session, error) {
	var s domain.Session
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, name, email FROM current_session WHERE slot = 1",
	).Scan(&s.UserID, &s.Name, &s.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Set makes s the active session, replacing any previous one.
func (d *DB) Set(ctx context.Context, s domain.Session) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO current_session (slot, user_id, name, email, updated_at) VALUES (1, $1, $2, $3, $4)
		 ON CONFLICT (slot) DO UPDATE SET user_id = EXCLUDED.user_id, name = EXCLUDED.name, email = EXCLUDED.email, updated_at = EXCLUDED.updated_at`,
		s.UserID, s.Name, s.Email, time.Now().UTC(),
	)
	return err
}

// Clear removes the active session.
func (d *DB) Clear(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM current_session")
	return err
}
