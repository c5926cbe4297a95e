package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEmailTaken is returned by UserRepository.Create when the email is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

// User is the durable account plus footprint data for one registered user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Footprint Footprint `json:"carbonData"`
	History   History   `json:"history"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the projection of the active user; it never carries the password.
type Session struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SessionFor projects u into a Session.
func SessionFor(u *User) Session {
	return Session{UserID: u.ID, Name: u.Name, Email: u.Email}
}

// UserRepository defines the port for the durable user list.
// Lookups return (nil, nil) when no record matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	SaveFootprint(ctx context.Context, id string, f Footprint, h History) (bool, error)
	// Delete removes user id. Deleting a missing user is not an error.
	Delete(ctx context.Context, id string) error
}

// SessionStore defines the port for the single current-session pointer.
// Current returns (nil, nil) when nobody is signed in.
type SessionStore interface {
	Current(ctx context.Context) (*Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
