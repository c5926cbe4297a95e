package app

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordPolicy decides how passwords are stored and checked.
type PasswordPolicy interface {
	Hash(password string) (string, error)
	Matches(stored, password string) bool
}

// PlaintextPasswords stores passwords as given and compares them for
// equality. It offers no protection at rest.
type PlaintextPasswords struct{}

// Hash returns the password unchanged.
func (PlaintextPasswords) Hash(password string) (string, error) { return password, nil }

// Matches reports whether the stored value equals password.
func (PlaintextPasswords) Matches(stored, password string) bool {
	return ConstantTimeCompare(stored, password)
}

// BcryptPasswords stores bcrypt hashes.
type BcryptPasswords struct {
	Cost int
}

// Hash returns the bcrypt hash of password.
func (p BcryptPasswords) Hash(password string) (string, error) {
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether password hashes to stored.
func (BcryptPasswords) Matches(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// PasswordPolicyByName resolves a configured policy name.
func PasswordPolicyByName(name string) (PasswordPolicy, error) {
	switch name {
	case "", "plaintext":
		return PlaintextPasswords{}, nil
	case "bcrypt":
		return BcryptPasswords{}, nil
	default:
		return nil, fmt.Errorf("unknown password policy %q", name)
	}
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
