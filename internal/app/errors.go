// Package app holds the application services and business logic.
package app

import "errors"

// ErrInvalidCredentials indicates a failed login for either an unknown email
// or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationReason names the user-correctable problem with submitted input.
type ValidationReason string

// Validation reasons.
const (
	ReasonEmptyFields      ValidationReason = "empty_fields"
	ReasonInvalidEmail     ValidationReason = "invalid_email"
	ReasonWeakPassword     ValidationReason = "weak_password"
	ReasonPasswordMismatch ValidationReason = "password_mismatch"
	ReasonDuplicateEmail   ValidationReason = "duplicate_email"
)

var reasonMessages = map[ValidationReason]string{
	ReasonEmptyFields:      "all fields are required",
	ReasonInvalidEmail:     "enter a valid email address",
	ReasonWeakPassword:     "password must be at least 6 characters",
	ReasonPasswordMismatch: "passwords do not match",
	ReasonDuplicateEmail:   "a user with this email already exists",
}

// ValidationError reports input rejected before any state was touched.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	if msg, ok := reasonMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

func invalid(r ValidationReason) error {
	return &ValidationError{Reason: r}
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
