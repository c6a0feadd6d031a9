// Package identity implements the account lifecycle: registration,
// email verification, login with lockout, and password reset.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrInvalidOrExpiredToken covers every token failure kind. Clients
	// never learn whether a token was expired, tampered with, superseded
	// or already consumed; logs may distinguish, responses do not.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrInvalidCredentials is returned for a wrong email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLocked is returned when the lockout tracker reports too many
	// failed attempts for the requester.
	ErrLocked = errors.New("too many failed attempts")
	// ErrInactive is returned for correct credentials on an account that
	// is not active. Handlers map it to the same status code as
	// ErrInvalidCredentials so it cannot be used as an existence oracle.
	ErrInactive = errors.New("account inactive")
	// ErrValidation marks malformed input. The wrapped message names the
	// offending fields.
	ErrValidation = errors.New("validation failed")
)

var validate = validator.New()

// validateStruct runs the validate tags of s and flattens failures into
// a single ErrValidation with field names.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var msgs []string
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// newID returns a fresh ULID string, used for user, profile and project
// ids and for opaque handles.
func newID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NormalizeEmail lowercases and trims an email address. All storage and
// comparisons work on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
