// Package policy checks the shape of usernames and passwords and classifies
// password strength.
package policy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Reason string

const (
	ReasonInvalidUsername  Reason = "invalid_username"
	ReasonInvalidPassword  Reason = "invalid_password"
	ReasonPasswordMismatch Reason = "password_mismatch"
	ReasonWeakPassword     Reason = "weak_password"
	ReasonInvalidRole      Reason = "invalid_role"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
	PasswordMinLen = 6
	PasswordMaxLen = 50
	// PasswordMaxBytes is bcrypt's input limit. Multibyte passwords can hit
	// it before PasswordMaxLen runes.
	PasswordMaxBytes = 72
)

var _ error = (*Rejection)(nil)

// Rejection is a recoverable validation failure. Message is meant for
// humans; callers branch on Reason.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func Reject(reason Reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

// Lengths are counted in runes by the validator.
var (
	validate    = validator.New(validator.WithRequiredStructEnabled())
	usernameTag = fmt.Sprintf("min=%d,max=%d,alphanumunicode", UsernameMinLen, UsernameMaxLen)
	passwordTag = fmt.Sprintf("min=%d,max=%d", PasswordMinLen, PasswordMaxLen)
)

func ValidateUsername(s string) error {
	if err := validate.Var(s, usernameTag); err != nil {
		return Reject(ReasonInvalidUsername,
			fmt.Sprintf("Username must be %d-%d alphanumeric characters.", UsernameMinLen, UsernameMaxLen))
	}
	return nil
}

// ValidatePassword is the minimum bar, independent of ClassifyStrength.
func ValidatePassword(s string) error {
	if err := validate.Var(s, passwordTag); err != nil {
		return Reject(ReasonInvalidPassword,
			fmt.Sprintf("Password must be %d-%d characters.", PasswordMinLen, PasswordMaxLen))
	}
	if len(s) > PasswordMaxBytes {
		return Reject(ReasonInvalidPassword,
			fmt.Sprintf("Password must not exceed %d bytes.", PasswordMaxBytes))
	}
	return nil
}

func ValidateConfirmation(password, confirm string) error {
	if password != confirm {
		return Reject(ReasonPasswordMismatch, "Passwords do not match.")
	}
	return nil
}

// RequireStrength blocks Weak passwords.
func RequireStrength(s string) error {
	if ClassifyStrength(s) == Weak {
		return Reject(ReasonWeakPassword,
			"Password too weak. Use at least 8 characters with letters and numbers, and avoid common words.")
	}
	return nil
}
