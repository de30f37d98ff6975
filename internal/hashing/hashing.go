// Package hashing turns plaintext secrets into self-contained, salted hash
// tokens and verifies secrets against them.
//
// A token carries everything needed to verify it: the algorithm tag, the
// cost parameters and the salt. Tokens from several algorithms can coexist;
// [Manager] hashes with one configured driver and verifies by detecting the
// token's format.
package hashing

import (
	"errors"
	"strings"
)

type Format string

const (
	FormatBcrypt      Format = "bcrypt"
	FormatArgon2id    Format = "argon2id"
	FormatMD5Crypt    Format = "md5-crypt"
	FormatSHA256Crypt Format = "sha256-crypt"
	FormatSHA512Crypt Format = "sha512-crypt"
)

var (
	// ErrMalformedHash is returned by Verify when a token cannot be parsed.
	// Verification always reports false alongside it.
	ErrMalformedHash = errors.New("hashing: malformed hash")
	ErrUnsupported   = errors.New("hashing: operation not supported by driver")
	ErrInvalidOption = errors.New("hashing: invalid option")
	// ErrSecretTooLong is returned by Hash when the driver cannot take the
	// whole secret without truncating it.
	ErrSecretTooLong = errors.New("hashing: secret too long")
)

// Hasher is implemented by every hashing driver. Implementations must be safe
// for concurrent use.
type Hasher interface {
	// Hash returns a new token for plaintext. A fresh salt is drawn on every
	// call, so hashing the same secret twice yields different tokens.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches token. A mismatch is (false,
	// nil); a token that cannot be parsed is (false, ErrMalformedHash).
	Verify(plaintext, token string) (bool, error)
}

// DetectFormat inspects the algorithm tag at the start of token. It does not
// validate the rest of the token.
func DetectFormat(token string) (Format, bool) {
	switch {
	case strings.HasPrefix(token, "$argon2id$"):
		return FormatArgon2id, true
	case strings.HasPrefix(token, "$2a$"),
		strings.HasPrefix(token, "$2b$"),
		strings.HasPrefix(token, "$2y$"):
		return FormatBcrypt, true
	case strings.HasPrefix(token, "$1$"):
		return FormatMD5Crypt, true
	case strings.HasPrefix(token, "$5$"):
		return FormatSHA256Crypt, true
	case strings.HasPrefix(token, "$6$"):
		return FormatSHA512Crypt, true
	default:
		return "", false
	}
}

// IsHashToken reports whether s is a structurally valid token of a known
// format, as opposed to a plaintext secret.
func IsHashToken(s string) bool {
	format, ok := DetectFormat(s)
	if !ok {
		return false
	}
	switch format {
	case FormatBcrypt:
		return bcryptWellFormed(s)
	case FormatArgon2id:
		_, _, _, err := decodeArgon2id(s)
		return err == nil
	default:
		return cryptWellFormed(s)
	}
}
