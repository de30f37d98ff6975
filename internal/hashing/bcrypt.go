package hashing

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxBcryptSecretLen is the number of bytes bcrypt reads from a secret.
const MaxBcryptSecretLen = 72

// Bcrypt hashes secrets with bcrypt. The salt and cost live inside the
// Modular Crypt Format token ("$2a$10$..."). Secrets over 72 bytes are
// refused rather than truncated.
type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d must be in [%d, %d]",
			ErrInvalidOption, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Cost() int { return b.cost }

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxBcryptSecretLen {
		return "", fmt.Errorf("%w: bcrypt takes at most %d bytes", ErrSecretTooLong, MaxBcryptSecretLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("hashing: bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify relies on bcrypt's constant-time digest comparison.
func (b *Bcrypt) Verify(plaintext, token string) (bool, error) {
	if format, ok := DetectFormat(token); !ok || format != FormatBcrypt {
		return false, fmt.Errorf("%w: not a bcrypt token", ErrMalformedHash)
	}
	// No stored secret is longer than 72 bytes, so a longer candidate can
	// only match through truncation.
	if len(plaintext) > MaxBcryptSecretLen {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(token), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

func bcryptWellFormed(token string) bool {
	if len(token) != 60 {
		return false
	}
	_, err := bcrypt.Cost([]byte(token))
	return err == nil
}
