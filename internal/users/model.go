package users

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidRole       = errors.New("invalid role")
	ErrSourceNotFound    = errors.New("credential source not found")
	ErrInvalidField      = errors.New("field cannot be stored")
)

func Roles() []Role {
	return []Role{RoleUser, RoleAdmin, RoleAnalyst}
}

// ParseRole maps "" to RoleUser and rejects anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleUser, RoleAdmin, RoleAnalyst:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Record is one stored credential. ID and CreatedAt are only set by the
// relational store.
type Record struct {
	ID           int64     `json:"id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// CredentialStore is the capability the authentication service needs. Both
// FileStore and Store implement it.
type CredentialStore interface {
	// Find returns ErrUserNotFound when no record exists.
	Find(ctx context.Context, username string) (*Record, error)
	// Insert creates username+hash+role at once, or returns
	// ErrDuplicateUsername.
	Insert(ctx context.Context, rec Record) (*Record, error)
}

// Manager covers administrative operations. Only the relational store
// supports them.
type Manager interface {
	UpdateRole(ctx context.Context, username string, role Role) (int64, error)
	Delete(ctx context.Context, username string) (int64, error)
	List(ctx context.Context) ([]Record, error)
}
