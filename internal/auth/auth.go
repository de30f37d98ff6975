package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"

	"intelhub/internal/hashing"
	"intelhub/internal/policy"
	"intelhub/internal/users"
)

var (
	// ErrInvalidCredentials matches every login denial.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameNotFound   = fmt.Errorf("%w: username not found", ErrInvalidCredentials)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid password", ErrInvalidCredentials)
)

type Options struct {
	// DistinctLoginErrors tells "username not found" and "invalid password"
	// apart in outward messages. Off by default so messages do not reveal
	// which usernames exist.
	DistinctLoginErrors bool
}

// Service is the single entry point for registration and login. It works
// against any users.CredentialStore.
type Service struct {
	store   users.CredentialStore
	hasher  hashing.Hasher
	logger  *slog.Logger
	opts    Options
	conform *mold.Transformer
}

func NewService(store users.CredentialStore, hasher hashing.Hasher, logger *slog.Logger, opts Options) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		logger:  logger,
		opts:    opts,
		conform: modifiers.New(),
	}
}

type Registration struct {
	Username string `json:"username" mod:"trim"`
	Password string `json:"password"`
	Confirm  string `json:"confirm_password"`
	Role     string `json:"role" mod:"trim"`
}

// Register is RegisterConfirmed with the password used as its own
// confirmation.
func (s *Service) Register(ctx context.Context, username, password string, role users.Role) (users.Role, error) {
	return s.RegisterConfirmed(ctx, Registration{
		Username: username,
		Password: password,
		Confirm:  password,
		Role:     string(role),
	})
}

// RegisterConfirmed validates, hashes and stores a new account. Validation
// failures are *policy.Rejection; an existing username is
// users.ErrDuplicateUsername. Nothing is stored unless every check passes.
func (s *Service) RegisterConfirmed(ctx context.Context, reg Registration) (users.Role, error) {
	if err := s.conform.Struct(ctx, &reg); err != nil {
		return "", fmt.Errorf("normalize registration: %w", err)
	}
	if err := policy.ValidateUsername(reg.Username); err != nil {
		return "", err
	}
	if err := policy.ValidatePassword(reg.Password); err != nil {
		return "", err
	}
	if err := policy.ValidateConfirmation(reg.Password, reg.Confirm); err != nil {
		return "", err
	}
	if err := policy.RequireStrength(reg.Password); err != nil {
		return "", err
	}
	role, err := users.ParseRole(reg.Role)
	if err != nil {
		return "", policy.Reject(policy.ReasonInvalidRole, "Role must be one of user, admin or analyst.")
	}

	if _, err := s.store.Find(ctx, reg.Username); err == nil {
		return "", users.ErrDuplicateUsername
	} else if !errors.Is(err, users.ErrUserNotFound) {
		return "", fmt.Errorf("look up user: %w", err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	rec, err := s.store.Insert(ctx, users.Record{
		Username:     reg.Username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateUsername) {
			return "", err
		}
		return "", fmt.Errorf("store user: %w", err)
	}

	s.logger.Info("user registered", "username", rec.Username, "role", rec.Role)
	return rec.Role, nil
}

// Login returns the stored role on success. Denials match
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (users.Role, error) {
	// Same normalization as Registration.Username.
	if err := s.conform.Field(ctx, &username, "trim"); err != nil {
		return "", fmt.Errorf("normalize username: %w", err)
	}
	rec, err := s.store.Find(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return "", ErrUsernameNotFound
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	ok, err := s.hasher.Verify(password, rec.PasswordHash)
	if err != nil {
		if errors.Is(err, hashing.ErrMalformedHash) {
			s.logger.Warn("stored password hash is malformed", "username", username, "err", err)
			return "", ErrInvalidPassword
		}
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidPassword
	}
	return rec.Role, nil
}
