package auth

import (
	"context"
	"errors"

	"intelhub/internal/policy"
	"intelhub/internal/users"
)

type Kind int

const (
	KindOK Kind = iota
	KindRejected
	KindDuplicate
	KindDenied
	KindFailure
)

// Outcome is the (success, message, role) triple handed to dashboards. Role
// is nil unless Success.
type Outcome struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Role    *users.Role `json:"role"`
	Kind    Kind        `json:"-"`
}

func Classify(err error) Kind {
	var rej *policy.Rejection
	switch {
	case err == nil:
		return KindOK
	case errors.As(err, &rej):
		return KindRejected
	case errors.Is(err, users.ErrDuplicateUsername):
		return KindDuplicate
	case errors.Is(err, ErrInvalidCredentials):
		return KindDenied
	default:
		return KindFailure
	}
}

func (s *Service) RegisterOutcome(ctx context.Context, reg Registration) Outcome {
	role, err := s.RegisterConfirmed(ctx, reg)
	if err != nil {
		if Classify(err) == KindFailure {
			s.logger.Error("registration failed", "username", reg.Username, "err", err)
		}
		return s.failure(err)
	}
	return Outcome{Success: true, Message: "Account created successfully.", Role: &role}
}

func (s *Service) LoginOutcome(ctx context.Context, username, password string) Outcome {
	role, err := s.Login(ctx, username, password)
	if err != nil {
		if Classify(err) == KindFailure {
			s.logger.Error("login failed", "username", username, "err", err)
		}
		return s.failure(err)
	}
	return Outcome{Success: true, Message: "Login successful.", Role: &role}
}

func (s *Service) failure(err error) Outcome {
	return Outcome{Message: s.Message(err), Kind: Classify(err)}
}

// Message renders err for people. Storage failures get a generic text; their
// detail goes to the log only.
func (s *Service) Message(err error) string {
	var rej *policy.Rejection
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rej):
		return rej.Message
	case errors.Is(err, users.ErrDuplicateUsername):
		return "Username already exists."
	case errors.Is(err, ErrUsernameNotFound) && s.opts.DistinctLoginErrors:
		return "Username not found."
	case errors.Is(err, ErrInvalidPassword) && s.opts.DistinctLoginErrors:
		return "Invalid password."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	default:
		return "The request could not be completed due to a storage error."
	}
}
