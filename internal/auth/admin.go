package auth

import (
	"context"
	"fmt"
	"log/slog"

	"intelhub/internal/users"
)

// Admin exposes the administrative operations that registration and login
// never reach: role changes, deletion and listing.
type Admin struct {
	mgr    users.Manager
	logger *slog.Logger
}

func NewAdmin(mgr users.Manager, logger *slog.Logger) *Admin {
	return &Admin{mgr: mgr, logger: logger}
}

// UpdateRole returns the number of rows changed (0 or 1).
func (a *Admin) UpdateRole(ctx context.Context, username, role string) (int64, error) {
	r, err := users.ParseRole(role)
	if err != nil || role == "" {
		return 0, fmt.Errorf("%w: %q", users.ErrInvalidRole, role)
	}
	n, err := a.mgr.UpdateRole(ctx, username, r)
	if err != nil {
		return 0, fmt.Errorf("update role: %w", err)
	}
	if n > 0 {
		a.logger.Info("user role updated", "username", username, "role", r)
	}
	return n, nil
}

// Delete returns the number of rows removed (0 or 1).
func (a *Admin) Delete(ctx context.Context, username string) (int64, error) {
	n, err := a.mgr.Delete(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	if n > 0 {
		a.logger.Info("user deleted", "username", username)
	}
	return n, nil
}

func (a *Admin) List(ctx context.Context) ([]users.Record, error) {
	return a.mgr.List(ctx)
}
