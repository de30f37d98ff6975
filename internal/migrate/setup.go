package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"intelhub/internal/auth"
	"intelhub/internal/db"
	"intelhub/internal/hashing"
	"intelhub/internal/users"
)

// Setup is the one-shot procedure run before the first login or
// registration. Every step is idempotent.
type Setup struct {
	DB     *sql.DB
	Legacy *users.FileStore
	Hasher hashing.Hasher
	Logger *slog.Logger
	// SeedPath is an optional YAML file of bootstrap accounts.
	SeedPath string
}

type Summary struct {
	Report Report
	Seeded int
	Users  int64
}

func (s Setup) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	if err := db.RunMigrations(ctx, s.DB); err != nil {
		return sum, err
	}
	s.Logger.Info("schema ready")

	store := users.NewStore(s.DB)
	report, err := New(s.Hasher, s.Logger).Migrate(ctx, s.Legacy, store)
	sum.Report = report
	if err != nil && !errors.Is(err, users.ErrSourceNotFound) {
		return sum, fmt.Errorf("migrate legacy users: %w", err)
	}

	if s.SeedPath != "" {
		svc := auth.NewService(store, s.Hasher, s.Logger, auth.Options{})
		n, err := svc.SeedFromFile(ctx, s.SeedPath)
		sum.Seeded = n
		if err != nil {
			return sum, fmt.Errorf("seed users: %w", err)
		}
	}

	if sum.Users, err = store.Count(ctx); err != nil {
		return sum, fmt.Errorf("count users: %w", err)
	}
	s.Logger.Info("setup complete",
		"migrated", sum.Report.Migrated,
		"seeded", sum.Seeded,
		"users", sum.Users,
	)
	return sum, nil
}
