// Package migrate moves credentials from the legacy flat file into the
// relational users table.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"intelhub/internal/hashing"
	"intelhub/internal/users"
)

// Source yields legacy records in file order. *users.FileStore implements it.
type Source interface {
	Records(ctx context.Context) ([]users.Record, error)
}

type Report struct {
	RunID    uuid.UUID
	Migrated int
	Skipped  int
	// Rehashed counts plaintext secrets hashed on the way in; CarriedOver
	// counts values that were already hash tokens and were copied as-is.
	Rehashed    int
	CarriedOver int
	// Refused counts plaintext secrets the hasher cannot take whole, such as
	// bcrypt input over 72 bytes. Those users are left out of the run.
	Refused int
}

type result int

const (
	resultSkipped result = iota
	resultRefused
	resultRehashed
	resultCarriedOver
)

type Migrator struct {
	hasher hashing.Hasher
	logger *slog.Logger
}

func New(hasher hashing.Hasher, logger *slog.Logger) *Migrator {
	return &Migrator{hasher: hasher, logger: logger}
}

// Migrate copies every legacy record whose username is not yet in dst.
// Running it again over the same pair migrates nothing.
//
// A missing source returns users.ErrSourceNotFound and an empty report. Any
// other error stops the run; records inserted before it stay committed.
func (m *Migrator) Migrate(ctx context.Context, src Source, dst users.CredentialStore) (Report, error) {
	report := Report{RunID: uuid.New()}
	log := m.logger.With("run_id", report.RunID.String())

	records, err := src.Records(ctx)
	if err != nil {
		if errors.Is(err, users.ErrSourceNotFound) {
			log.Info("no legacy credential file, nothing to migrate")
			return report, err
		}
		return report, fmt.Errorf("read legacy credentials: %w", err)
	}

	for _, rec := range records {
		res, err := m.migrateOne(ctx, rec, dst)
		if err != nil {
			log.Error("migration aborted", "username", rec.Username, "err", err)
			return report, fmt.Errorf("migrate %q: %w", rec.Username, err)
		}
		switch res {
		case resultSkipped:
			report.Skipped++
		case resultRefused:
			log.Warn("legacy secret cannot be hashed, user not migrated", "username", rec.Username)
			report.Refused++
		case resultRehashed:
			report.Migrated++
			report.Rehashed++
		case resultCarriedOver:
			report.Migrated++
			report.CarriedOver++
		}
	}

	log.Info("legacy credentials migrated",
		"migrated", report.Migrated,
		"skipped", report.Skipped,
		"rehashed", report.Rehashed,
		"carried_over", report.CarriedOver,
		"refused", report.Refused,
	)
	return report, nil
}

func (m *Migrator) migrateOne(ctx context.Context, rec users.Record, dst users.CredentialStore) (result, error) {
	if _, err := dst.Find(ctx, rec.Username); err == nil {
		return resultSkipped, nil
	} else if !errors.Is(err, users.ErrUserNotFound) {
		return resultSkipped, err
	}

	role, err := users.ParseRole(string(rec.Role))
	if err != nil {
		return resultSkipped, err
	}

	// The oldest files hold plaintext in the hash column. Anything that is
	// already a recognised token is kept, never hashed a second time.
	res := resultCarriedOver
	hash := rec.PasswordHash
	if !hashing.IsHashToken(hash) {
		if hash, err = m.hasher.Hash(rec.PasswordHash); err != nil {
			if errors.Is(err, hashing.ErrSecretTooLong) {
				return resultRefused, nil
			}
			return resultSkipped, err
		}
		res = resultRehashed
	}

	_, err = dst.Insert(ctx, users.Record{Username: rec.Username, PasswordHash: hash, Role: role})
	if errors.Is(err, users.ErrDuplicateUsername) {
		return resultSkipped, nil
	}
	if err != nil {
		return resultSkipped, err
	}
	return res, nil
}
