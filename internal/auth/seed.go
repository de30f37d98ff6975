package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"intelhub/internal/policy"
	"intelhub/internal/users"
)

type usersFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile creates bootstrap accounts listed in a YAML file. Existing
// usernames are left untouched, so it can run on every setup. Seeded
// passwords must pass the shape checks but not the strength gate.
func (s *Service) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	created := 0
	for _, u := range uf.Users {
		if err := policy.ValidateUsername(u.Username); err != nil {
			return created, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		if err := policy.ValidatePassword(u.Password); err != nil {
			return created, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		role, err := users.ParseRole(u.Role)
		if err != nil {
			return created, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		if _, err := s.store.Find(ctx, u.Username); err == nil {
			continue
		} else if !errors.Is(err, users.ErrUserNotFound) {
			return created, err
		}
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return created, err
		}
		_, err = s.store.Insert(ctx, users.Record{Username: u.Username, PasswordHash: hash, Role: role})
		if errors.Is(err, users.ErrDuplicateUsername) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		s.logger.Info("seeded bootstrap users", "count", created, "path", path)
	}
	return created, nil
}
