package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"INTELHUB_HTTP_ADDR", "INTELHUB_DB_DRIVER", "INTELHUB_SEED_USERS_PATH",
		"INTELHUB_BCRYPT_COST", "INTELHUB_DISTINCT_LOGIN_ERRORS", "INTELHUB_HASH_DRIVER",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "bcrypt", cfg.HashDriver)
	assert.Empty(t, cfg.SeedUsersPath)
	assert.Zero(t, cfg.BcryptCost)
	assert.False(t, cfg.DistinctLoginErrors)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INTELHUB_DB_DRIVER", "pgx")
	t.Setenv("INTELHUB_LEGACY_USERS_PATH", "/srv/users.txt")
	t.Setenv("INTELHUB_BCRYPT_COST", "12")
	t.Setenv("INTELHUB_DISTINCT_LOGIN_ERRORS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "/srv/users.txt", cfg.LegacyUsersPath)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.DistinctLoginErrors)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("INTELHUB_BCRYPT_COST", "high")
	_, err := Load()
	assert.Error(t, err)
}
