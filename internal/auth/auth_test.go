package auth_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"intelhub/internal/auth"
	"intelhub/internal/hashing"
	"intelhub/internal/logging"
	"intelhub/internal/policy"
	"intelhub/internal/testutil"
	"intelhub/internal/users"
)

func newHasher(t *testing.T) *hashing.Manager {
	t.Helper()
	h, err := hashing.New(hashing.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	return h
}

func newService(t *testing.T, store users.CredentialStore, opts auth.Options) *auth.Service {
	t.Helper()
	return auth.NewService(store, newHasher(t), logging.Discard(), opts)
}

func rejectionReason(t *testing.T, err error) policy.Reason {
	t.Helper()
	var rej *policy.Rejection
	require.True(t, errors.As(err, &rej), "expected rejection, got %v", err)
	return rej.Reason
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	stores := map[string]users.CredentialStore{
		"relational": testutil.NewMemStore(),
		"legacy":     users.NewFileStore(filepath.Join(t.TempDir(), "users.txt")),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			svc := newService(t, store, auth.Options{})

			role, err := svc.Register(ctx, "alice", "Str0ng!Pass2024", users.RoleAnalyst)
			require.NoError(t, err)
			assert.Equal(t, users.RoleAnalyst, role)

			_, err = svc.Login(ctx, "alice", "wrong")
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.ErrorIs(t, err, auth.ErrInvalidPassword)

			role, err = svc.Login(ctx, "alice", "Str0ng!Pass2024")
			require.NoError(t, err)
			assert.Equal(t, users.RoleAnalyst, role)

			_, err = svc.Login(ctx, "nobody", "Str0ng!Pass2024")
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.ErrorIs(t, err, auth.ErrUsernameNotFound)
		})
	}
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := newService(t, store, auth.Options{})

	_, err := svc.Register(ctx, "bob", "abcdef12", "")
	require.NoError(t, err)

	rec, err := store.Find(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, "abcdef12", rec.PasswordHash)
	assert.True(t, hashing.IsHashToken(rec.PasswordHash))
	assert.Equal(t, users.RoleUser, rec.Role)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := newService(t, store, auth.Options{})

	_, err := svc.Register(ctx, "carol", "abcdef12", users.RoleUser)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "carol", "Other0ne99", users.RoleAdmin)
	assert.ErrorIs(t, err, users.ErrDuplicateUsername)
	assert.Equal(t, auth.KindDuplicate, auth.Classify(err))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	role, err := svc.Login(ctx, "carol", "abcdef12")
	require.NoError(t, err)
	assert.Equal(t, users.RoleUser, role)
}

func TestRegisterRejections(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := newService(t, store, auth.Options{})

	cases := []struct {
		name string
		reg  auth.Registration
		want policy.Reason
	}{
		{"short username", auth.Registration{Username: "ab", Password: "abcdef12", Confirm: "abcdef12"}, policy.ReasonInvalidUsername},
		{"username with space", auth.Registration{Username: "has space", Password: "abcdef12", Confirm: "abcdef12"}, policy.ReasonInvalidUsername},
		{"short password", auth.Registration{Username: "dave1", Password: "ab1", Confirm: "ab1"}, policy.ReasonInvalidPassword},
		{"mismatch", auth.Registration{Username: "dave1", Password: "abcdef12", Confirm: "abcdef13"}, policy.ReasonPasswordMismatch},
		{"deny-listed", auth.Registration{Username: "dave1", Password: "password123", Confirm: "password123"}, policy.ReasonWeakPassword},
		{"no digit", auth.Registration{Username: "dave1", Password: "abcdefgh", Confirm: "abcdefgh"}, policy.ReasonWeakPassword},
		{"unknown role", auth.Registration{Username: "dave1", Password: "abcdef12", Confirm: "abcdef12", Role: "root"}, policy.ReasonInvalidRole},
		{"username checked first", auth.Registration{Username: "x", Password: "1", Confirm: "2"}, policy.ReasonInvalidUsername},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.RegisterConfirmed(ctx, c.reg)
			require.Error(t, err)
			assert.Equal(t, c.want, rejectionReason(t, err))
			assert.Equal(t, auth.KindRejected, auth.Classify(err))
		})
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected registrations must not store anything")
}

func TestRegisterTrimsUsername(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, testutil.NewMemStore(), auth.Options{})

	_, err := svc.RegisterConfirmed(ctx, auth.Registration{
		Username: "  erin  ",
		Password: "abcdef12",
		Confirm:  "abcdef12",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "erin", "abcdef12")
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "  erin  ", "abcdef12")
	assert.NoError(t, err, "login trims the username like registration")
}

func TestRegisterOverlongMultibytePassword(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := newService(t, store, auth.Options{})

	// Strong and within 50 runes, but 84 bytes.
	long := strings.Repeat("é", 40) + "Ab1!"
	out := svc.RegisterOutcome(ctx, auth.Registration{Username: "gwen", Password: long, Confirm: long})
	assert.False(t, out.Success)
	assert.Equal(t, auth.KindRejected, out.Kind)
	assert.Contains(t, out.Message, "72 bytes")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// 72 bytes exactly still registers and logs in.
	edge := strings.Repeat("é", 34) + "Ab1!"
	role, err := svc.Register(ctx, "gwen", edge, users.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, users.RoleUser, role)

	role, err = svc.Login(ctx, "gwen", edge)
	require.NoError(t, err)
	assert.Equal(t, users.RoleUser, role)

	_, err = svc.Login(ctx, "gwen", edge+"x")
	assert.ErrorIs(t, err, auth.ErrInvalidPassword)
}

func TestRegisterStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	store.InsertErr = errors.New("disk full")
	svc := newService(t, store, auth.Options{})

	_, err := svc.Register(ctx, "frank", "abcdef12", users.RoleUser)
	require.Error(t, err)
	assert.Equal(t, auth.KindFailure, auth.Classify(err))

	out := svc.RegisterOutcome(ctx, auth.Registration{Username: "frank", Password: "abcdef12", Confirm: "abcdef12"})
	assert.False(t, out.Success)
	assert.Nil(t, out.Role)
	assert.NotContains(t, out.Message, "disk full")
}

func TestLoginMalformedStoredHash(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	_, err := store.Insert(ctx, users.Record{Username: "gina", PasswordHash: "not-a-hash"})
	require.NoError(t, err)
	svc := newService(t, store, auth.Options{})

	_, err = svc.Login(ctx, "gina", "not-a-hash")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestOutcomes(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()

	unified := newService(t, store, auth.Options{})
	out := unified.RegisterOutcome(ctx, auth.Registration{
		Username: "alice", Password: "Str0ng!Pass2024", Confirm: "Str0ng!Pass2024", Role: "analyst",
	})
	require.True(t, out.Success)
	require.NotNil(t, out.Role)
	assert.Equal(t, users.RoleAnalyst, *out.Role)

	out = unified.RegisterOutcome(ctx, auth.Registration{
		Username: "alice", Password: "Str0ng!Pass2024", Confirm: "Str0ng!Pass2024",
	})
	assert.False(t, out.Success)
	assert.Equal(t, auth.KindDuplicate, out.Kind)
	assert.Equal(t, "Username already exists.", out.Message)

	out = unified.LoginOutcome(ctx, "alice", "Str0ng!Pass2024")
	require.True(t, out.Success)
	assert.Equal(t, users.RoleAnalyst, *out.Role)

	missing := unified.LoginOutcome(ctx, "nobody", "x")
	wrong := unified.LoginOutcome(ctx, "alice", "x")
	assert.False(t, missing.Success)
	assert.Nil(t, missing.Role)
	assert.Equal(t, missing.Message, wrong.Message, "unified messages do not reveal accounts")

	distinct := newService(t, store, auth.Options{DistinctLoginErrors: true})
	assert.Equal(t, "Username not found.", distinct.LoginOutcome(ctx, "nobody", "x").Message)
	assert.Equal(t, "Invalid password.", distinct.LoginOutcome(ctx, "alice", "x").Message)
}

func TestAdmin(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := newService(t, store, auth.Options{})
	admin := auth.NewAdmin(store, logging.Discard())

	_, err := svc.Register(ctx, "henry", "abcdef12", users.RoleUser)
	require.NoError(t, err)

	n, err := admin.UpdateRole(ctx, "henry", "admin")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	role, err := svc.Login(ctx, "henry", "abcdef12")
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, role)

	_, err = admin.UpdateRole(ctx, "henry", "")
	assert.ErrorIs(t, err, users.ErrInvalidRole)

	n, err = admin.UpdateRole(ctx, "nobody", "analyst")
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := admin.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err = admin.Delete(ctx, "henry")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = svc.Login(ctx, "henry", "abcdef12")
	assert.ErrorIs(t, err, auth.ErrUsernameNotFound)
}

func TestSeedFromFile(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := newService(t, store, auth.Options{})

	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  - username: root1
    password: changeme1
    role: admin
  - username: viewer
    password: viewer99
`), 0o600))

	n, err := svc.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	role, err := svc.Login(ctx, "root1", "changeme1")
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, role)

	n, err = svc.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding is idempotent")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("users:\n  - username: x\n    password: y\n"), 0o600))
	_, err = svc.SeedFromFile(ctx, bad)
	assert.Equal(t, policy.ReasonInvalidUsername, rejectionReason(t, err))
}
