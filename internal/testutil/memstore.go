package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"intelhub/internal/users"
)

var (
	_ users.CredentialStore = (*MemStore)(nil)
	_ users.Manager         = (*MemStore)(nil)
)

// MemStore is an in-memory stand-in for the relational store.
type MemStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[string]users.Record

	// InsertErr, when set, is returned by Insert instead of storing.
	InsertErr error
}

func NewMemStore() *MemStore {
	return &MemStore{records: map[string]users.Record{}}
}

func (m *MemStore) Find(_ context.Context, username string) (*users.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[username]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &r, nil
}

func (m *MemStore) Insert(_ context.Context, rec users.Record) (*users.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return nil, m.InsertErr
	}
	if _, ok := m.records[rec.Username]; ok {
		return nil, users.ErrDuplicateUsername
	}
	if rec.Role == "" {
		rec.Role = users.RoleUser
	}
	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now().UTC()
	m.records[rec.Username] = rec
	return &rec, nil
}

func (m *MemStore) UpdateRole(_ context.Context, username string, role users.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[username]
	if !ok {
		return 0, nil
	}
	r.Role = role
	m.records[username] = r
	return 1, nil
}

func (m *MemStore) Delete(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[username]; !ok {
		return 0, nil
	}
	delete(m.records, username)
	return 1, nil
}

func (m *MemStore) List(context.Context) ([]users.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]users.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}
