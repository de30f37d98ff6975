package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	_ CredentialStore = (*Store)(nil)
	_ Manager         = (*Store)(nil)
)

const uniqueViolation = "23505"

// Store keeps credentials in the users table. The UNIQUE constraint on
// username is what serializes concurrent registrations.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Find(ctx context.Context, username string) (*Record, error) {
	return s.FindByUsername(ctx, username)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*Record, error) {
	const q = `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`
	row := s.db.QueryRowContext(ctx, q, username)
	u := &Record{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) Insert(ctx context.Context, rec Record) (*Record, error) {
	if rec.Role == "" {
		rec.Role = RoleUser
	}
	const q = `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password_hash, role, created_at
	`
	u := &Record{}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, q, rec.Username, rec.PasswordHash, rec.Role, time.Now().UTC()).
			Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateRole(ctx context.Context, username string, role Role) (int64, error) {
	if _, err := ParseRole(string(role)); err != nil || role == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.exec(ctx, `UPDATE users SET role = $1 WHERE username = $2`, role, username)
}

func (s *Store) Delete(ctx context.Context, username string) (int64, error) {
	return s.exec(ctx, `DELETE FROM users WHERE username = $1`, username)
}

func (s *Store) List(ctx context.Context) ([]Record, error) {
	const q = `SELECT id, username, role, created_at FROM users ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var u Record
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// isUniqueViolation understands errors from both lib/pq and pgx.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
