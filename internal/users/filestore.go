package users

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var _ CredentialStore = (*FileStore)(nil)

// FileStore is the legacy append-only credential file. Each line is
// "username,hash[,role]"; a missing role means RoleUser and a role outside
// the closed set makes the line malformed.
//
// Exists and Append are not atomic together: two concurrent registrations of
// one username can both append. Callers treat the file as single-writer.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Exists matches the first field of every non-empty line, including lines
// Find would skip as malformed.
func (s *FileStore) Exists(ctx context.Context, username string) (bool, error) {
	found := false
	err := s.scan(ctx, func(line string) bool {
		first, _, _ := strings.Cut(line, ",")
		if first == username {
			found = true
			return false
		}
		return true
	})
	if errors.Is(err, ErrSourceNotFound) {
		return false, nil
	}
	return found, err
}

// Find returns the first well-formed line for username.
func (s *FileStore) Find(ctx context.Context, username string) (*Record, error) {
	var rec *Record
	err := s.scan(ctx, func(line string) bool {
		r, ok := parseLine(line)
		if ok && r.Username == username {
			rec = &r
			return false
		}
		return true
	})
	if errors.Is(err, ErrSourceNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	return rec, nil
}

// Records returns every well-formed line in file order. Duplicate usernames
// are returned as found. A missing file is ErrSourceNotFound.
func (s *FileStore) Records(ctx context.Context) ([]Record, error) {
	var out []Record
	err := s.scan(ctx, func(line string) bool {
		if r, ok := parseLine(line); ok {
			out = append(out, r)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FileStore) Append(ctx context.Context, username, hash string, role Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	role, err := ParseRole(string(role))
	if err != nil {
		return err
	}
	for _, f := range []string{username, hash, string(role)} {
		if f == "" || strings.ContainsAny(f, ",\r\n") {
			return fmt.Errorf("%w: empty or contains a separator", ErrInvalidField)
		}
	}
	exists, err := s.Exists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateUsername
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("open credential file: %w", err)
	}
	line := username + "," + hash + "," + string(role) + "\n"
	if needsNewline(f) {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append credential: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush credential file: %w", err)
	}
	return f.Close()
}

func (s *FileStore) Insert(ctx context.Context, rec Record) (*Record, error) {
	if rec.Role == "" {
		rec.Role = RoleUser
	}
	if err := s.Append(ctx, rec.Username, rec.PasswordHash, rec.Role); err != nil {
		return nil, err
	}
	return &rec, nil
}

// scan calls fn for every non-empty trimmed line until fn returns false.
func (s *FileStore) scan(ctx context.Context, fn func(line string) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, s.path)
		}
		return fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !fn(line) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read credential file: %w", err)
	}
	return nil
}

func parseLine(line string) (Record, bool) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return Record{}, false
	}
	r := Record{Username: parts[0], PasswordHash: parts[1], Role: RoleUser}
	if len(parts) == 3 {
		role, err := ParseRole(parts[2])
		if err != nil {
			return Record{}, false
		}
		r.Role = role
	}
	if r.Username == "" || r.PasswordHash == "" {
		return Record{}, false
	}
	return r, true
}

func needsNewline(f *os.File) bool {
	st, err := f.Stat()
	if err != nil || st.Size() == 0 {
		return false
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, st.Size()-1); err != nil {
		return false
	}
	return last[0] != '\n'
}
