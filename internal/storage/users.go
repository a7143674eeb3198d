package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered account. The password hash never leaves the
// package.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

const userColumns = "id, email, name, role, created_at"

// CreateUser registers an account. The email is trimmed and lowercased
// before storage so lookups are case-insensitive; the password is
// stored as a bcrypt hash. Registering an email twice returns
// ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, email, name, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if _, err := s.UserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)",
		email, name, string(hash))
	if err != nil {
		// Concurrent registration of the same email loses the race at
		// the UNIQUE constraint.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.UserByID(ctx, id)
}

// UserByEmail looks up an account by its lowercased email address.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	u, err := scanUser(row, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	return u, nil
}

// UserByID looks up an account by its row id.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("look up user by id: %w", err)
	}
	return u, nil
}

// Authenticate verifies an email/password pair and returns the account
// on success. Unknown emails and wrong passwords both return
// ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+", password_hash FROM users WHERE email = ?", email)
	var hash string
	u, err := scanUser(row, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// scanUser scans one users row. When hash is non-nil the query must
// select password_hash as its final column.
func scanUser(row *sql.Row, hash *string) (*User, error) {
	var (
		u          User
		name, role sql.NullString
	)
	dest := []any{&u.ID, &u.Email, &name, &role, &u.CreatedAt}
	if hash != nil {
		dest = append(dest, hash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Name = name.String
	u.Role = role.String
	if u.Role == "" {
		u.Role = "user"
	}
	return &u, nil
}
