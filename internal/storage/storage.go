package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// UsersTable is the reserved table holding user accounts. It is never
// listed, browsed, exported, or dropped through the store's table
// operations.
const UsersTable model.TableName = "users"

// reservedPrefix marks SQLite's own catalog tables (sqlite_sequence
// and friends), which the store never exposes.
const reservedPrefix = "sqlite_"

const usersDDL = `CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	name TEXT,
	password_hash TEXT NOT NULL,
	role TEXT DEFAULT 'user',
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
)`

// Store is a handle to the SQLite database holding imported tables and
// user accounts. It is safe for concurrent use; write conflicts between
// concurrent imports are resolved by SQLite's transaction locking.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the users table exists. The special path ":memory:" opens an
// in-process database that vanishes on Close.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	// Wait rather than fail when another connection holds the write
	// lock during an import.
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, usersDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure users table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying database handle for read-side consumers
// such as export, insights, and outlier detection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Exists reports whether a table with the given name exists, reserved
// tables included.
func (s *Store) Exists(ctx context.Context, name model.TableName) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		name.String(),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return true, nil
}

// reserved reports whether the name belongs to an internal table.
func reserved(name model.TableName) bool {
	return name == UsersTable || strings.HasPrefix(name.String(), reservedPrefix)
}

// checkTableName validates an identifier before it is placed into SQL
// text. Identifiers are bracket-quoted rather than parameterized, so
// everything that reaches a query must already match the normalized
// grammar and must not name an internal table.
func checkTableName(name model.TableName) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name.String())
	}
	if reserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedTable, name.String())
	}
	return nil
}
