// Package storage persists imported tables and user accounts in a
// single SQLite database. It owns the create-or-append load path, the
// listing/browse/drop operations over imported tables, and the users
// repository backing session auth.
package storage

import "errors"

// Sentinel errors returned by store operations.
var (
	// ErrTableNotFound is returned when an operation references a table
	// that does not exist in the store.
	ErrTableNotFound = errors.New("storage: table not found")

	// ErrReservedTable is returned when an operation targets an
	// internal table such as users or the sqlite_ catalog tables.
	ErrReservedTable = errors.New("storage: reserved table name")

	// ErrInvalidTableName is returned when an identifier does not match
	// the normalized table name grammar.
	ErrInvalidTableName = errors.New("storage: invalid table name")

	// ErrColumnMismatch is returned when appended rows do not supply
	// exactly the column set of the existing table.
	ErrColumnMismatch = errors.New("storage: column set mismatch")

	// ErrUserExists is returned when registering an email address that
	// already has an account.
	ErrUserExists = errors.New("storage: email already registered")

	// ErrUserNotFound is returned when a user lookup matches no row.
	ErrUserNotFound = errors.New("storage: user not found")

	// ErrInvalidCredentials is returned when authentication fails. It
	// does not distinguish unknown emails from wrong passwords.
	ErrInvalidCredentials = errors.New("storage: invalid credentials")
)
