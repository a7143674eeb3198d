// Package model provides the domain model for sheetsql.
package model

import "errors"

// ErrEmptyTable is returned when a parsed input has no columns.
var ErrEmptyTable = errors.New("table has no columns")

// ErrColumnCountMismatch is returned when a schema plan and a
// normalized table disagree on the number of columns.
var ErrColumnCountMismatch = errors.New("column count mismatch")

// ErrColumnNotFound is returned when a planned column is missing from
// the normalized table.
var ErrColumnNotFound = errors.New("column not found")
