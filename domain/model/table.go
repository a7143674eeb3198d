// Package model provides the domain model for sheetsql.
package model

import (
	"regexp"
	"strings"
)

const (
	// FallbackTableName is used when normalization leaves nothing
	// usable of the input.
	FallbackTableName = "imported_table"
	// tableNamePrefix makes identifiers that do not start with a
	// letter safe for unquoted use.
	tableNamePrefix = "tbl_"
)

var (
	nonAlnumRun = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// TableName is a normalized table identifier in the backing store.
type TableName string

// String returns the identifier as a plain string.
func (t TableName) String() string {
	return string(t)
}

// Valid reports whether the identifier matches the grammar produced by
// NormalizeTableName. Store operations reject identifiers that fail
// this check before they reach any SQL text.
func (t TableName) Valid() bool {
	return tableNameRe.MatchString(string(t))
}

// NormalizeTableName derives a safe table identifier from an arbitrary
// string such as a file name stem or user input. The result always
// matches ^[a-z][a-z0-9_]*$. Normalization is deterministic and total;
// distinct inputs may collide, and the create-or-append load semantics
// absorb such collisions.
func NormalizeTableName(s string) TableName {
	s = nonAlnumRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	s = strings.ToLower(s)
	if s == "" {
		return FallbackTableName
	}
	if c := s[0]; c < 'a' || c > 'z' {
		s = tableNamePrefix + s
	}
	return TableName(s)
}

// TableNameFromPath derives a table name from a file path. Compression
// and format extensions are stripped before normalization, so
// "orders.csv.gz" becomes "orders".
func TableNameFromPath(path string) TableName {
	return NormalizeTableName(StripExtensions(path))
}

// RawTable is a parsed tabular input before any normalization: the raw
// column labels and rows of string cells, plus a table name suggestion
// derived from the source. It exists only during a single ingestion
// pass.
type RawTable struct {
	name   string
	labels []string
	rows   [][]string
}

// NewRawTable creates a RawTable from parsed file content.
func NewRawTable(name string, labels []string, rows [][]string) *RawTable {
	return &RawTable{
		name:   name,
		labels: labels,
		rows:   rows,
	}
}

// Name returns the source-derived table name suggestion.
func (r *RawTable) Name() string {
	return r.name
}

// Labels returns the raw column labels.
func (r *RawTable) Labels() []string {
	return r.labels
}

// Rows returns the raw rows.
func (r *RawTable) Rows() [][]string {
	return r.rows
}

// Normalize sanitizes the header and infers a typed column for every
// source column, producing a NormalizedTable named after the source.
func (r *RawTable) Normalize() (*NormalizedTable, error) {
	if len(r.labels) == 0 {
		return nil, ErrEmptyTable
	}
	columns := NormalizeColumns(r.labels, r.rows)
	return NewNormalizedTable(NormalizeTableName(r.name), columns), nil
}

// NormalizedTable is a RawTable after header sanitization and
// per-column type inference. Column names are unique identifier-safe
// tokens and every cell is either typed or null.
type NormalizedTable struct {
	name    TableName
	columns []*Column
}

// NewNormalizedTable creates a NormalizedTable from typed columns.
func NewNormalizedTable(name TableName, columns []*Column) *NormalizedTable {
	return &NormalizedTable{
		name:    name,
		columns: columns,
	}
}

// Name returns the normalized table name.
func (t *NormalizedTable) Name() TableName {
	return t.name
}

// Columns returns the typed columns in source order.
func (t *NormalizedTable) Columns() []*Column {
	return t.columns
}

// Column returns the column with the given name, or nil when no such
// column exists.
func (t *NormalizedTable) Column(name string) *Column {
	for _, c := range t.columns {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// ColumnNames returns the column names in source order.
func (t *NormalizedTable) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// RowCount returns the number of rows.
func (t *NormalizedTable) RowCount() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// Preview returns up to limit rows rendered as display strings, for
// the review step before an import is confirmed.
func (t *NormalizedTable) Preview(limit int) [][]string {
	n := t.RowCount()
	if limit >= 0 && n > limit {
		n = limit
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.columns))
		for j, c := range t.columns {
			row[j] = c.DisplayValue(i)
		}
		rows = append(rows, row)
	}
	return rows
}

// Equal reports whether two tables have the same name and equal
// columns.
func (t *NormalizedTable) Equal(other *NormalizedTable) bool {
	if other == nil || t.name != other.name || len(t.columns) != len(other.columns) {
		return false
	}
	for i, c := range t.columns {
		if !c.Equal(other.columns[i]) {
			return false
		}
	}
	return true
}
