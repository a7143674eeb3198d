// Package model provides the domain model for sheetsql.
package model

import "fmt"

// Rows materializes a NormalizedTable as a restartable sequence of
// storage-ready positional tuples, ordered per a schema plan's insert
// columns. The binding between plan and table is validated once at
// construction so arity or name mismatches never reach the store.
type Rows struct {
	columns []*Column
	total   int
	pos     int
	buf     []any
}

// NewRows binds a table to a plan's insert column list.
func NewRows(t *NormalizedTable, plan *SchemaPlan) (*Rows, error) {
	names := plan.InsertColumns()
	if len(names) != len(t.Columns()) {
		return nil, fmt.Errorf("%w: plan has %d insert columns, table has %d", ErrColumnCountMismatch, len(names), len(t.Columns()))
	}

	columns := make([]*Column, len(names))
	for i, name := range names {
		c := t.Column(name)
		if c == nil {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		columns[i] = c
	}

	return &Rows{
		columns: columns,
		total:   t.RowCount(),
		pos:     -1,
		buf:     make([]any, len(columns)),
	}, nil
}

// Len returns the total number of rows in the sequence.
func (r *Rows) Len() int {
	return r.total
}

// Next advances to the next row. It returns false after the last row.
func (r *Rows) Next() bool {
	if r.pos+1 >= r.total {
		return false
	}
	r.pos++
	return true
}

// Row returns the current row as storage values. The returned slice is
// reused between calls to Next.
func (r *Rows) Row() []any {
	for i, c := range r.columns {
		r.buf[i] = c.StorageValue(r.pos)
	}
	return r.buf
}

// Reset rewinds the sequence so it can be replayed from the first row.
func (r *Rows) Reset() {
	r.pos = -1
}
