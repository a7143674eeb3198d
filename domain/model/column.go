// Package model provides the domain model for sheetsql.
package model

import (
	"strconv"
	"time"
)

// Column is a single normalized column: a name, a semantic type, the
// cell values in columnar form, and a validity mask. A false entry in
// the mask marks a null cell; the corresponding value slot holds the
// zero value and must not be read.
type Column struct {
	name  string
	kind  ColumnType
	valid []bool

	texts  []string
	times  []time.Time
	bools  []bool
	ints   []int64
	floats []float64
}

// NewTextColumn creates a text column. valid marks non-null cells and
// must have the same length as values; a nil valid marks every cell
// non-null.
func NewTextColumn(name string, values []string, valid []bool) *Column {
	c := &Column{name: name, kind: ColumnTypeText, texts: values}
	c.setValidity(len(values), valid)
	return c
}

// NewDatetimeColumn creates a datetime column.
func NewDatetimeColumn(name string, values []time.Time, valid []bool) *Column {
	c := &Column{name: name, kind: ColumnTypeDatetime, times: values}
	c.setValidity(len(values), valid)
	return c
}

// NewBooleanColumn creates a boolean column.
func NewBooleanColumn(name string, values []bool, valid []bool) *Column {
	c := &Column{name: name, kind: ColumnTypeBoolean, bools: values}
	c.setValidity(len(values), valid)
	return c
}

// NewIntegerColumn creates an integer column.
func NewIntegerColumn(name string, values []int64, valid []bool) *Column {
	c := &Column{name: name, kind: ColumnTypeInteger, ints: values}
	c.setValidity(len(values), valid)
	return c
}

// NewFloatColumn creates a float column.
func NewFloatColumn(name string, values []float64, valid []bool) *Column {
	c := &Column{name: name, kind: ColumnTypeFloat, floats: values}
	c.setValidity(len(values), valid)
	return c
}

func (c *Column) setValidity(n int, valid []bool) {
	if valid == nil {
		valid = make([]bool, n)
		for i := range valid {
			valid[i] = true
		}
	}
	if len(valid) != n {
		panic("model: values and valid must have the same length")
	}
	c.valid = valid
}

// Name returns the column name.
func (c *Column) Name() string {
	return c.name
}

// Type returns the semantic type of the column.
func (c *Column) Type() ColumnType {
	return c.kind
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.valid)
}

// IsNull reports whether the cell at row i is null.
func (c *Column) IsNull(i int) bool {
	return !c.valid[i]
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.valid {
		if !v {
			n++
		}
	}
	return n
}

// Text returns the cell at row i. The column must be a text column and
// the cell must not be null.
func (c *Column) Text(i int) string {
	return c.texts[i]
}

// Time returns the cell at row i of a datetime column.
func (c *Column) Time(i int) time.Time {
	return c.times[i]
}

// Bool returns the cell at row i of a boolean column.
func (c *Column) Bool(i int) bool {
	return c.bools[i]
}

// Int returns the cell at row i of an integer column.
func (c *Column) Int(i int) int64 {
	return c.ints[i]
}

// Float returns the cell at row i of a float column.
func (c *Column) Float(i int) float64 {
	return c.floats[i]
}

// StorageValue returns the cell at row i converted to its storage
// representation: int64 for INTEGER columns, float64 for REAL columns,
// string for TEXT columns. Datetimes encode using DatetimeLayout and
// booleans as 0/1. Null cells map to nil, except datetime nulls, which
// encode as an empty string.
func (c *Column) StorageValue(i int) any {
	if !c.valid[i] {
		if c.kind == ColumnTypeDatetime {
			return ""
		}
		return nil
	}
	switch c.kind {
	case ColumnTypeDatetime:
		return c.times[i].Format(DatetimeLayout)
	case ColumnTypeBoolean:
		if c.bools[i] {
			return int64(1)
		}
		return int64(0)
	case ColumnTypeInteger:
		return c.ints[i]
	case ColumnTypeFloat:
		return c.floats[i]
	default:
		return c.texts[i]
	}
}

// DisplayValue returns the cell at row i rendered for previews. Null
// cells render as an empty string, booleans as "true"/"false", and
// datetimes using DatetimeLayout.
func (c *Column) DisplayValue(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.kind {
	case ColumnTypeDatetime:
		return c.times[i].Format(DatetimeLayout)
	case ColumnTypeBoolean:
		return strconv.FormatBool(c.bools[i])
	case ColumnTypeInteger:
		return strconv.FormatInt(c.ints[i], 10)
	case ColumnTypeFloat:
		return strconv.FormatFloat(c.floats[i], 'g', -1, 64)
	default:
		return c.texts[i]
	}
}

// Equal reports whether two columns have the same name, type, cell
// count, and cell values.
func (c *Column) Equal(other *Column) bool {
	if other == nil || c.name != other.name || c.kind != other.kind || c.Len() != other.Len() {
		return false
	}
	for i := range c.valid {
		if c.valid[i] != other.valid[i] {
			return false
		}
		if !c.valid[i] {
			continue
		}
		switch c.kind {
		case ColumnTypeDatetime:
			if !c.times[i].Equal(other.times[i]) {
				return false
			}
		case ColumnTypeBoolean:
			if c.bools[i] != other.bools[i] {
				return false
			}
		case ColumnTypeInteger:
			if c.ints[i] != other.ints[i] {
				return false
			}
		case ColumnTypeFloat:
			if c.floats[i] != other.floats[i] {
				return false
			}
		default:
			if c.texts[i] != other.texts[i] {
				return false
			}
		}
	}
	return true
}
