// Package model provides the domain model for sheetsql.
package model

// DatetimeLayout is the canonical text encoding for datetime values in
// the backing store and in exports.
const DatetimeLayout = "2006-01-02 15:04:05"

// SQL type name constants
const (
	sqlTypeText    = "TEXT"
	sqlTypeInteger = "INTEGER"
	sqlTypeReal    = "REAL"
)

// ColumnType represents the inferred semantic type of a column.
type ColumnType int

const (
	// ColumnTypeText represents free-form text values.
	ColumnTypeText ColumnType = iota
	// ColumnTypeDatetime represents date or timestamp values.
	ColumnTypeDatetime
	// ColumnTypeBoolean represents tri-state boolean values.
	ColumnTypeBoolean
	// ColumnTypeInteger represents 64-bit integer values.
	ColumnTypeInteger
	// ColumnTypeFloat represents 64-bit floating point values.
	ColumnTypeFloat
)

// String returns the semantic type name.
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeDatetime:
		return "DATETIME"
	case ColumnTypeBoolean:
		return "BOOLEAN"
	case ColumnTypeInteger:
		return sqlTypeInteger
	case ColumnTypeFloat:
		return "FLOAT"
	default:
		return sqlTypeText
	}
}

// StorageType maps the semantic type to the column type declared in the
// backing store. Datetimes are stored as canonically formatted text and
// booleans as 0/1 integers.
func (ct ColumnType) StorageType() StorageType {
	switch ct {
	case ColumnTypeBoolean, ColumnTypeInteger:
		return StorageTypeInteger
	case ColumnTypeFloat:
		return StorageTypeReal
	default:
		return StorageTypeText
	}
}

// ParseColumnType parses a semantic type name as produced by
// ColumnType.String. It is the inverse used when decoding column
// metadata from a stored artifact.
func ParseColumnType(s string) (ColumnType, bool) {
	switch s {
	case "DATETIME":
		return ColumnTypeDatetime, true
	case "BOOLEAN":
		return ColumnTypeBoolean, true
	case sqlTypeInteger:
		return ColumnTypeInteger, true
	case "FLOAT":
		return ColumnTypeFloat, true
	case sqlTypeText:
		return ColumnTypeText, true
	}
	return ColumnTypeText, false
}

// StorageType represents the column type declared in the backing store.
type StorageType int

const (
	// StorageTypeText maps to the TEXT affinity.
	StorageTypeText StorageType = iota
	// StorageTypeInteger maps to the INTEGER affinity.
	StorageTypeInteger
	// StorageTypeReal maps to the REAL affinity.
	StorageTypeReal
)

// String returns the SQL type name.
func (st StorageType) String() string {
	switch st {
	case StorageTypeInteger:
		return sqlTypeInteger
	case StorageTypeReal:
		return sqlTypeReal
	default:
		return sqlTypeText
	}
}
