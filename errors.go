package sheetsql

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error values returned by the parsing and ingestion layer
var (
	// ErrEmptyData indicates that the data source contains no records
	ErrEmptyData = errors.New("sheetsql: empty data source")

	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("sheetsql: unsupported file format")

	// ErrSheetNotFound indicates that a requested workbook sheet does not exist
	ErrSheetNotFound = errors.New("sheetsql: sheet not found")

	// ErrNotWorkbook indicates a sheet operation on a non-workbook file
	ErrNotWorkbook = errors.New("sheetsql: not a workbook file")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("sheetsql: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return errors.New(context)
}
