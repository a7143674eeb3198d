package driver

import "errors"

// Sentinel errors reported while expanding a DSN. Parse and
// normalization failures from the ingest pipeline pass through
// unchanged.
var (
	// ErrNoSources means the DSN named no usable files or directories.
	ErrNoSources = errors.New("sheetsql driver: no sources in dsn")

	// ErrSourceNotFound means a DSN entry does not exist on disk.
	ErrSourceNotFound = errors.New("sheetsql driver: source does not exist")

	// ErrDuplicateTable means two sources map to the same table name.
	ErrDuplicateTable = errors.New("sheetsql driver: duplicate table name")
)
