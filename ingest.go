package sheetsql

import (
	"io"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// Ingest parses a tabular file and normalizes it in one step: the
// header is sanitized, each column gets a semantic type, and missing
// cells become nulls. The result is ready for schema planning.
func Ingest(path string, opts ...Option) (*model.NormalizedTable, error) {
	raw, err := ParseFile(path, opts...)
	if err != nil {
		return nil, err
	}

	table, err := raw.Normalize()
	if err != nil {
		return nil, NewErrorContext("ingest", path).Error(err)
	}
	return table, nil
}

// IngestReader is Ingest for data read from r. filename determines the
// format, the compression, and the table name suggestion.
func IngestReader(r io.Reader, filename string, opts ...Option) (*model.NormalizedTable, error) {
	raw, err := ParseReader(r, filename, opts...)
	if err != nil {
		return nil, err
	}

	table, err := raw.Normalize()
	if err != nil {
		return nil, NewErrorContext("ingest", filename).Error(err)
	}
	return table, nil
}
