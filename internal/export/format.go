// Package export renders stored tables as downloadable files. It reads
// committed rows only, through the storage handle, and never touches
// the ingestion pipeline.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// Sentinel errors for option parsing.
var (
	// ErrUnknownFormat is returned for an unrecognized output format.
	ErrUnknownFormat = errors.New("export: unknown format")

	// ErrUnsupportedCompression is returned for an unrecognized or
	// write-incapable output compression.
	ErrUnsupportedCompression = errors.New("export: unsupported output compression")
)

// Format is an output file format.
type Format int

const (
	// FormatCSV is comma separated values.
	FormatCSV Format = iota
	// FormatTSV is tab separated values.
	FormatTSV
	// FormatXLSX is an Excel workbook.
	FormatXLSX
	// FormatParquet is an Apache Parquet file.
	FormatParquet
)

// String returns the short format name.
func (f Format) String() string {
	switch f {
	case FormatTSV:
		return "tsv"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	default:
		return "csv"
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatTSV:
		return model.ExtTSV
	case FormatXLSX:
		return model.ExtXLSX
	case FormatParquet:
		return ".parquet"
	default:
		return model.ExtCSV
	}
}

// ContentType returns the media type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatTSV:
		return "text/tab-separated-values"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/csv"
	}
}

// ParseFormat parses a format name such as "csv" or "parquet".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return FormatCSV, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ParseCompression parses an output compression name. Bzip2 is
// rejected: the stack reads it but has no writer for it.
func ParseCompression(s string) (model.CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return model.CompressionNone, nil
	case "gz", "gzip":
		return model.CompressionGZ, nil
	case "xz":
		return model.CompressionXZ, nil
	case "zst", "zstd":
		return model.CompressionZSTD, nil
	case "bz2", "bzip2":
		return model.CompressionNone, fmt.Errorf("%w: bzip2 has no writer", ErrUnsupportedCompression)
	default:
		return model.CompressionNone, fmt.Errorf("%w: %q", ErrUnsupportedCompression, s)
	}
}

// Options selects the output format and an optional output
// compression layered on top of it.
type Options struct {
	Format      Format
	Compression model.CompressionType
}

// Filename returns the download file name for a table exported with
// these options, such as "visits.csv.gz".
func (o Options) Filename(table model.TableName) string {
	return table.String() + o.Format.Extension() + o.Compression.Extension()
}

// ContentType returns the media type of the final payload. Compressed
// payloads report the compression's media type, not the inner
// format's.
func (o Options) ContentType() string {
	switch o.Compression {
	case model.CompressionGZ:
		return "application/gzip"
	case model.CompressionXZ:
		return "application/x-xz"
	case model.CompressionZSTD:
		return "application/zstd"
	default:
		return o.Format.ContentType()
	}
}
