package sheetsql

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// Delimiters for delimited file formats
const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
)

// parseConfig holds per-call parsing options.
type parseConfig struct {
	sheet     string
	tableName string
}

// Option configures a single parse or ingest call.
type Option func(*parseConfig)

// WithSheet selects the workbook sheet to parse. Without it the first
// sheet is used. The option is ignored for delimited formats.
func WithSheet(name string) Option {
	return func(c *parseConfig) {
		c.sheet = name
	}
}

// WithTableName overrides the table name suggestion derived from the
// file name. The value is normalized before use.
func WithTableName(name string) Option {
	return func(c *parseConfig) {
		c.tableName = name
	}
}

func newParseConfig(opts []Option) parseConfig {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// unsupportedFormatErr builds the rejection for a file the pipeline
// cannot parse. Legacy .xls workbooks get an explicit message; only
// .xlsx is readable.
func unsupportedFormatErr(path string) error {
	if ct := model.DetectCompression(path); ct != model.CompressionNone {
		path = strings.TrimSuffix(path, ct.Extension())
	}
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return fmt.Errorf("%w: legacy .xls workbook, convert to .xlsx", ErrUnsupportedFormat)
	}
	return ErrUnsupportedFormat
}

// ParseFile parses a tabular file into a RawTable. The format and
// compression are detected from the file extension.
func ParseFile(path string, opts ...Option) (*model.RawTable, error) {
	f := model.NewFile(path)
	if !f.IsSupported() {
		return nil, NewErrorContext("parse", path).Error(unsupportedFormatErr(path))
	}

	reader, cleanup, err := openFileReader(path)
	if err != nil {
		return nil, NewErrorContext("parse", path).Error(err)
	}
	defer func() {
		_ = cleanup()
	}()

	return parseWith(reader, f, newParseConfig(opts))
}

// ParseReader parses tabular data from r. filename determines the
// format, the compression, and the table name suggestion; it does not
// need to exist on disk.
func ParseReader(r io.Reader, filename string, opts ...Option) (*model.RawTable, error) {
	f := model.NewFile(filename)
	if !f.IsSupported() {
		return nil, NewErrorContext("parse", filename).Error(unsupportedFormatErr(filename))
	}

	handler := NewCompressionHandler(f.Compression())
	reader, cleanup, err := handler.CreateReader(r)
	if err != nil {
		return nil, NewErrorContext("parse", filename).Error(err)
	}
	defer func() {
		_ = cleanup()
	}()

	return parseWith(reader, f, newParseConfig(opts))
}

// parseWith dispatches to the format-specific parser. reader is already
// decompressed.
func parseWith(reader io.Reader, f *model.File, cfg parseConfig) (*model.RawTable, error) {
	switch f.Type() {
	case model.FileTypeCSV:
		return parseDelimited(reader, f, csvDelimiter, cfg)
	case model.FileTypeTSV:
		return parseDelimited(reader, f, tsvDelimiter, cfg)
	case model.FileTypeXLSX:
		return parseWorkbook(reader, f, cfg)
	default:
		return nil, NewErrorContext("parse", f.Path()).Error(unsupportedFormatErr(f.Path()))
	}
}

// parseDelimited parses CSV or TSV content. Ragged rows are rejected by
// the csv reader before any table is built.
func parseDelimited(reader io.Reader, f *model.File, delimiter rune, cfg parseConfig) (*model.RawTable, error) {
	csvReader := csv.NewReader(decodeCharset(reader))
	csvReader.Comma = delimiter

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, NewErrorContext("parse", f.Path()).Error(err)
	}
	if len(records) == 0 {
		return nil, NewErrorContext("parse", f.Path()).Error(ErrEmptyData)
	}

	return model.NewRawTable(tableSuggestion(f, cfg), records[0], records[1:]), nil
}

// parseWorkbook parses one sheet of an Excel workbook.
func parseWorkbook(reader io.Reader, f *model.File, cfg parseConfig) (*model.RawTable, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, NewErrorContext("parse", f.Path()).Error(err)
	}
	defer func() {
		_ = workbook.Close() // Ignore close error
	}()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewErrorContext("parse", f.Path()).Error(ErrEmptyData)
	}

	sheet := cfg.sheet
	if sheet == "" {
		sheet = sheets[0]
	} else if !containsSheet(sheets, sheet) {
		return nil, NewErrorContext("parse", f.Path()).WithDetails("sheet "+sheet).Error(ErrSheetNotFound)
	}

	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, NewErrorContext("parse", f.Path()).WithDetails("sheet "+sheet).Error(err)
	}
	if len(rows) == 0 {
		return nil, NewErrorContext("parse", f.Path()).WithDetails("sheet "+sheet).Error(ErrEmptyData)
	}

	labels, data := normalizeSheetRows(rows)
	return model.NewRawTable(tableSuggestion(f, cfg), labels, data), nil
}

// normalizeSheetRows pads ragged sheet rows into a rectangle. The first
// row provides the labels; when a data row is wider than the label row,
// the label list is extended with blanks, which sanitize to positional
// names.
func normalizeSheetRows(rows [][]string) ([]string, [][]string) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	labels := make([]string, width)
	copy(labels, rows[0])

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, width)
		copy(padded, row)
		data = append(data, padded)
	}
	return labels, data
}

func containsSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}

// tableSuggestion picks the raw table name: an explicit override when
// given, otherwise the file name without extensions.
func tableSuggestion(f *model.File, cfg parseConfig) string {
	if cfg.tableName != "" {
		return cfg.tableName
	}
	return model.StripExtensions(f.Path())
}

// SheetNames returns the sheet names of a workbook file in workbook
// order, for the sheet selection step of multi-sheet imports.
func SheetNames(path string) ([]string, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, NewErrorContext("sheets", path).Error(err)
	}
	defer func() {
		_ = file.Close()
	}()

	return SheetNamesReader(file, path)
}

// SheetNamesReader returns the sheet names of workbook content read
// from r. filename determines the format and compression; non-workbook
// files are rejected.
func SheetNamesReader(r io.Reader, filename string) ([]string, error) {
	f := model.NewFile(filename)
	if !f.IsXLSX() {
		return nil, NewErrorContext("sheets", filename).Error(ErrNotWorkbook)
	}

	handler := NewCompressionHandler(f.Compression())
	reader, cleanup, err := handler.CreateReader(r)
	if err != nil {
		return nil, NewErrorContext("sheets", filename).Error(err)
	}
	defer func() {
		_ = cleanup()
	}()

	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, NewErrorContext("sheets", filename).Error(err)
	}
	defer func() {
		_ = workbook.Close() // Ignore close error
	}()

	return workbook.GetSheetList(), nil
}
