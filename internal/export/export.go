package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/lakshminarasimha6802/sheetsql"
	"github.com/lakshminarasimha6802/sheetsql/domain/model"
	"github.com/lakshminarasimha6802/sheetsql/internal/storage"
)

const parquetChunkSize = 8192

// Write streams the full table to w in the selected format. The table
// name is validated by the store, so unknown, reserved, and malformed
// names fail before any output is produced.
func Write(ctx context.Context, store *storage.Store, table model.TableName, opts Options, w io.Writer) error {
	columns, err := store.Columns(ctx, table)
	if err != nil {
		return err
	}

	out := w
	finish := func() error { return nil }
	if opts.Compression != model.CompressionNone {
		handler := sheetsql.NewCompressionHandler(opts.Compression)
		cw, cleanup, err := handler.CreateWriter(w)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedCompression, err)
		}
		out, finish = cw, cleanup
	}

	if err := writeFormat(ctx, store.DB(), table, columns, opts.Format, out); err != nil {
		_ = finish()
		return err
	}
	if err := finish(); err != nil {
		return fmt.Errorf("finish compressed output: %w", err)
	}
	return nil
}

func writeFormat(ctx context.Context, db *sql.DB, table model.TableName, columns []storage.ColumnInfo, format Format, out io.Writer) error {
	switch format {
	case FormatCSV:
		return writeDelimited(ctx, db, table, columns, ',', out)
	case FormatTSV:
		return writeDelimited(ctx, db, table, columns, '\t', out)
	case FormatXLSX:
		return writeXLSX(ctx, db, table, columns, out)
	case FormatParquet:
		return writeParquet(ctx, db, table, columns, out)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
	}
}

// forEachRow scans the whole table, handing every row to fn with the
// driver's native value types.
func forEachRow(ctx context.Context, db *sql.DB, table model.TableName, width int, fn func(values []any) error) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM [%s]", table))
	if err != nil {
		return fmt.Errorf("read table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		values := make([]any, width)
		pointers := make([]any, width)
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return fmt.Errorf("scan row of %s: %w", table, err)
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read table %s: %w", table, err)
	}
	return nil
}

func writeDelimited(ctx context.Context, db *sql.DB, table model.TableName, columns []storage.ColumnInfo, delimiter rune, out io.Writer) error {
	cw := csv.NewWriter(out)
	cw.Comma = delimiter

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(columns))
	err := forEachRow(ctx, db, table, len(columns), func(values []any) error {
		for i, v := range values {
			record[i] = renderCell(v)
		}
		return cw.Write(record)
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// renderCell renders a driver value as delimited-file text. NULL
// renders as an empty field.
func renderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func writeXLSX(ctx context.Context, db *sql.DB, table model.TableName, columns []storage.ColumnInfo, out io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	cell, err := excelize.CoordinatesToCellName(1, 1)
	if err != nil {
		return fmt.Errorf("locate header row: %w", err)
	}
	if err := sw.SetRow(cell, header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	rowIndex := 2
	err = forEachRow(ctx, db, table, len(columns), func(values []any) error {
		row := make([]any, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIndex)
		if err != nil {
			return fmt.Errorf("locate row %d: %w", rowIndex, err)
		}
		rowIndex++
		return sw.SetRow(cell, row)
	})
	if err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush workbook rows: %w", err)
	}
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeParquet(ctx context.Context, db *sql.DB, table model.TableName, columns []storage.ColumnInfo, out io.Writer) error {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.Name, Type: parquetFieldType(c.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	err := forEachRow(ctx, db, table, len(columns), func(values []any) error {
		for i, v := range values {
			if err := appendParquetValue(builder.Field(i), v); err != nil {
				return fmt.Errorf("column %s: %w", columns[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	record := builder.NewRecord()
	defer record.Release()
	arrowTable := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer arrowTable.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	if err := pqarrow.WriteTable(arrowTable, out, parquetChunkSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("write parquet table: %w", err)
	}
	return nil
}

// parquetFieldType maps a declared storage type to its arrow type.
// INTEGER becomes int64, REAL float64, everything else utf8.
func parquetFieldType(declared string) arrow.DataType {
	switch declared {
	case "INTEGER":
		return arrow.PrimitiveTypes.Int64
	case "REAL":
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// appendParquetValue appends one driver value to the matching builder.
// SQLite's affinity rules make a few cross-type values legal, so the
// numeric builders accept both integer and real input.
func appendParquetValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.Int64Builder:
		switch x := v.(type) {
		case int64:
			fb.Append(x)
		case float64:
			fb.Append(int64(x))
		default:
			return fmt.Errorf("unexpected %T in INTEGER column", v)
		}
	case *array.Float64Builder:
		switch x := v.(type) {
		case float64:
			fb.Append(x)
		case int64:
			fb.Append(float64(x))
		default:
			return fmt.Errorf("unexpected %T in REAL column", v)
		}
	case *array.StringBuilder:
		switch x := v.(type) {
		case string:
			fb.Append(x)
		case []byte:
			fb.Append(string(x))
		default:
			fb.Append(renderCell(v))
		}
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
