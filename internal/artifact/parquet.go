package artifact

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	pqfile "github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// Schema metadata keys. The arrow field types cover the physical shape
// of each column; the semantic types key disambiguates datetime from
// plain text and survives the parquet round trip via the stored arrow
// schema.
const (
	tableMetadataKey = "sheetsql:table"
	typesMetadataKey = "sheetsql:types"
)

const writeChunkSize = 8192

// writeParquet encodes the table into a zstd-compressed parquet file.
func writeParquet(path string, t *model.NormalizedTable) error {
	schema := arrowSchema(t)
	record := buildRecord(schema, t)
	defer record.Release()

	table := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer table.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Zstd))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	if err := pqarrow.WriteTable(table, f, writeChunkSize, props, arrowProps); err != nil {
		_ = f.Close()
		return fmt.Errorf("write parquet table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	return nil
}

// arrowSchema maps the table's columns to arrow fields and records the
// table name and semantic types as schema metadata.
func arrowSchema(t *model.NormalizedTable) *arrow.Schema {
	columns := t.Columns()
	fields := make([]arrow.Field, len(columns))
	kinds := make([]string, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.Name(), Type: arrowType(c.Type()), Nullable: true}
		kinds[i] = c.Type().String()
	}
	metadata := arrow.NewMetadata(
		[]string{tableMetadataKey, typesMetadataKey},
		[]string{t.Name().String(), strings.Join(kinds, ",")},
	)
	return arrow.NewSchema(fields, &metadata)
}

func arrowType(ct model.ColumnType) arrow.DataType {
	switch ct {
	case model.ColumnTypeDatetime:
		return arrow.FixedWidthTypes.Timestamp_us
	case model.ColumnTypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case model.ColumnTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case model.ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// buildRecord appends every cell to the matching typed builder, nulls
// through the validity bitmap.
func buildRecord(schema *arrow.Schema, t *model.NormalizedTable) arrow.Record {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	rows := t.RowCount()
	for i, c := range t.Columns() {
		switch fb := builder.Field(i).(type) {
		case *array.TimestampBuilder:
			for r := 0; r < rows; r++ {
				if c.IsNull(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(arrow.Timestamp(c.Time(r).UnixMicro()))
			}
		case *array.BooleanBuilder:
			for r := 0; r < rows; r++ {
				if c.IsNull(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(c.Bool(r))
			}
		case *array.Int64Builder:
			for r := 0; r < rows; r++ {
				if c.IsNull(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(c.Int(r))
			}
		case *array.Float64Builder:
			for r := 0; r < rows; r++ {
				if c.IsNull(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(c.Float(r))
			}
		case *array.StringBuilder:
			for r := 0; r < rows; r++ {
				if c.IsNull(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(c.Text(r))
			}
		}
	}
	return builder.NewRecord()
}

// readParquet decodes an artifact file back into a NormalizedTable.
func readParquet(ctx context.Context, path string) (*model.NormalizedTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	pqReader, err := pqfile.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer func() { _ = pqReader.Close() }()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	name, kinds, err := decodeMetadata(schema)
	if err != nil {
		return nil, err
	}

	accums := make([]*columnAccum, schema.NumFields())
	for i, field := range schema.Fields() {
		accums[i] = &columnAccum{name: field.Name, kind: kinds[i]}
	}

	reader := array.NewTableReader(table, 0)
	defer reader.Release()
	for reader.Next() {
		batch := reader.Record()
		for j, col := range batch.Columns() {
			if err := accums[j].appendChunk(col); err != nil {
				return nil, err
			}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read parquet records: %w", err)
	}

	columns := make([]*model.Column, len(accums))
	for i, a := range accums {
		columns[i] = a.build()
	}
	return model.NewNormalizedTable(model.TableName(name), columns), nil
}

// decodeMetadata extracts the table name and per-column semantic types
// from the stored schema.
func decodeMetadata(schema *arrow.Schema) (string, []model.ColumnType, error) {
	metadata := schema.Metadata()

	nameIdx := metadata.FindKey(tableMetadataKey)
	if nameIdx < 0 {
		return "", nil, fmt.Errorf("missing %s metadata", tableMetadataKey)
	}
	typesIdx := metadata.FindKey(typesMetadataKey)
	if typesIdx < 0 {
		return "", nil, fmt.Errorf("missing %s metadata", typesMetadataKey)
	}

	tokens := strings.Split(metadata.Values()[typesIdx], ",")
	if len(tokens) != schema.NumFields() {
		return "", nil, fmt.Errorf("schema has %d fields but %s names %d types",
			schema.NumFields(), typesMetadataKey, len(tokens))
	}
	kinds := make([]model.ColumnType, len(tokens))
	for i, token := range tokens {
		kind, ok := model.ParseColumnType(token)
		if !ok {
			return "", nil, fmt.Errorf("unknown semantic type %q", token)
		}
		kinds[i] = kind
	}
	return metadata.Values()[nameIdx], kinds, nil
}

// columnAccum rebuilds one typed column from arrow array chunks.
type columnAccum struct {
	name string
	kind model.ColumnType

	valid  []bool
	texts  []string
	times  []time.Time
	bools  []bool
	ints   []int64
	floats []float64
}

// appendChunk dispatches on the declared semantic type so a column
// whose physical data disagrees with the metadata fails cleanly.
func (a *columnAccum) appendChunk(col arrow.Array) error {
	n := col.Len()
	switch a.kind {
	case model.ColumnTypeDatetime:
		arr, ok := col.(*array.Timestamp)
		if !ok {
			return a.typeMismatch(col)
		}
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				a.times = append(a.times, time.Time{})
				a.valid = append(a.valid, false)
				continue
			}
			a.times = append(a.times, time.UnixMicro(int64(arr.Value(i))).UTC())
			a.valid = append(a.valid, true)
		}
	case model.ColumnTypeBoolean:
		arr, ok := col.(*array.Boolean)
		if !ok {
			return a.typeMismatch(col)
		}
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				a.bools = append(a.bools, false)
				a.valid = append(a.valid, false)
				continue
			}
			a.bools = append(a.bools, arr.Value(i))
			a.valid = append(a.valid, true)
		}
	case model.ColumnTypeInteger:
		arr, ok := col.(*array.Int64)
		if !ok {
			return a.typeMismatch(col)
		}
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				a.ints = append(a.ints, 0)
				a.valid = append(a.valid, false)
				continue
			}
			a.ints = append(a.ints, arr.Value(i))
			a.valid = append(a.valid, true)
		}
	case model.ColumnTypeFloat:
		arr, ok := col.(*array.Float64)
		if !ok {
			return a.typeMismatch(col)
		}
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				a.floats = append(a.floats, 0)
				a.valid = append(a.valid, false)
				continue
			}
			a.floats = append(a.floats, arr.Value(i))
			a.valid = append(a.valid, true)
		}
	default:
		arr, ok := col.(*array.String)
		if !ok {
			return a.typeMismatch(col)
		}
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				a.texts = append(a.texts, "")
				a.valid = append(a.valid, false)
				continue
			}
			a.texts = append(a.texts, arr.Value(i))
			a.valid = append(a.valid, true)
		}
	}
	return nil
}

func (a *columnAccum) typeMismatch(col arrow.Array) error {
	return fmt.Errorf("column %s: %s data does not match declared type %s",
		a.name, col.DataType(), a.kind)
}

// build finalizes the accumulated cells as a model column. Validity
// slices stay nil-safe: a zero-row column builds with empty values.
func (a *columnAccum) build() *model.Column {
	valid := a.valid
	if valid == nil {
		valid = []bool{}
	}
	switch a.kind {
	case model.ColumnTypeDatetime:
		if a.times == nil {
			a.times = []time.Time{}
		}
		return model.NewDatetimeColumn(a.name, a.times, valid)
	case model.ColumnTypeBoolean:
		if a.bools == nil {
			a.bools = []bool{}
		}
		return model.NewBooleanColumn(a.name, a.bools, valid)
	case model.ColumnTypeInteger:
		if a.ints == nil {
			a.ints = []int64{}
		}
		return model.NewIntegerColumn(a.name, a.ints, valid)
	case model.ColumnTypeFloat:
		if a.floats == nil {
			a.floats = []float64{}
		}
		return model.NewFloatColumn(a.name, a.floats, valid)
	default:
		if a.texts == nil {
			a.texts = []string{}
		}
		return model.NewTextColumn(a.name, a.texts, valid)
	}
}
