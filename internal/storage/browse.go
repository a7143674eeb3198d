package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// DefaultBrowseLimit is the page size used when Browse is called with
// a non-positive limit.
const DefaultBrowseLimit = 50

// TableInfo names an imported table together with its row count.
type TableInfo struct {
	Name model.TableName `json:"name"`
	Rows int64           `json:"rows"`
}

// ColumnInfo describes one column of a stored table as reported by the
// engine.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// BrowseResult is one page of rows from a stored table. Cell values
// carry the driver's native types: int64, float64, string, or nil for
// NULL.
type BrowseResult struct {
	Table   model.TableName `json:"table"`
	Columns []string        `json:"columns"`
	Rows    [][]any         `json:"rows"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// Tables lists the imported tables with their row counts, sorted by
// name. Internal tables are excluded. A table whose count query fails
// is reported with a zero count rather than failing the listing.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]model.TableName, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if reserved(model.TableName(name)) {
			continue
		}
		names = append(names, model.TableName(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	infos := make([]TableInfo, 0, len(names))
	for _, name := range names {
		var count int64
		err := s.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM [%s]", name)).Scan(&count)
		if err != nil {
			count = 0
		}
		infos = append(infos, TableInfo{Name: name, Rows: count})
	}
	return infos, nil
}

// Columns returns the column metadata of a stored table in definition
// order.
func (s *Store) Columns(ctx context.Context, table model.TableName) ([]ColumnInfo, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info([%s])", table))
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]ColumnInfo, 0)
	for rows.Next() {
		var (
			cid          int
			name, typ    string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		columns = append(columns, ColumnInfo{
			Name:       name,
			Type:       typ,
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// Browse returns one page of a stored table. A non-empty search term
// matches rows whose concatenated cell text contains the term,
// case-insensitively per SQLite's LIKE.
func (s *Store) Browse(ctx context.Context, table model.TableName, search string, limit, offset int) (*BrowseResult, error) {
	columns, err := s.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultBrowseLimit
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := make([]any, 0, 3)
	if search != "" {
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = fmt.Sprintf("IFNULL(CAST([%s] AS TEXT), '')", c.Name)
		}
		where = fmt.Sprintf(" WHERE (%s) LIKE ?", strings.Join(parts, " || ' ' || "))
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM [%s]%s", table, where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows of %s: %w", table, err)
	}

	query := fmt.Sprintf("SELECT * FROM [%s]%s LIMIT ? OFFSET ?", table, where)
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", table, err)
	}

	page := make([][]any, 0, limit)
	for rows.Next() {
		values := make([]any, len(names))
		pointers := make([]any, len(names))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", table, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		page = append(page, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("browse %s: %w", table, err)
	}

	return &BrowseResult{
		Table:   table,
		Columns: names,
		Rows:    page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// Drop removes a stored table.
func (s *Store) Drop(ctx context.Context, table model.TableName) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	exists, err := s.Exists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE [%s]", table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}
