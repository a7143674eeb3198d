// Package driver implements a database/sql driver that loads
// spreadsheet files into an in-memory SQLite database on connect.
//
// The DSN is a semicolon separated list of files and directories:
//
//	db, err := sql.Open("sheetsql", "sales.csv;archive;q3.xlsx")
//
// Every source becomes a typed table named after its file. A workbook
// contributes one table per sheet, suffixed with the sheet name when
// the workbook has more than one. Directories are scanned one level
// deep for supported files.
//
// Each new connection re-reads the sources. Open returns a handle
// pinned to a single connection so the sources are read once and
// writes stay visible to later queries; with sql.Open the pinning is
// the caller's job.
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"

	"github.com/lakshminarasimha6802/sheetsql"
	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// Name is the driver name registered with database/sql.
const Name = "sheetsql"

func init() {
	sql.Register(Name, NewDriver())
}

// Open opens the given files and directories as one in-memory
// database. Writes never touch the source files.
func Open(paths ...string) (*sql.DB, error) {
	return OpenContext(context.Background(), paths...)
}

// OpenContext is Open with a context governing the initial load.
func OpenContext(ctx context.Context, paths ...string) (*sql.DB, error) {
	if len(paths) == 0 {
		return nil, ErrNoSources
	}

	db := sql.OpenDB(&Connector{driver: &Driver{}, dsn: strings.Join(paths, ";")})
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Driver implements driver.Driver over spreadsheet sources.
type Driver struct{}

// NewDriver returns a Driver ready to register with database/sql.
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements driver.Driver.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	return &Connector{driver: d, dsn: dsn}, nil
}

// Connector implements driver.Connector. The dsn holds the semicolon
// separated source list.
type Connector struct {
	driver *Driver
	dsn    string
}

// Driver implements driver.Connector.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// Connect opens a fresh in-memory SQLite database and loads every
// source into it.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	sources, err := collectSources(c.dsn)
	if err != nil {
		return nil, err
	}

	inner, err := (&sqlite.Driver{}).Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	for _, src := range sources {
		if err := loadSource(ctx, inner, src); err != nil {
			_ = inner.Close()
			return nil, err
		}
	}
	return &Conn{inner: inner}, nil
}

// source is one table to load: a file, and for workbooks the sheet
// within it. table carries the name suggestion before normalization.
type source struct {
	path  string
	sheet string
	table string
}

// collectSources expands the DSN into per-table sources and rejects
// table name collisions before anything is parsed.
func collectSources(dsn string) ([]source, error) {
	var sources []source
	for _, entry := range strings.Split(dsn, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		info, err := os.Stat(entry)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, entry)
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry, err)
		}

		var expanded []source
		if info.IsDir() {
			expanded, err = collectDirectory(entry)
		} else {
			expanded, err = expandFile(entry)
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, expanded...)
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	seen := make(map[model.TableName]string, len(sources))
	for _, src := range sources {
		name := model.NormalizeTableName(src.table)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s from both %s and %s", ErrDuplicateTable, name, prev, src.path)
		}
		seen[name] = src.path
	}
	return sources, nil
}

// collectDirectory picks up the supported files directly inside dir.
// Unsupported files are skipped; subdirectories are not descended
// into.
func collectDirectory(dir string) ([]source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var sources []source
	for _, entry := range entries {
		if entry.IsDir() || !model.NewFile(entry.Name()).IsSupported() {
			continue
		}
		expanded, err := expandFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		sources = append(sources, expanded...)
	}
	return sources, nil
}

// expandFile maps a file to the tables it provides. Flat files yield
// one table named after the file; multi-sheet workbooks yield one per
// sheet with the sheet name appended.
func expandFile(path string) ([]source, error) {
	base := model.StripExtensions(path)
	switch model.DetectFileType(path) {
	case model.FileTypeXLSX:
		sheets, err := sheetsql.SheetNames(path)
		if err != nil {
			return nil, err
		}
		if len(sheets) == 1 {
			return []source{{path: path, sheet: sheets[0], table: base}}, nil
		}
		sources := make([]source, 0, len(sheets))
		for _, sheet := range sheets {
			sources = append(sources, source{path: path, sheet: sheet, table: base + "_" + sheet})
		}
		return sources, nil
	case model.FileTypeUnsupported:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), sheetsql.ErrUnsupportedFormat)
	default:
		return []source{{path: path, table: base}}, nil
	}
}

// loadSource ingests one source and replays it into the connection as
// a typed table.
func loadSource(ctx context.Context, conn driver.Conn, src source) error {
	opts := []sheetsql.Option{sheetsql.WithTableName(src.table)}
	if src.sheet != "" {
		opts = append(opts, sheetsql.WithSheet(src.sheet))
	}
	table, err := sheetsql.Ingest(src.path, opts...)
	if err != nil {
		return err
	}

	plan := model.PlanSchema(table)
	rows, err := model.NewRows(table, plan)
	if err != nil {
		return fmt.Errorf("%s: %w", src.path, err)
	}

	if err := execConn(ctx, conn, createTableSQL(plan)); err != nil {
		return fmt.Errorf("create table %s: %w", plan.Table(), err)
	}
	if err := insertRows(ctx, conn, plan, rows); err != nil {
		return fmt.Errorf("load into %s: %w", plan.Table(), err)
	}
	return nil
}

// createTableSQL renders the plan as DDL. An injected surrogate key
// becomes the auto-incrementing primary key.
func createTableSQL(plan *model.SchemaPlan) string {
	columns := plan.Columns()
	defs := make([]string, 0, len(columns))
	for i, c := range columns {
		if i == 0 && plan.HasSurrogateKey() {
			defs = append(defs, fmt.Sprintf("[%s] INTEGER PRIMARY KEY AUTOINCREMENT", c.Name))
			continue
		}
		defs = append(defs, fmt.Sprintf("[%s] %s", c.Name, c.Storage))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS [%s] (%s)", plan.Table(), strings.Join(defs, ", "))
}

// insertRows replays the materialized rows through one prepared
// statement.
func insertRows(ctx context.Context, conn driver.Conn, plan *model.SchemaPlan, rows *model.Rows) error {
	names := plan.InsertColumns()
	columns := make([]string, len(names))
	placeholders := make([]string, len(names))
	for i, name := range names {
		columns[i] = fmt.Sprintf("[%s]", name)
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO [%s] (%s) VALUES (%s)",
		plan.Table(), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	stmt, err := conn.Prepare(query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	count := 0
	rows.Reset()
	for rows.Next() {
		if err := execStmt(ctx, stmt, rows.Row()); err != nil {
			return fmt.Errorf("insert row %d: %w", count+1, err)
		}
		count++
	}
	return nil
}

// execConn runs a statement that takes no arguments.
func execConn(ctx context.Context, conn driver.Conn, query string) error {
	if execer, ok := conn.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, query, nil)
		return err
	}

	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	return execStmt(ctx, stmt, nil)
}

// execStmt executes a prepared statement with the given values.
func execStmt(ctx context.Context, stmt driver.Stmt, args []any) error {
	if execer, ok := stmt.(driver.StmtExecContext); ok {
		named := make([]driver.NamedValue, len(args))
		for i, arg := range args {
			named[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
		}
		_, err := execer.ExecContext(ctx, named)
		return err
	}

	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg
	}
	_, err := stmt.Exec(values) //nolint:staticcheck // fallback for drivers without StmtExecContext
	return err
}

// Conn wraps the SQLite connection holding the loaded tables.
type Conn struct {
	inner driver.Conn
}

// Prepare implements driver.Conn.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.inner.Prepare(query)
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if preparer, ok := c.inner.(driver.ConnPrepareContext); ok {
		return preparer.PrepareContext(ctx, query)
	}
	return c.inner.Prepare(query)
}

// Close implements driver.Conn.
func (c *Conn) Close() error {
	return c.inner.Close()
}

// Begin implements driver.Conn.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginner, ok := c.inner.(driver.ConnBeginTx); ok {
		return beginner.BeginTx(ctx, opts)
	}
	return c.inner.Begin() //nolint:staticcheck // fallback for drivers without ConnBeginTx
}
