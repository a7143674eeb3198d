package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// LoadAction describes what CreateOrAppend did to the target table.
type LoadAction int

const (
	// LoadActionCreated means the table did not exist and was created
	// from the schema plan.
	LoadActionCreated LoadAction = iota
	// LoadActionAppended means the table already existed and the rows
	// were appended to it.
	LoadActionAppended
)

// String returns the action name used in results and logs.
func (a LoadAction) String() string {
	if a == LoadActionAppended {
		return "appended"
	}
	return "created"
}

// LoadResult describes a completed load.
type LoadResult struct {
	Action LoadAction
	Table  model.TableName
	Rows   int
}

// CreateOrAppend loads the materialized rows into the plan's target
// table. A missing table is created from the plan's DDL; an existing
// table is left untouched and must already carry exactly the plan's
// insert column set. DDL and all inserts run in one transaction, so a
// failed load leaves the store as it was.
func (s *Store) CreateOrAppend(ctx context.Context, plan *model.SchemaPlan, rows *model.Rows) (*LoadResult, error) {
	table := plan.Table()
	if err := checkTableName(table); err != nil {
		return nil, err
	}

	exists, err := s.Exists(ctx, table)
	if err != nil {
		return nil, err
	}
	action := LoadActionCreated
	if exists {
		action = LoadActionAppended
		if err := s.checkAppendColumns(ctx, plan); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if !exists {
		if _, err := tx.ExecContext(ctx, createTableSQL(plan)); err != nil {
			return nil, fmt.Errorf("create table %s: %w", table, err)
		}
	}

	inserted, err := insertRows(ctx, tx, plan, rows)
	if err != nil {
		return nil, fmt.Errorf("load into %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit load into %s: %w", table, err)
	}

	return &LoadResult{Action: action, Table: table, Rows: inserted}, nil
}

// createTableSQL renders the plan as a CREATE TABLE statement. An
// injected surrogate key becomes the auto-incrementing primary key; a
// source column that happens to be named id stays a plain column.
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

// checkAppendColumns verifies that the plan's insert columns are
// exactly the existing table's columns, minus a store-assigned
// surrogate key. Mismatches fail here, before the transaction starts.
func (s *Store) checkAppendColumns(ctx context.Context, plan *model.SchemaPlan) error {
	existing, err := s.Columns(ctx, plan.Table())
	if err != nil {
		return err
	}

	expected := make([]string, 0, len(existing))
	for _, c := range existing {
		if c.Name == model.SurrogateKeyColumn && c.PrimaryKey {
			continue
		}
		expected = append(expected, c.Name)
	}

	supplied := plan.InsertColumns()
	suppliedSet := make(map[string]bool, len(supplied))
	for _, name := range supplied {
		suppliedSet[name] = true
	}
	expectedSet := make(map[string]bool, len(expected))
	for _, name := range expected {
		expectedSet[name] = true
	}

	for _, name := range supplied {
		if !expectedSet[name] {
			return fmt.Errorf("%w: table %s has no column %q (table columns: %s)",
				ErrColumnMismatch, plan.Table(), name, strings.Join(expected, ", "))
		}
	}
	for _, name := range expected {
		if !suppliedSet[name] {
			return fmt.Errorf("%w: incoming data is missing column %q of table %s",
				ErrColumnMismatch, name, plan.Table())
		}
	}
	return nil
}

// insertRows inserts every materialized row with a prepared statement
// inside the given transaction.
func insertRows(ctx context.Context, tx *sql.Tx, plan *model.SchemaPlan, rows *model.Rows) (int, error) {
	names := plan.InsertColumns()
	columns := make([]string, len(names))
	placeholders := make([]string, len(names))
	for i, name := range names {
		columns[i] = fmt.Sprintf("[%s]", name)
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO [%s] (%s) VALUES (%s)",
		plan.Table(), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	count := 0
	rows.Reset()
	for rows.Next() {
		if _, err := stmt.ExecContext(ctx, rows.Row()...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", count+1, err)
		}
		count++
	}
	return count, nil
}
