package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// loadVisits loads the canonical fixture into a fresh store.
func loadVisits(t *testing.T, store *Store) {
	t.Helper()
	plan, rows := testTable(t, "visits", visitsColumns())
	_, err := store.CreateOrAppend(context.Background(), plan, rows)
	require.NoError(t, err, "fixture load should succeed")
}

func TestTables(t *testing.T) {
	t.Parallel()

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		tables, err := store.Tables(context.Background())
		require.NoError(t, err, "listing should succeed")
		assert.Empty(t, tables, "fresh store should list no tables")
	})

	t.Run("sorted and filtered", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()
		loadVisits(t, store)

		plan, rows := testTable(t, "budget", []*model.Column{
			model.NewFloatColumn("amount", []float64{1.5}, nil),
		})
		_, err := store.CreateOrAppend(ctx, plan, rows)
		require.NoError(t, err, "second load should succeed")

		tables, err := store.Tables(ctx)
		require.NoError(t, err, "listing should succeed")
		require.Len(t, tables, 2, "users and catalog tables should be hidden")
		assert.Equal(t, model.TableName("budget"), tables[0].Name, "listing should sort by name")
		assert.Equal(t, int64(1), tables[0].Rows, "budget row count should match")
		assert.Equal(t, model.TableName("visits"), tables[1].Name, "listing should sort by name")
		assert.Equal(t, int64(3), tables[1].Rows, "visits row count should match")
	})
}

func TestColumns(t *testing.T) {
	t.Parallel()

	t.Run("describes stored table", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		loadVisits(t, store)

		columns, err := store.Columns(context.Background(), "visits")
		require.NoError(t, err, "describe should succeed")
		require.Len(t, columns, 3, "surrogate key plus two data columns")

		assert.Equal(t, "id", columns[0].Name, "first column should be the surrogate key")
		assert.Equal(t, "INTEGER", columns[0].Type, "surrogate key should be INTEGER")
		assert.True(t, columns[0].PrimaryKey, "surrogate key should be the primary key")
		assert.Equal(t, "name", columns[1].Name, "data columns should keep source order")
		assert.Equal(t, "TEXT", columns[1].Type, "text column should map to TEXT")
		assert.Equal(t, "score", columns[2].Name, "data columns should keep source order")
		assert.Equal(t, "INTEGER", columns[2].Type, "integer column should map to INTEGER")
	})

	t.Run("unknown table", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		_, err := store.Columns(context.Background(), "nonexistent")
		assert.ErrorIs(t, err, ErrTableNotFound, "missing table should be reported")
	})
}

func TestBrowse(t *testing.T) {
	t.Parallel()

	t.Run("full page", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		loadVisits(t, store)

		result, err := store.Browse(context.Background(), "visits", "", 0, 0)
		require.NoError(t, err, "browse should succeed")

		assert.Equal(t, model.TableName("visits"), result.Table, "result should carry the table name")
		assert.Equal(t, []string{"id", "name", "score"}, result.Columns, "columns should match the schema")
		assert.Equal(t, int64(3), result.Total, "total should count every row")
		assert.Equal(t, DefaultBrowseLimit, result.Limit, "zero limit should fall back to the default")
		require.Len(t, result.Rows, 3, "page should hold every row")

		first := result.Rows[0]
		assert.Equal(t, int64(1), first[0], "surrogate key should start at 1")
		assert.Equal(t, "alice", first[1], "text cell should scan as string")
		assert.Equal(t, int64(10), first[2], "integer cell should scan as int64")
		assert.Nil(t, result.Rows[2][2], "null cell should scan as nil")
	})

	t.Run("search matches one row", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		loadVisits(t, store)

		result, err := store.Browse(context.Background(), "visits", "bob", 0, 0)
		require.NoError(t, err, "browse should succeed")
		assert.Equal(t, int64(1), result.Total, "search should count matches only")
		require.Len(t, result.Rows, 1, "search should return matching rows only")
		assert.Equal(t, "bob", result.Rows[0][1], "matching row should be returned")
	})

	t.Run("search tolerates null cells", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		loadVisits(t, store)

		result, err := store.Browse(context.Background(), "visits", "carol", 0, 0)
		require.NoError(t, err, "browse should succeed")
		require.Len(t, result.Rows, 1, "row with a null cell should still match on other cells")
		assert.Nil(t, result.Rows[0][2], "null cell should survive the search scan")
	})

	t.Run("search without matches", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		loadVisits(t, store)

		result, err := store.Browse(context.Background(), "visits", "zebra", 0, 0)
		require.NoError(t, err, "browse should succeed")
		assert.Zero(t, result.Total, "no rows should match")
		assert.Empty(t, result.Rows, "no rows should be returned")
	})

	t.Run("pagination", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		loadVisits(t, store)
		ctx := context.Background()

		page, err := store.Browse(ctx, "visits", "", 2, 0)
		require.NoError(t, err, "browse should succeed")
		assert.Equal(t, int64(3), page.Total, "total should ignore the page bounds")
		require.Len(t, page.Rows, 2, "limit should cap the page")
		assert.Equal(t, "alice", page.Rows[0][1], "first page should start at the first row")

		rest, err := store.Browse(ctx, "visits", "", 2, 2)
		require.NoError(t, err, "browse should succeed")
		require.Len(t, rest.Rows, 1, "offset should skip the first page")
		assert.Equal(t, "carol", rest.Rows[0][1], "second page should hold the remainder")
	})

	t.Run("unknown table", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		_, err := store.Browse(context.Background(), "nonexistent", "", 0, 0)
		assert.ErrorIs(t, err, ErrTableNotFound, "missing table should be reported")
	})

	t.Run("reserved table", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		_, err := store.Browse(context.Background(), UsersTable, "", 0, 0)
		assert.ErrorIs(t, err, ErrReservedTable, "users should not be browsable")
	})

	t.Run("invalid table name", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		_, err := store.Browse(context.Background(), "no;drop", "", 0, 0)
		assert.ErrorIs(t, err, ErrInvalidTableName, "unsafe name should be rejected before any SQL")
	})
}

func TestDrop(t *testing.T) {
	t.Parallel()

	t.Run("removes table", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()
		loadVisits(t, store)

		require.NoError(t, store.Drop(ctx, "visits"), "drop should succeed")

		tables, err := store.Tables(ctx)
		require.NoError(t, err, "listing should succeed")
		assert.Empty(t, tables, "dropped table should disappear")

		err = store.Drop(ctx, "visits")
		assert.ErrorIs(t, err, ErrTableNotFound, "second drop should report a missing table")
	})

	t.Run("reserved table", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		err := store.Drop(context.Background(), UsersTable)
		assert.ErrorIs(t, err, ErrReservedTable, "users should not be droppable")
	})
}
