package driver

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lakshminarasimha6802/sheetsql"
)

const visitsCSV = "name,score\nalice,10\nbob,20\ncarol,30\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "writing %s", name)
	return path
}

// writeWorkbook saves a two sheet workbook: Sheet1 with region totals
// and Budget with item costs.
func writeWorkbook(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Region", "Total"}), "writing the first sheet header")
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"north", 5}), "writing the first sheet row")

	_, err := f.NewSheet("Budget")
	require.NoError(t, err, "adding the Budget sheet")
	require.NoError(t, f.SetSheetRow("Budget", "A1", &[]any{"Item", "Cost"}), "writing the budget header")
	require.NoError(t, f.SetSheetRow("Budget", "A2", &[]any{"pens", 3.5}), "writing the first budget row")
	require.NoError(t, f.SetSheetRow("Budget", "A3", &[]any{"paper", 7.25}), "writing the second budget row")

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path), "saving the workbook")
	return path
}

func TestOpenSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "visits.csv", visitsCSV)

	db, err := Open(csvPath)
	require.NoError(t, err, "opening a single csv")
	defer func() { _ = db.Close() }()

	var total int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM visits").Scan(&total), "counting rows")
	assert.Equal(t, 3, total, "all rows should be loaded")

	var score int64
	require.NoError(t, db.QueryRow("SELECT score FROM visits WHERE name = 'alice'").Scan(&score), "selecting a typed value")
	assert.Equal(t, int64(10), score, "score should carry its inferred value")

	var kind string
	require.NoError(t, db.QueryRow("SELECT typeof(score) FROM visits LIMIT 1").Scan(&kind), "reading the storage type")
	assert.Equal(t, "integer", kind, "inferred integer columns should not degrade to text")

	var maxID int64
	require.NoError(t, db.QueryRow("SELECT MAX(id) FROM visits").Scan(&maxID), "reading the surrogate key")
	assert.Equal(t, int64(3), maxID, "rows should receive sequential ids")
}

func TestOpenJoinsAcrossFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	users := writeFile(t, dir, "users.csv", "user_id,name\n1,alice\n2,bob\n")
	orders := writeFile(t, dir, "orders.csv", "user_id,amount\n1,12.5\n1,30\n2,7.25\n")

	db, err := Open(users, orders)
	require.NoError(t, err, "opening two csv files")
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`
		SELECT u.name, SUM(o.amount)
		FROM users u JOIN orders o ON o.user_id = u.user_id
		GROUP BY u.name ORDER BY u.name`)
	require.NoError(t, err, "joining the two tables")
	defer func() { _ = rows.Close() }()

	got := map[string]float64{}
	for rows.Next() {
		var name string
		var sum float64
		require.NoError(t, rows.Scan(&name, &sum), "scanning a joined row")
		got[name] = sum
	}
	require.NoError(t, rows.Err(), "iterating joined rows")
	assert.InDelta(t, 42.5, got["alice"], 0.001, "alice total")
	assert.InDelta(t, 7.25, got["bob"], 0.001, "bob total")
}

func TestSQLOpenRegisteredName(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	visits := writeFile(t, dir, "visits.csv", visitsCSV)
	scores := writeFile(t, dir, "scores.csv", "player,points\nan,1\n")

	db, err := sql.Open(Name, visits+";"+scores)
	require.NoError(t, err, "sql.Open with the registered name")
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM scores").Scan(&n), "querying the second table")
	assert.Equal(t, 1, n, "scores should hold one row")
}

func TestOpenWorkbookSheets(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "quarterly.xlsx")

	db, err := Open(path)
	require.NoError(t, err, "opening a multi sheet workbook")
	defer func() { _ = db.Close() }()

	var region string
	require.NoError(t, db.QueryRow("SELECT region FROM quarterly_sheet1").Scan(&region), "querying the first sheet table")
	assert.Equal(t, "north", region, "first sheet data should load")

	var cost float64
	require.NoError(t, db.QueryRow("SELECT cost FROM quarterly_budget WHERE item = 'paper'").Scan(&cost), "querying the second sheet table")
	assert.InDelta(t, 7.25, cost, 0.001, "second sheet data should load")

	solo := excelize.NewFile()
	require.NoError(t, solo.SetSheetRow("Sheet1", "A1", &[]any{"City", "Pop"}), "writing the solo header")
	require.NoError(t, solo.SetSheetRow("Sheet1", "A2", &[]any{"oslo", 700000}), "writing the solo row")
	soloPath := filepath.Join(dir, "cities.xlsx")
	require.NoError(t, solo.SaveAs(soloPath), "saving the single sheet workbook")

	db2, err := Open(soloPath)
	require.NoError(t, err, "opening a single sheet workbook")
	defer func() { _ = db2.Close() }()

	var pop int64
	require.NoError(t, db2.QueryRow("SELECT pop FROM cities").Scan(&pop), "single sheet workbooks keep the bare file name")
	assert.Equal(t, int64(700000), pop, "city population")
}

func TestOpenDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(data, 0o750), "creating the data directory")
	writeFile(t, data, "visits.csv", visitsCSV)
	writeFile(t, data, "notes.txt", "not a spreadsheet")
	require.NoError(t, os.Mkdir(filepath.Join(data, "nested"), 0o750), "creating a nested directory")

	db, err := Open(data)
	require.NoError(t, err, "opening a directory")
	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM visits").Scan(&n), "querying the discovered table")
	assert.Equal(t, 3, n, "supported files in the directory should load")
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	t.Run("no sources", func(t *testing.T) {
		t.Parallel()
		_, err := Open()
		require.ErrorIs(t, err, ErrNoSources, "empty path list")

		_, err = Open(t.TempDir())
		require.ErrorIs(t, err, ErrNoSources, "directory without supported files")
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		_, err := Open(filepath.Join(t.TempDir(), "ghost.csv"))
		require.ErrorIs(t, err, ErrSourceNotFound, "nonexistent file")
	})

	t.Run("duplicate table", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		a := filepath.Join(dir, "a")
		b := filepath.Join(dir, "b")
		require.NoError(t, os.Mkdir(a, 0o750), "creating dir a")
		require.NoError(t, os.Mkdir(b, 0o750), "creating dir b")
		first := writeFile(t, a, "visits.csv", visitsCSV)
		second := writeFile(t, b, "visits.csv", visitsCSV)

		_, err := Open(first, second)
		require.ErrorIs(t, err, ErrDuplicateTable, "two files mapping to one table")
	})

	t.Run("unsupported file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, t.TempDir(), "report.pdf", "%PDF-1.4")
		_, err := Open(path)
		require.ErrorIs(t, err, sheetsql.ErrUnsupportedFormat, "explicitly named unsupported file")
	})
}

func TestWritesStayInMemory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "visits.csv", visitsCSV)

	db, err := Open(csvPath)
	require.NoError(t, err, "opening the csv")
	defer func() { _ = db.Close() }()

	tx, err := db.Begin()
	require.NoError(t, err, "starting a transaction")
	_, err = tx.Exec("INSERT INTO visits (name, score) VALUES ('dave', 40)")
	require.NoError(t, err, "inserting inside the transaction")
	require.NoError(t, tx.Rollback(), "rolling back")

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM visits").Scan(&n), "counting after rollback")
	assert.Equal(t, 3, n, "rolled back insert should disappear")

	_, err = db.Exec("UPDATE visits SET score = 99 WHERE name = 'alice'")
	require.NoError(t, err, "updating in memory")
	var score int64
	require.NoError(t, db.QueryRow("SELECT score FROM visits WHERE name = 'alice'").Scan(&score), "reading the update")
	assert.Equal(t, int64(99), score, "update should be visible on the pinned connection")

	content, err := os.ReadFile(csvPath)
	require.NoError(t, err, "re-reading the source file")
	assert.Equal(t, visitsCSV, string(content), "source file should be untouched")
}
