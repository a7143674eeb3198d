// Package sheetsql turns messy tabular files (CSV, TSV, Excel XLSX,
// optionally compressed) into typed, SQLite-ready tables.
//
// The pipeline takes an arbitrary spreadsheet or delimited file and
// produces a sanitized column namespace, an inferred per-column type
// plan, and a normalized columnar table that loads idempotently into a
// named SQLite table.
//
// # Basic Usage
//
// Ingest parses and normalizes a file in one step:
//
//	table, err := sheetsql.Ingest("sales 2024.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	plan := model.PlanSchema(table)
//
// The resulting plan carries the CREATE TABLE column list; the storage
// layer under internal/storage performs the create-or-append load.
//
// # Header Sanitization
//
// Raw column labels become unique, lowercase, identifier-safe tokens:
//
//	["Name", "", "name", "2nd Col"] -> ["name", "col_2", "name_2", "c_2nd_col"]
//
// # Type Inference
//
// Every column commits to one semantic type from {datetime, boolean,
// integer, float, text}. A column whose non-missing cells all parse as
// booleans, integers, or floats takes that type. Otherwise a bulk
// datetime parse runs; when at least 60% of the non-missing cells parse
// (stray "N/A" entries and footnotes are common in real spreadsheets),
// the column commits to datetime and unparseable cells become nulls.
// Everything else stays text. Missing cells (blank or a NaN literal)
// are nulls, never the string "nan".
//
// # Table Naming
//
// Table names are derived from file paths and normalized to the
// identifier grammar:
//   - "users.csv" becomes table "users"
//   - "Sales Report.xlsx" becomes table "sales_report"
//   - "2024.csv.gz" becomes table "tbl_2024"
//
// # Compressed Files
//
// Files with a .gz, .bz2, .xz, or .zst extension are decompressed
// transparently while parsing.
package sheetsql
