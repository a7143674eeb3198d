// Package cli provides the command-line interface for sheetsql.
package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lakshminarasimha6802/sheetsql"
	"github.com/lakshminarasimha6802/sheetsql/domain/model"
	sheetdriver "github.com/lakshminarasimha6802/sheetsql/driver"
	"github.com/lakshminarasimha6802/sheetsql/internal/artifact"
	"github.com/lakshminarasimha6802/sheetsql/internal/config"
	"github.com/lakshminarasimha6802/sheetsql/internal/logging"
	"github.com/lakshminarasimha6802/sheetsql/internal/manifest"
	"github.com/lakshminarasimha6802/sheetsql/internal/metrics/datadog"
	"github.com/lakshminarasimha6802/sheetsql/internal/server"
	"github.com/lakshminarasimha6802/sheetsql/internal/storage"
)

// version is overridden at build time via ldflags.
var version = "dev"

// Color definitions for terminal output
var (
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

var rootCmd = &cobra.Command{
	Use:   "sheetsql",
	Short: "Import spreadsheets into SQLite and explore them over HTTP",
	Long: `sheetsql loads CSV, TSV and Excel files into SQLite with inferred
column types. The serve command runs the JSON API used by the web
client; import and tables work against the database directly.`,
	Example: `  # Run the HTTP API on the default address
  sheetsql serve

  # Import files without going through the API
  sheetsql import --db sheetsql.db sales.csv visits.xlsx

  # List imported tables and their row counts
  sheetsql tables --db sheetsql.db

  # Query files in place without importing them
  sheetsql query "SELECT region, SUM(total) FROM sales GROUP BY region" sales.csv`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Import spreadsheet files directly into the database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List imported tables",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

var queryCmd = &cobra.Command{
	Use:   "query [sql] [file...]",
	Short: "Run SQL against spreadsheet files without importing them",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runQuery,
}

func init() {
	defaults := config.Default()

	rootCmd.Version = version
	rootCmd.PersistentFlags().String("db", defaults.DBPath, "path to the SQLite database file")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", defaults.LogFormat, "log format (json, text)")

	serveCmd.Flags().String("addr", defaults.Addr, "listen address for the HTTP API")
	serveCmd.Flags().String("data-dir", defaults.DataDir, "directory for uploads and staged artifacts")
	serveCmd.Flags().Int("preview-rows", defaults.PreviewRows, "rows returned in staging previews")
	serveCmd.Flags().Int64("max-upload-bytes", defaults.MaxUploadBytes, "largest accepted upload in bytes")
	serveCmd.Flags().Duration("artifact-ttl", defaults.ArtifactTTL, "lifetime of staged imports before they are swept")

	importCmd.Flags().String("table", "", "table name override, valid with a single file")
	importCmd.Flags().String("sheet", "", "workbook sheet to import")

	rootCmd.AddCommand(serveCmd, importCmd, tablesCmd, queryCmd)
}

// Execute runs the root command and returns its error for main to report.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig layers flag values over environment variables over the
// built-in defaults. A flag only takes effect when the user set it, so
// SHEETSQL_* variables keep working for flags left alone.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath, _ = flags.GetString("db")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("preview-rows") {
		cfg.PreviewRows, _ = flags.GetInt("preview-rows")
	}
	if flags.Changed("max-upload-bytes") {
		cfg.MaxUploadBytes, _ = flags.GetInt64("max-upload-bytes")
	}
	if flags.Changed("artifact-ttl") {
		cfg.ArtifactTTL, _ = flags.GetDuration("artifact-ttl")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func initLogging(cfg config.Config) error {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := config.ParseLogFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("closing database", "error", err)
		}
	}()

	artifacts, err := artifact.NewStore(cfg.ArtifactDir())
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	if n, err := artifacts.Sweep(cfg.ArtifactTTL); err != nil {
		logging.Warn("startup artifact sweep failed", "error", err)
	} else if n > 0 {
		logging.Info("removed expired artifacts", "count", n)
	}

	uploads, err := manifest.NewManager(cfg.UploadDir())
	if err != nil {
		return fmt.Errorf("open upload manifest: %w", err)
	}

	srv := &server.Server{
		Config:    cfg,
		Store:     store,
		Artifacts: artifacts,
		Uploads:   uploads,
	}

	if cfg.DatadogAPIKey != "" {
		backend, err := datadog.NewBackend(ctx, datadog.Options{
			ServiceName: "sheetsql",
			Tags:        datadog.ParseTagsCSV(os.Getenv("DD_TAGS")),
		})
		if err != nil {
			return fmt.Errorf("datadog metrics: %w", err)
		}
		defer func() {
			if err := backend.Close(); err != nil {
				logging.Warn("flushing metrics on shutdown", "error", err)
			}
		}()
		srv.Metrics = backend
		logging.Info("datadog metrics enabled", "site", cfg.DatadogSite)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.ServerStartup(cfg.Addr, "db", cfg.DBPath, "data_dir", cfg.DataDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	infoColor.Fprintln(os.Stderr, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	successColor.Fprintln(os.Stderr, "✓ Server stopped")
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	tableName, _ := cmd.Flags().GetString("table")
	sheet, _ := cmd.Flags().GetString("sheet")
	return importFiles(cmd.Context(), cfg, args, tableName, sheet, os.Stdout)
}

// importFiles loads each file into the database, creating tables on
// first sight and appending when the columns already match.
func importFiles(ctx context.Context, cfg config.Config, files []string, tableName, sheet string, out io.Writer) error {
	if tableName != "" && len(files) > 1 {
		return fmt.Errorf("--table applies to a single file, got %d", len(files))
	}

	store, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("closing database", "error", err)
		}
	}()

	for _, path := range files {
		var opts []sheetsql.Option
		if tableName != "" {
			opts = append(opts, sheetsql.WithTableName(tableName))
		}
		if sheet != "" {
			opts = append(opts, sheetsql.WithSheet(sheet))
		}

		infoColor.Fprintf(out, "Importing %s\n", path)
		table, err := sheetsql.Ingest(path, opts...)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		plan := model.PlanSchema(table)
		rows, err := model.NewRows(table, plan)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		result, err := store.CreateOrAppend(ctx, plan, rows)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		if result.Action == storage.LoadActionCreated {
			successColor.Fprintf(out, "✓ Created %s with %d rows\n", result.Table, result.Rows)
		} else {
			successColor.Fprintf(out, "✓ Appended %d rows to %s\n", result.Rows, result.Table)
		}
	}
	return nil
}

func runTables(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	return listTables(cmd.Context(), cfg, os.Stdout)
}

func listTables(ctx context.Context, cfg config.Config, out io.Writer) error {
	store, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("closing database", "error", err)
		}
	}()

	tables, err := store.Tables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		warnColor.Fprintln(out, "No tables imported yet")
		return nil
	}
	for _, info := range tables {
		infoColor.Fprintf(out, "%-32s %8d rows\n", info.Name, info.Rows)
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	return queryFiles(cmd.Context(), args[0], args[1:], os.Stdout)
}

// queryFiles loads the files into an in-memory database and writes the
// query result to out as CSV.
func queryFiles(ctx context.Context, query string, files []string, out io.Writer) error {
	db, err := sheetdriver.OpenContext(ctx, files...)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		return err
	}

	values := make([]any, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}
	record := make([]string, len(columns))
	count := 0
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return err
		}
		for i, v := range values {
			record[i] = renderValue(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	infoColor.Fprintf(os.Stderr, "%d rows\n", count)
	return nil
}

// renderValue formats a scanned SQL value for CSV output.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
