// sheetsql imports spreadsheet files into SQLite and serves a JSON API
// for browsing, exporting and analyzing the resulting tables.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/lakshminarasimha6802/sheetsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		_, _ = errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
