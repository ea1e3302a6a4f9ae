package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/config"
	"github.com/Veraticus/tariff/internal/document"
	"github.com/Veraticus/tariff/internal/tabular"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <package>",
		Short: "Export a package as a price sheet",
		Long: `Export a package in the price sheet layout that 'tariff import' reads.

The sheet is written as CSV to stdout or --output, as a YAML package document
with --yaml, or to a tab of the configured Google spreadsheet with --sheets.

Examples:
  tariff export "Andalusian Summer" --output andalusia.csv
  tariff export "Andalusian Summer" --sheets --sheet-name "Andalusia 2025"
  tariff export "Andalusian Summer" --version 3 --yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().Bool("yaml", false, "Write a YAML package document instead of CSV")
	cmd.Flags().Bool("sheets", false, "Write to the configured Google spreadsheet")
	cmd.Flags().String("sheet-name", "", "Spreadsheet tab to write (default: sheets.sheet_name or \"Prices\")")
	cmd.Flags().Int("version", 0, "Export this version from the package history")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	output, _ := cmd.Flags().GetString("output")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	sheetName, _ := cmd.Flags().GetString("sheet-name")
	versionNum, _ := cmd.Flags().GetInt("version")

	if toSheets && (asYAML || output != "") {
		return common.NewUserError("--sheets cannot be combined with --yaml or --output", common.ErrInvalidConfig)
	}

	store, err := openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(store)

	pkg, err := resolvePackage(ctx, store, args[0])
	if err != nil {
		return err
	}

	meta, matrix := pkg.Metadata, pkg.Matrix
	if versionNum > 0 {
		v, err := store.GetPackageVersion(ctx, pkg.ID, versionNum)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("%q has no version %d", pkg.Name, versionNum), err)
		}
		meta, matrix = v.Snapshot.Metadata, v.Snapshot.Matrix
	}

	if asYAML {
		return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
			return document.Encode(w, meta, matrix)
		})
	}

	locale, err := config.LoadLocale()
	if err != nil {
		return err
	}
	rows, err := tabular.NewParser(locale).Format(meta, matrix)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("%q cannot be written as a price sheet (export it with --yaml instead)", meta.Name), err)
	}

	if toSheets {
		exchange, err := openSheets(ctx)
		if err != nil {
			return err
		}
		tab := config.SheetName(sheetName)
		if err := exchange.WriteSheet(ctx, tab, rows); err != nil {
			if common.IsRetryable(err) {
				return common.NewUserError("Google Sheets did not respond, try the export again later", err)
			}
			return fmt.Errorf("failed to export to Google Sheets: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %q to sheet %q", meta.Name, tab)))
		return nil
	}

	return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
		return tabular.WriteCSV(w, rows)
	})
}

// writeOutput runs write against path, or against stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	path = config.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	common.LogInfo("Exported package", common.Fields{"file": path})
	return nil
}
