package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Veraticus/tariff/internal/audit"
	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/config"
	"github.com/Veraticus/tariff/internal/document"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/service"
	"github.com/Veraticus/tariff/internal/tabular"
	"github.com/spf13/cobra"
)

var importExtensions = []string{".csv", ".yaml", ".yml"}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import package price sheets",
		Long: `Import price sheets exported as CSV, package documents written as YAML, or
tabs of the configured Google spreadsheet.

Each sheet creates a package, or updates the package with the same name and
records a new version with the fields that changed. Sheets with row errors
are not saved unless --allow-partial is given.

Examples:
  # Import one sheet
  tariff import ~/Downloads/andalusia-2025.csv

  # Import every sheet in a directory
  tariff import ~/Downloads/prices/

  # Preview a tab of the configured spreadsheet
  tariff import --sheet "Alpine Winter" --dry-run`,
		RunE: runImport,
	}

	cmd.Flags().StringSlice("sheet", nil, "Google Sheets tab to import (repeatable)")
	cmd.Flags().BoolP("dry-run", "d", false, "Parse and report without saving")
	cmd.Flags().Bool("allow-partial", false, "Save sheets even when some rows have errors")
	cmd.Flags().StringP("message", "m", "", "Change summary recorded with the new version")
	cmd.Flags().Int("max-errors", 20, "Maximum row errors shown per sheet (0 for all)")

	return cmd
}

type importOptions struct {
	message      string
	maxErrors    int
	dryRun       bool
	allowPartial bool
}

// importSource yields the raw parse result of one sheet.
type importSource struct {
	load func(ctx context.Context) (*tabular.Result, error)
	name string
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sheetNames, _ := cmd.Flags().GetStringSlice("sheet")
	opts := importOptions{}
	opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.allowPartial, _ = cmd.Flags().GetBool("allow-partial")
	opts.message, _ = cmd.Flags().GetString("message")
	opts.maxErrors, _ = cmd.Flags().GetInt("max-errors")

	if len(args) == 0 && len(sheetNames) == 0 {
		return common.NewUserError("Nothing to import: give price sheet files or --sheet", common.ErrMissingConfig)
	}

	locale, err := config.LoadLocale()
	if err != nil {
		return err
	}
	parser := tabular.NewParser(locale)

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	sources := make([]importSource, 0, len(files)+len(sheetNames))
	for _, path := range files {
		sources = append(sources, fileSource(parser, path))
	}
	if len(sheetNames) > 0 {
		exchange, err := openSheets(ctx)
		if err != nil {
			return err
		}
		for _, name := range sheetNames {
			sources = append(sources, sheetSource(parser, exchange, name))
		}
	}
	if len(sources) == 0 {
		return common.NewUserError("No price sheets found to import", common.ErrNotFound)
	}

	var store service.Storage
	if !opts.dryRun {
		store, err = openStorage(ctx)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer closeStorage(store)
	}

	common.LogInfo("Importing price sheets", common.Fields{"count": len(sources), "dry_run": opts.dryRun})

	progress := cli.NewProgress(cmd.ErrOrStderr(), len(sources), "Importing")
	rejected := 0
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress.Describe(src.name)
		if err := importOne(ctx, out, store, src, opts); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			common.LogError(err, "Sheet not imported", common.Fields{"source": src.name})
			rejected++
		}
		progress.Step()
	}

	if rejected > 0 {
		return fmt.Errorf("%w: %d of %d sheets not imported", common.ErrImportRejected, rejected, len(sources))
	}
	if opts.dryRun {
		fmt.Fprintln(out, cli.FormatInfo("Dry run complete - nothing saved"))
	}
	return nil
}

func importOne(ctx context.Context, out io.Writer, store service.Storage, src importSource, opts importOptions) error {
	fmt.Fprintln(out, cli.FormatTitle(src.name))

	result, err := src.load(ctx)
	if err != nil {
		if common.IsRetryable(err) {
			fmt.Fprintln(out, cli.FormatWarning("Google Sheets did not respond, try this sheet again later"))
		}
		fmt.Fprintln(out, cli.FormatError(err.Error()))
		return err
	}

	if result.HasErrors() {
		if err := cli.WriteImportErrors(out, result.Errors, opts.maxErrors); err != nil {
			return err
		}
		if !opts.allowPartial {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d problems found, sheet not saved (use --allow-partial to save the rest)", len(result.Errors))))
			return fmt.Errorf("%w: %d problems", common.ErrImportRejected, len(result.Errors))
		}
	}

	if opts.dryRun {
		pkg := &model.Package{Metadata: result.Metadata, Matrix: result.Matrix}
		if err := cli.WritePackage(out, pkg); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d prices parsed", result.CellCount())))
		return nil
	}

	change, err := savePackage(ctx, store, result.Metadata, result.Matrix, opts.message)
	if err != nil {
		fmt.Fprintln(out, cli.FormatError(err.Error()))
		return err
	}
	fmt.Fprintln(out, cli.FormatChange(result.Metadata.Name, change))
	return nil
}

// savePackage creates the package or records a new version of the package
// with the same name.
func savePackage(ctx context.Context, store service.Storage, meta model.Metadata, m *model.Matrix, message string) (audit.Change, error) {
	existing, err := store.GetPackageByName(ctx, meta.Name)
	if errors.Is(err, common.ErrNotFound) {
		return store.CreatePackage(ctx, &model.Package{Metadata: meta, Matrix: m}, message)
	}
	if err != nil {
		return audit.Change{}, err
	}

	existing.Metadata = meta
	existing.Matrix = m
	return store.UpdatePackage(ctx, existing, message)
}

func fileSource(parser *tabular.Parser, path string) importSource {
	return importSource{
		name: filepath.Base(path),
		load: func(_ context.Context) (*tabular.Result, error) {
			if isYAML(path) {
				data, err := os.ReadFile(path) // #nosec G304
				if err != nil {
					return nil, fmt.Errorf("failed to read %s: %w", path, err)
				}
				meta, m, err := document.Decode(data)
				if err != nil {
					return nil, err
				}
				return &tabular.Result{Metadata: meta, Matrix: m}, nil
			}

			f, err := os.Open(path) // #nosec G304
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer func() { _ = f.Close() }()

			rows, err := tabular.ReadCSV(f)
			if err != nil {
				return nil, err
			}
			return parser.Parse(rows)
		},
	}
}

func sheetSource(parser *tabular.Parser, exchange service.SheetExchange, sheetName string) importSource {
	return importSource{
		name: sheetName,
		load: func(ctx context.Context) (*tabular.Result, error) {
			rows, err := exchange.ReadSheet(ctx, sheetName)
			if err != nil {
				return nil, err
			}
			return parser.Parse(rows)
		},
	}
}

// expandFiles resolves globs and walks directories for importable files.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		pattern = config.ExpandPath(pattern)

		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			err := filepath.WalkDir(pattern, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && importable(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", pattern, err)
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			common.LogWarn("No files found matching pattern", common.Fields{"pattern": pattern})
			continue
		}
		files = append(files, matches...)
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func importable(path string) bool {
	return slices.Contains(importExtensions, strings.ToLower(filepath.Ext(path)))
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
