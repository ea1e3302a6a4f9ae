package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/tariff/internal/audit"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCmd_CreatesThenUpdates(t *testing.T) {
	db, _ := setupCommandTest(t)
	ctx := context.Background()
	dir := t.TempDir()

	sheet := testutil.SampleSheet("Andalusian Summer")
	path := writeSheetFile(t, dir, "andalusia.csv", sheet)

	out, err := executeCommand(t, "", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Created "Andalusian Summer" (version 1)`)

	pkg := db.MustGetPackage("Andalusian Summer")
	assert.Equal(t, 1, pkg.Version)
	assert.Equal(t, "Marbella", pkg.Resort)
	price, ok := pkg.Matrix.Lookup(0, 2, testutil.June.Key())
	require.True(t, ok)
	assert.True(t, price.Amount.Equal(decimal.NewFromInt(150)))

	sheet[6][1] = "165"
	writeSheetFile(t, dir, "andalusia.csv", sheet)

	out, err = executeCommand(t, "", "import", path, "-m", "Raised June prices")
	require.NoError(t, err)
	assert.Contains(t, out, `Updated "Andalusian Summer" to version 2: pricingMatrix`)

	versions, err := db.Storage.GetPackageVersions(ctx, pkg.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "Raised June prices", versions[1].Summary)
	assert.Equal(t, []string{audit.FieldPricingMatrix}, versions[1].ChangedFields)
}

func TestImportCmd_RowErrors(t *testing.T) {
	sheet := testutil.SampleSheet("Andalusian Summer")
	sheet[7][2] = "two hundred"

	t.Run("rejects the sheet", func(t *testing.T) {
		db, _ := setupCommandTest(t)
		path := writeSheetFile(t, t.TempDir(), "andalusia.csv", sheet)

		out, err := executeCommand(t, "", "import", path)
		assert.ErrorIs(t, err, common.ErrImportRejected)
		assert.Contains(t, out, `column "6-11 People - 3 Nights"`)
		assert.Contains(t, out, "invalid price")
		assert.Contains(t, out, "sheet not saved")

		_, err = db.Storage.GetPackageByName(context.Background(), "Andalusian Summer")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("allow partial saves the rest", func(t *testing.T) {
		db, _ := setupCommandTest(t)
		path := writeSheetFile(t, t.TempDir(), "andalusia.csv", sheet)

		_, err := executeCommand(t, "", "import", path, "--allow-partial")
		require.NoError(t, err)

		pkg := db.MustGetPackage("Andalusian Summer")
		_, ok := pkg.Matrix.Lookup(0, 3, testutil.July.Key())
		assert.False(t, ok, "the bad cell is left out")
		_, ok = pkg.Matrix.Lookup(0, 2, testutil.July.Key())
		assert.True(t, ok)
	})
}

func TestImportCmd_DryRun(t *testing.T) {
	db, _ := setupCommandTest(t)
	path := writeSheetFile(t, t.TempDir(), "andalusia.csv", testutil.SampleSheet("Andalusian Summer"))

	out, err := executeCommand(t, "", "import", "--dry-run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Andalusian Summer")
	assert.Contains(t, out, "9 prices parsed")
	assert.Contains(t, out, "Dry run complete")

	packages, err := db.Storage.ListPackages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, packages)
}

func TestImportCmd_FromSheets(t *testing.T) {
	db, exchange := setupCommandTest(t)
	exchange.Sheets["Andalusia"] = testutil.SampleSheet("Andalusian Summer")
	exchange.Sheets["Alps"] = testutil.SampleSheet("Alpine Winter")

	_, err := executeCommand(t, "", "import", "--sheet", "Andalusia", "--sheet", "Alps")
	require.NoError(t, err)
	assert.Equal(t, []string{"Andalusia", "Alps"}, exchange.ReadCalls)

	db.MustGetPackage("Andalusian Summer")
	db.MustGetPackage("Alpine Winter")

	t.Run("missing tab", func(t *testing.T) {
		out, err := executeCommand(t, "", "import", "--sheet", "Nowhere")
		assert.ErrorIs(t, err, common.ErrImportRejected)
		assert.NotContains(t, out, "again later")
	})

	t.Run("sheets unavailable", func(t *testing.T) {
		exchange.ReadErr = common.ErrSheetsConnection
		defer func() { exchange.ReadErr = nil }()

		out, err := executeCommand(t, "", "import", "--sheet", "Andalusia")
		assert.ErrorIs(t, err, common.ErrImportRejected)
		assert.Contains(t, out, "try this sheet again later")
	})
}

func TestImportCmd_YAMLDocument(t *testing.T) {
	db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))
	path := filepath.Join(t.TempDir(), "andalusia.yaml")

	_, err := executeCommand(t, "", "export", "Andalusian Summer", "--yaml", "--output", path)
	require.NoError(t, err)

	pkg := db.MustGetPackage("Andalusian Summer")
	_, err = executeCommand(t, "", "packages", "delete", "Andalusian Summer", "--yes")
	require.NoError(t, err)

	_, err = executeCommand(t, "", "import", path)
	require.NoError(t, err)

	restored := db.MustGetPackage("Andalusian Summer")
	assert.NotEqual(t, pkg.ID, restored.ID)
	assert.Equal(t, pkg.Metadata, restored.Metadata)
	assert.True(t, pkg.Matrix.Equal(restored.Matrix))
}

func TestImportCmd_NothingToImport(t *testing.T) {
	setupCommandTest(t)

	_, err := executeCommand(t, "", "import")
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	_, err = executeCommand(t, "", "import", filepath.Join(t.TempDir(), "*.csv"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"andalusia.csv",
		"alps.CSV",
		"tuscany.yaml",
		"notes.txt",
		"archive/2024.csv",
		"archive/old/2023.yml",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	}

	t.Run("walks directories", func(t *testing.T) {
		files, err := expandFiles([]string{dir})
		require.NoError(t, err)
		assert.Len(t, files, 5)
		assert.NotContains(t, files, filepath.Join(dir, "notes.txt"))
	})

	t.Run("globs and duplicates", func(t *testing.T) {
		files, err := expandFiles([]string{
			filepath.Join(dir, "*.csv"),
			filepath.Join(dir, "andalusia.csv"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "andalusia.csv")}, files)
	})

	t.Run("unmatched pattern", func(t *testing.T) {
		files, err := expandFiles([]string{filepath.Join(dir, "*.ods")})
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}
