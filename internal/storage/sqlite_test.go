package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to create a small priced package.
func createTestPackage(name string) *model.Package {
	m := model.NewMatrix()
	tier := m.AddTier(model.GroupSizeTier{Label: "6-11 People", MinPeople: 6, MaxPeople: 11})
	m.AddDuration(2)
	june := model.MonthPeriod(time.June)
	easter := model.SpecialPeriod("Easter", model.NewDate(2025, time.April, 2), model.NewDate(2025, time.April, 6))
	m.AddPeriod(june)
	m.AddPeriod(easter)
	m.SetPrice(tier, 2, june.Key(), model.AmountPrice(decimal.RequireFromString("150.50")))
	m.SetPrice(tier, 2, easter.Key(), model.OnRequestPrice())

	return &model.Package{
		Metadata: model.Metadata{
			Name:        name,
			Destination: "Spain",
			Resort:      "Marbella",
			Currency:    model.CurrencyEUR,
			Inclusions:  []string{"Airport transfers"},
		},
		Matrix: m,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates missing directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "tariff.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		assert.Equal(t, dbPath, store.Path())
		assert.FileExists(t, dbPath)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(context.Background()))
	})
}

func TestSQLiteStorage_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // testing nil context handling
	_, err := store.GetPackage(nil, "id")
	assert.ErrorIs(t, err, ErrNilContext)

	//nolint:staticcheck // testing nil context handling
	_, err = store.ListQuotes(nil, "")
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestSQLiteStorage_WithTxRollsBack(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	pkg := createTestPackage("Andalusian Summer")
	_, err := store.CreatePackage(ctx, pkg, "")
	require.NoError(t, err)

	// The duplicate name is rejected after nothing was written.
	dup := createTestPackage("andalusian summer")
	_, err = store.CreatePackage(ctx, dup, "")
	require.Error(t, err)

	packages, err := store.ListPackages(ctx)
	require.NoError(t, err)
	assert.Len(t, packages, 1)
}
