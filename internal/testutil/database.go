// Package testutil provides shared fixtures for tariff tests: an in-memory
// database and a small, fully priced package.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/storage"
	"github.com/stretchr/testify/require"
)

// TestDB is a migrated in-memory store closed when the test ends.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Packages []*model.Package
}

// SetupTestDB opens an in-memory store and creates pkgs in order, so the
// first package gets version 1 before the second is written.
//
//	db := testutil.SetupTestDB(t, testutil.SamplePackage("Andalusian Summer"))
func SetupTestDB(t *testing.T, pkgs ...*model.Package) *TestDB {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx), "migrate test database")

	for _, pkg := range pkgs {
		_, err := store.CreatePackage(ctx, pkg, "")
		require.NoError(t, err, "seed package %q", pkg.Name)
	}

	return &TestDB{Storage: store, Packages: pkgs, t: t}
}

// MustGetPackage loads a package by name or fails the test.
func (db *TestDB) MustGetPackage(name string) *model.Package {
	db.t.Helper()
	pkg, err := db.Storage.GetPackageByName(context.Background(), name)
	require.NoError(db.t, err, "package %q", name)
	return pkg
}
