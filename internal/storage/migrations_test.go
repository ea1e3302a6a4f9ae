package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
	assert.Equal(t, ExpectedSchemaVersion, migrations[len(migrations)-1].Version)
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_CreatesSchema(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, tc := range []struct{ kind, name string }{
		{"table", "packages"},
		{"table", "package_versions"},
		{"table", "quotes"},
		{"index", "idx_packages_active_name"},
		{"index", "idx_quotes_package_id"},
	} {
		var count int
		err := store.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?
		`, tc.kind, tc.name).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "%s %s missing", tc.kind, tc.name)
	}
}

func TestMigrate_VersionsAscending(t *testing.T) {
	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
		assert.NotEmpty(t, migrations[i].Description)
	}
}
