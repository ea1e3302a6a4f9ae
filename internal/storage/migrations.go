package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema this build reads and writes. Opening a
// database that cannot reach it is fatal.
const ExpectedSchemaVersion = 3

// Migration moves the schema to Version. The version is recorded in SQLite's
// user_version pragma.
type Migration struct {
	Description string
	Statements  []string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Packages and version history",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS packages (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				destination TEXT NOT NULL DEFAULT '',
				resort TEXT NOT NULL DEFAULT '',
				currency TEXT NOT NULL,
				inclusions TEXT,
				accommodation_examples TEXT,
				sales_notes TEXT NOT NULL DEFAULT '',
				matrix TEXT NOT NULL,
				version INTEGER NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				deleted_at DATETIME
			)`,
			`CREATE UNIQUE INDEX idx_packages_active_name ON packages(name COLLATE NOCASE) WHERE deleted_at IS NULL`,
			`CREATE TABLE IF NOT EXISTS package_versions (
				package_id TEXT NOT NULL,
				version INTEGER NOT NULL,
				snapshot TEXT NOT NULL,
				changed_fields TEXT NOT NULL,
				summary TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (package_id, version),
				FOREIGN KEY (package_id) REFERENCES packages(id)
			)`,
		},
	},
	{
		Version:     2,
		Description: "Saved quotes",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS quotes (
				id TEXT PRIMARY KEY,
				package_id TEXT NOT NULL,
				people INTEGER NOT NULL,
				nights INTEGER NOT NULL,
				arrival DATETIME NOT NULL,
				tier TEXT NOT NULL DEFAULT '',
				period TEXT NOT NULL DEFAULT '',
				calculated TEXT,
				displayed TEXT,
				on_request INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (package_id) REFERENCES packages(id)
			)`,
		},
	},
	{
		Version:     3,
		Description: "Index quotes by package",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_quotes_package_id ON quotes(package_id, created_at)`,
		},
	},
}

// Migrate applies every migration newer than the database, each in its own
// transaction together with the version bump.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.withTx(ctx, func(tx *sql.Tx) error { return m.apply(ctx, tx) }); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	final, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

func (m Migration) apply(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
