package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/tariff/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var _ service.Storage = (*SQLiteStorage)(nil)

const memoryPath = ":memory:"

// sqliteParams are appended to every DSN. Foreign keys tie versions and
// quotes to their package.
const sqliteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// SQLiteStorage keeps packages, their version history and saved quotes in a
// single SQLite file.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens the database at path, creating its directory when
// needed. Use ":memory:" for a throwaway database.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}

	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: writers never contend and an in-memory database
	// stays the same database for the life of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, path: path}, nil
}

// Close releases the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the file the storage was opened with.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// queryable lets lookups run either on the database or inside a transaction.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx commits only when fn returns nil.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
