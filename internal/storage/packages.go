package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tariff/internal/audit"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/google/uuid"
)

const packageColumns = `id, name, destination, resort, currency, inclusions, accommodation_examples,
	sales_notes, matrix, version, created_at, updated_at`

// storedSnapshot is the JSON form of a package version.
type storedSnapshot struct {
	Matrix   *model.Matrix  `json:"matrix"`
	Metadata model.Metadata `json:"metadata"`
}

// CreatePackage stores a new package as version 1 and records its first
// history entry. An empty ID is assigned a new UUID. pkg is only updated
// once the transaction has committed.
func (s *SQLiteStorage) CreatePackage(ctx context.Context, pkg *model.Package, summary string) (audit.Change, error) {
	if err := validateContext(ctx); err != nil {
		return audit.Change{}, err
	}
	if err := validatePackage(pkg); err != nil {
		return audit.Change{}, err
	}

	var change audit.Change
	stored := *pkg
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkNameAvailableTx(ctx, tx, stored.Name, ""); err != nil {
			return err
		}
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}

		change = audit.Diff(nil, stored.Snapshot(), summary)
		now := time.Now()
		stored.Version = change.NextVersion
		stored.CreatedAt = now
		stored.UpdatedAt = now

		args, err := packageArgs(&stored)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO packages (`+packageColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return fmt.Errorf("failed to create package: %w", err)
		}
		return s.saveVersionTx(ctx, tx, &stored, change, now)
	})
	if err != nil {
		return audit.Change{}, err
	}
	*pkg = stored
	return change, nil
}

// UpdatePackage replaces the stored package with pkg. pkg.Version must be
// the version that was loaded; a newer stored version yields
// ErrVersionConflict. Every successful update records a history entry, even
// when nothing changed. pkg is only updated once the transaction has
// committed, so a failed update can be retried as is.
func (s *SQLiteStorage) UpdatePackage(ctx context.Context, pkg *model.Package, summary string) (audit.Change, error) {
	if err := validateContext(ctx); err != nil {
		return audit.Change{}, err
	}
	if err := validatePackage(pkg); err != nil {
		return audit.Change{}, err
	}
	if err := validateString(pkg.ID, "id"); err != nil {
		return audit.Change{}, err
	}

	var (
		change audit.Change
		stored model.Package
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := s.getPackageTx(ctx, tx, "id = ?", pkg.ID)
		if err != nil {
			return err
		}
		if current.Version != pkg.Version {
			return fmt.Errorf("%w: %s is at version %d, update was based on version %d",
				ErrVersionConflict, current.Name, current.Version, pkg.Version)
		}
		if err := s.checkNameAvailableTx(ctx, tx, pkg.Name, pkg.ID); err != nil {
			return err
		}

		previous := current.Snapshot()
		change = audit.Diff(&previous, pkg.Snapshot(), summary)
		now := time.Now()

		inclusions, accommodation, matrix, err := encodePackageJSON(pkg)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `
			UPDATE packages SET
				name = ?, destination = ?, resort = ?, currency = ?,
				inclusions = ?, accommodation_examples = ?, sales_notes = ?,
				matrix = ?, version = ?, updated_at = ?
			WHERE id = ? AND version = ? AND deleted_at IS NULL
		`, pkg.Name, pkg.Destination, pkg.Resort, string(pkg.Currency),
			inclusions, accommodation, pkg.SalesNotes,
			matrix, change.NextVersion, now,
			pkg.ID, current.Version)
		if err != nil {
			return fmt.Errorf("failed to update package: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: %s", ErrVersionConflict, pkg.Name)
		}

		stored = *pkg
		stored.Version = change.NextVersion
		stored.CreatedAt = current.CreatedAt
		stored.UpdatedAt = now
		return s.saveVersionTx(ctx, tx, &stored, change, now)
	})
	if err != nil {
		return audit.Change{}, err
	}
	*pkg = stored
	return change, nil
}

func (s *SQLiteStorage) checkNameAvailableTx(ctx context.Context, q queryable, name, exceptID string) error {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM packages WHERE name = ? COLLATE NOCASE AND id != ? AND deleted_at IS NULL)
	`, strings.TrimSpace(name), exceptID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check package name: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: package %q", common.ErrDuplicateEntry, name)
	}
	return nil
}

func (s *SQLiteStorage) saveVersionTx(ctx context.Context, tx *sql.Tx, pkg *model.Package, change audit.Change, at time.Time) error {
	snapshot, err := json.Marshal(storedSnapshot{Metadata: pkg.Metadata, Matrix: pkg.Matrix})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	fields, err := json.Marshal(change.ChangedFields)
	if err != nil {
		return fmt.Errorf("failed to encode changed fields: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO package_versions (package_id, version, snapshot, changed_fields, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, pkg.ID, change.NextVersion, string(snapshot), string(fields), change.Summary, at)
	if err != nil {
		return fmt.Errorf("failed to record package version: %w", err)
	}
	return nil
}

// GetPackage retrieves an active package by ID.
func (s *SQLiteStorage) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getPackageTx(ctx, s.db, "id = ?", id)
}

// GetPackageByName retrieves an active package by name, ignoring case.
func (s *SQLiteStorage) GetPackageByName(ctx context.Context, name string) (*model.Package, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getPackageTx(ctx, s.db, "name = ? COLLATE NOCASE", strings.TrimSpace(name))
}

func (s *SQLiteStorage) getPackageTx(ctx context.Context, q queryable, where string, arg any) (*model.Package, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+packageColumns+`
		FROM packages
		WHERE `+where+` AND deleted_at IS NULL
	`, arg)
	pkg, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: package %v", common.ErrNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// ListPackages returns all active packages ordered by name.
func (s *SQLiteStorage) ListPackages(ctx context.Context) ([]model.Package, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+packageColumns+`
		FROM packages
		WHERE deleted_at IS NULL
		ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var packages []model.Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *pkg)
	}
	return packages, rows.Err()
}

// DeletePackage marks a package deleted. Its history is kept.
func (s *SQLiteStorage) DeletePackage(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE packages SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: package %s", common.ErrNotFound, id)
	}
	return nil
}

// GetPackageVersions returns the history of a package, oldest first.
func (s *SQLiteStorage) GetPackageVersions(ctx context.Context, packageID string) ([]model.PackageVersion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(packageID, "packageID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT package_id, version, snapshot, changed_fields, summary, created_at
		FROM package_versions
		WHERE package_id = ?
		ORDER BY version
	`, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []model.PackageVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// GetPackageVersion returns one entry of a package's history.
func (s *SQLiteStorage) GetPackageVersion(ctx context.Context, packageID string, version int) (*model.PackageVersion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(packageID, "packageID"); err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, version)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT package_id, version, snapshot, changed_fields, summary, created_at
		FROM package_versions
		WHERE package_id = ? AND version = ?
	`, packageID, version)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: version %d of package %s", common.ErrNotFound, version, packageID)
	}
	return v, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPackage(row scanner) (*model.Package, error) {
	var (
		pkg           model.Package
		currency      string
		inclusions    sql.NullString
		accommodation sql.NullString
		matrix        string
	)
	err := row.Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.Destination,
		&pkg.Resort,
		&currency,
		&inclusions,
		&accommodation,
		&pkg.SalesNotes,
		&matrix,
		&pkg.Version,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan package: %w", err)
	}

	pkg.Currency = model.Currency(currency)
	if err := decodeList(inclusions, &pkg.Inclusions); err != nil {
		return nil, fmt.Errorf("package %s inclusions: %w", pkg.ID, err)
	}
	if err := decodeList(accommodation, &pkg.AccommodationExamples); err != nil {
		return nil, fmt.Errorf("package %s accommodation examples: %w", pkg.ID, err)
	}
	pkg.Matrix = model.NewMatrix()
	if err := json.Unmarshal([]byte(matrix), pkg.Matrix); err != nil {
		return nil, fmt.Errorf("%w: package %s matrix: %w", common.ErrDatabaseCorrupted, pkg.ID, err)
	}
	return &pkg, nil
}

func scanVersion(row scanner) (*model.PackageVersion, error) {
	var (
		v        model.PackageVersion
		snapshot string
		fields   string
	)
	err := row.Scan(&v.PackageID, &v.Version, &snapshot, &fields, &v.Summary, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan package version: %w", err)
	}

	var stored storedSnapshot
	if err := json.Unmarshal([]byte(snapshot), &stored); err != nil {
		return nil, fmt.Errorf("%w: version %d of %s: %w", common.ErrDatabaseCorrupted, v.Version, v.PackageID, err)
	}
	if err := json.Unmarshal([]byte(fields), &v.ChangedFields); err != nil {
		return nil, fmt.Errorf("%w: changed fields of %s: %w", common.ErrDatabaseCorrupted, v.PackageID, err)
	}
	v.Snapshot = model.Snapshot{
		Version:  v.Version,
		Metadata: stored.Metadata,
		Matrix:   stored.Matrix,
		TakenAt:  v.CreatedAt,
	}
	return &v, nil
}

func packageArgs(pkg *model.Package) ([]any, error) {
	inclusions, accommodation, matrix, err := encodePackageJSON(pkg)
	if err != nil {
		return nil, err
	}
	return []any{
		pkg.ID, pkg.Name, pkg.Destination, pkg.Resort, string(pkg.Currency),
		inclusions, accommodation, pkg.SalesNotes, matrix,
		pkg.Version, pkg.CreatedAt, pkg.UpdatedAt,
	}, nil
}

func encodePackageJSON(pkg *model.Package) (inclusions, accommodation sql.NullString, matrix string, err error) {
	if inclusions, err = encodeList(pkg.Inclusions); err != nil {
		return
	}
	if accommodation, err = encodeList(pkg.AccommodationExamples); err != nil {
		return
	}
	data, err := json.Marshal(pkg.Matrix)
	if err != nil {
		err = fmt.Errorf("failed to encode pricing matrix: %w", err)
		return
	}
	matrix = string(data)
	return
}

func encodeList(items []string) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode list: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeList(value sql.NullString, dest *[]string) error {
	if !value.Valid || value.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(value.String), dest)
}
