package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/quote"
	"github.com/shopspring/decimal"
)

const quoteColumns = `id, package_id, people, nights, arrival, tier, period,
	calculated, displayed, on_request, created_at, updated_at`

// SaveQuote inserts or replaces a quote.
func (s *SQLiteStorage) SaveQuote(ctx context.Context, q *quote.Quote) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateQuote(q); err != nil {
		return err
	}

	now := time.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			people = excluded.people,
			nights = excluded.nights,
			arrival = excluded.arrival,
			tier = excluded.tier,
			period = excluded.period,
			calculated = excluded.calculated,
			displayed = excluded.displayed,
			on_request = excluded.on_request,
			updated_at = excluded.updated_at
	`,
		q.ID, q.PackageID, q.People, q.Nights, q.Arrival, q.Tier, q.Period,
		nullDecimal(q.Calculated), nullDecimal(q.Displayed), q.OnRequest,
		q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// GetQuote retrieves a quote by ID.
func (s *SQLiteStorage) GetQuote(ctx context.Context, id string) (*quote.Quote, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: quote %s", common.ErrNotFound, id)
	}
	return q, err
}

// ListQuotes returns the quotes of a package, newest first. An empty
// packageID lists every quote.
func (s *SQLiteStorage) ListQuotes(ctx context.Context, packageID string) ([]quote.Quote, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes`
	var args []any
	if packageID != "" {
		query += ` WHERE package_id = ?`
		args = append(args, packageID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var quotes []quote.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

func scanQuote(row scanner) (*quote.Quote, error) {
	var (
		q          quote.Quote
		calculated decimal.NullDecimal
		displayed  decimal.NullDecimal
	)
	err := row.Scan(
		&q.ID,
		&q.PackageID,
		&q.People,
		&q.Nights,
		&q.Arrival,
		&q.Tier,
		&q.Period,
		&calculated,
		&displayed,
		&q.OnRequest,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}
	if calculated.Valid {
		q.Calculated = &calculated.Decimal
	}
	if displayed.Valid {
		q.Displayed = &displayed.Decimal
	}
	return &q, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
