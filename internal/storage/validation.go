// Package storage provides the data persistence layer for tariff.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/quote"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidPackage  = errors.New("invalid package")
	ErrInvalidQuote    = errors.New("invalid quote")
	ErrInvalidVersion  = errors.New("version must be at least 1")
	ErrVersionConflict = errors.New("package was changed since it was loaded")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validatePackage checks what the database relies on. The matrix is only
// checked for structural integrity.
func validatePackage(pkg *model.Package) error {
	if pkg == nil {
		return fmt.Errorf("%w: package", ErrNilParameter)
	}
	if strings.TrimSpace(pkg.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPackage)
	}
	if !pkg.Currency.Valid() {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidPackage, pkg.Currency)
	}
	if pkg.Matrix == nil {
		return fmt.Errorf("%w: missing pricing matrix", ErrInvalidPackage)
	}
	if err := pkg.Matrix.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPackage, err)
	}
	return nil
}

// validateQuote validates a quote before it is saved.
func validateQuote(q *quote.Quote) error {
	if q == nil {
		return fmt.Errorf("%w: quote", ErrNilParameter)
	}
	if q.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidQuote)
	}
	if q.PackageID == "" {
		return fmt.Errorf("%w: missing package ID", ErrInvalidQuote)
	}
	if q.People < 1 || q.Nights < 1 {
		return fmt.Errorf("%w: people and nights must be at least 1", ErrInvalidQuote)
	}
	if q.Arrival.IsZero() {
		return fmt.Errorf("%w: missing arrival date", ErrInvalidQuote)
	}
	if q.Displayed != nil && q.Displayed.IsNegative() {
		return fmt.Errorf("%w: negative displayed price", ErrInvalidQuote)
	}
	return nil
}
