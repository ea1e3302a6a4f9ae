// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/tariff/internal/audit"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/quote"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Package operations
	CreatePackage(ctx context.Context, pkg *model.Package, summary string) (audit.Change, error)
	UpdatePackage(ctx context.Context, pkg *model.Package, summary string) (audit.Change, error)
	GetPackage(ctx context.Context, id string) (*model.Package, error)
	GetPackageByName(ctx context.Context, name string) (*model.Package, error)
	ListPackages(ctx context.Context) ([]model.Package, error)
	DeletePackage(ctx context.Context, id string) error

	// Version history
	GetPackageVersions(ctx context.Context, packageID string) ([]model.PackageVersion, error)
	GetPackageVersion(ctx context.Context, packageID string, version int) (*model.PackageVersion, error)

	// Quote operations
	SaveQuote(ctx context.Context, q *quote.Quote) error
	GetQuote(ctx context.Context, id string) (*quote.Quote, error)
	ListQuotes(ctx context.Context, packageID string) ([]quote.Quote, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// SheetExchange reads and writes raw price sheets in a spreadsheet service.
type SheetExchange interface {
	ReadSheet(ctx context.Context, sheetName string) ([][]string, error)
	WriteSheet(ctx context.Context, sheetName string, rows [][]string) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
