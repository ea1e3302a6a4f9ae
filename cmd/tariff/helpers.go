package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/config"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/quote"
	"github.com/Veraticus/tariff/internal/service"
	"github.com/Veraticus/tariff/internal/sheets"
	"github.com/Veraticus/tariff/internal/storage"
)

// Swapped out in tests.
var (
	openStorage = initStorage
	openSheets  = initSheets
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initSheets connects to the configured spreadsheet.
func initSheets(ctx context.Context) (service.SheetExchange, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured; run 'tariff auth sheets' or set sheets.* in the config file", err)
	}
	return sheets.NewClient(ctx, *cfg, slog.Default())
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		common.LogWarn("Failed to close database", common.Fields{"error": err})
	}
}

// resolvePackage finds a package by name, falling back to its ID.
func resolvePackage(ctx context.Context, store service.Storage, ref string) (*model.Package, error) {
	ref = strings.TrimSpace(ref)
	pkg, err := store.GetPackageByName(ctx, ref)
	if err == nil {
		return pkg, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	pkg, err = store.GetPackage(ctx, ref)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(fmt.Sprintf("No package named %q", ref), err)
	}
	return pkg, err
}

// resolveQuote finds a quote by ID or by a unique ID prefix as shown in
// quote listings.
func resolveQuote(ctx context.Context, store service.Storage, ref string) (*quote.Quote, error) {
	ref = strings.TrimSpace(ref)
	q, err := store.GetQuote(ctx, ref)
	if err == nil || !errors.Is(err, common.ErrNotFound) {
		return q, err
	}

	all, err := store.ListQuotes(ctx, "")
	if err != nil {
		return nil, err
	}
	var match *quote.Quote
	for i := range all {
		if !strings.HasPrefix(all[i].ID, ref) {
			continue
		}
		if match != nil {
			return nil, common.NewUserError(fmt.Sprintf("Quote ID %q is ambiguous", ref), common.ErrDuplicateEntry)
		}
		match = &all[i]
	}
	if match == nil {
		return nil, common.NewUserError(fmt.Sprintf("No quote with ID %q", ref), common.ErrNotFound)
	}
	return match, nil
}
