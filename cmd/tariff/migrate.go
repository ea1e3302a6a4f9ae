package main

import (
	"fmt"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/config"
	"github.com/Veraticus/tariff/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long: `Create the database or upgrade its schema.

Commands that touch the database already migrate it when they start. Use
this to upgrade ahead of time, or with --status to see what is pending.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "report the schema version without migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	statusOnly, _ := cmd.Flags().GetBool("status")
	path := config.DatabasePath()

	// Opened directly: openStorage would migrate before --status can report.
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(store)

	from, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	latest := storage.ExpectedSchemaVersion
	common.LogDebug("Schema version", common.Fields{"database": path, "current": from, "latest": latest})

	switch {
	case statusOnly:
		fmt.Fprintln(out, cli.FormatTitle("Schema status"))
		fmt.Fprintf(out, "Database:        %s\n", path)
		fmt.Fprintf(out, "Current version: %d\n", from)
		fmt.Fprintf(out, "Latest version:  %d\n", latest)
		if pending := latest - from; pending > 0 {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d migrations pending", pending)))
		}
	case from >= latest:
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Database is up to date (version %d)", from)))
	default:
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated database from version %d to %d", from, latest)))
	}
	return nil
}
