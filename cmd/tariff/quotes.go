package main

import (
	"fmt"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/spf13/cobra"
)

func quotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quotes <package>",
		Short: "List saved quotes for a package",
		Long: `List saved quotes for a package, newest first.

STATE shows how the offered price relates to the calculated one: synced
quotes follow the price sheet, custom quotes carry an operator's price and
manual quotes are on request with no price entered yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(store)

			pkg, err := resolvePackage(ctx, store, args[0])
			if err != nil {
				return err
			}

			quotes, err := store.ListQuotes(ctx, pkg.ID)
			if err != nil {
				return fmt.Errorf("failed to list quotes: %w", err)
			}
			if len(quotes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("No quotes saved for %q", pkg.Name)))
				return nil
			}
			return cli.WriteQuotes(cmd.OutOrStdout(), quotes, pkg.Currency)
		},
	}
}
