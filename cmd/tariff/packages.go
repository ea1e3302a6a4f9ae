package main

import (
	"fmt"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/document"
	"github.com/spf13/cobra"
)

func packagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packages",
		Aliases: []string{"pkg"},
		Short:   "Manage priced packages",
		Long:    `List, inspect and delete the packages imported from price sheets.`,
	}

	cmd.AddCommand(packagesListCmd())
	cmd.AddCommand(packagesShowCmd())
	cmd.AddCommand(packagesDeleteCmd())

	return cmd
}

func packagesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List packages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(store)

			packages, err := store.ListPackages(ctx)
			if err != nil {
				return fmt.Errorf("failed to list packages: %w", err)
			}
			if len(packages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No packages yet. Import a price sheet with 'tariff import'."))
				return nil
			}
			return cli.WritePackages(cmd.OutOrStdout(), packages)
		},
	}
}

func packagesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <package>",
		Short: "Show a package and its price matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			asYAML, _ := cmd.Flags().GetBool("yaml")

			store, err := openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(store)

			pkg, err := resolvePackage(ctx, store, args[0])
			if err != nil {
				return err
			}

			if asYAML {
				return document.Encode(cmd.OutOrStdout(), pkg.Metadata, pkg.Matrix)
			}
			return cli.WritePackage(cmd.OutOrStdout(), pkg)
		},
	}

	cmd.Flags().Bool("yaml", false, "Print the package as a YAML document")

	return cmd
}

func packagesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <package>",
		Short: "Delete a package",
		Long: `Delete a package. Its history and saved quotes are kept, and its name can be
used by a new import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			yes, _ := cmd.Flags().GetBool("yes")

			store, err := openStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(store)

			pkg, err := resolvePackage(ctx, store, args[0])
			if err != nil {
				return err
			}

			if !yes {
				confirmed, err := cli.NewConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()).
					Confirm(ctx, fmt.Sprintf("Delete %q?", pkg.Name), false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := store.DeletePackage(ctx, pkg.ID); err != nil {
				return fmt.Errorf("failed to delete package: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %q", pkg.Name)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	return cmd
}
