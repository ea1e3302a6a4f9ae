package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <package>",
		Short: "Show a package's version history",
		Long: `Show every recorded version of a package with the fields that changed.

With --version, print the package exactly as it was at that version.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("version", 0, "Show the package as it was at this version")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	versionNum, _ := cmd.Flags().GetInt("version")

	store, err := openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(store)

	pkg, err := resolvePackage(ctx, store, args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("version") {
		v, err := store.GetPackageVersion(ctx, pkg.ID, versionNum)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("%q has no version %d", pkg.Name, versionNum), err)
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Version %d of %d: %s", v.Version, pkg.Version, v.Summary)))
		if len(v.ChangedFields) > 0 {
			fmt.Fprintln(out, cli.SubtleStyle.Render("Changed: "+strings.Join(v.ChangedFields, ", ")))
		}
		return cli.WritePackage(out, snapshotPackage(pkg, v))
	}

	versions, err := store.GetPackageVersions(ctx, pkg.ID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	fmt.Fprintln(out, cli.FormatTitle(pkg.Name))
	return cli.WriteHistory(out, versions)
}

// snapshotPackage presents a history entry as a package for display.
func snapshotPackage(pkg *model.Package, v *model.PackageVersion) *model.Package {
	return &model.Package{
		ID:        pkg.ID,
		Metadata:  v.Snapshot.Metadata,
		Matrix:    v.Snapshot.Matrix,
		Version:   v.Version,
		CreatedAt: pkg.CreatedAt,
		UpdatedAt: v.CreatedAt,
	}
}
