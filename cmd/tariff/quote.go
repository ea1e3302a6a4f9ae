package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/pricing"
	"github.com/Veraticus/tariff/internal/quote"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const arrivalLayout = "2006-01-02"

func quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <package>",
		Short: "Price a booking",
		Long: `Price a booking for a group size, stay length and arrival date.

The arrival date picks the pricing period: a dated range covering it wins over
its month. Prices in the sheet are per person; the total is for the group.

Examples:
  tariff quote "Andalusian Summer" --people 8 --nights 2 --arrival 2025-06-10

  # Save the quote with a negotiated price
  tariff quote "Andalusian Summer" -p 8 -n 2 -a 2025-06-10 --price 1150`,
		Args: cobra.ExactArgs(1),
		RunE: runQuote,
	}

	cmd.Flags().IntP("people", "p", 0, "Number of travellers")
	cmd.Flags().IntP("nights", "n", 0, "Number of nights")
	cmd.Flags().StringP("arrival", "a", "", "Arrival date (format: 2006-01-02)")
	cmd.Flags().Bool("save", false, "Save the quote")
	cmd.Flags().String("price", "", "Offer this total instead of the calculated one (implies --save)")
	_ = cmd.MarkFlagRequired("people")
	_ = cmd.MarkFlagRequired("nights")
	_ = cmd.MarkFlagRequired("arrival")

	return cmd
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	people, _ := cmd.Flags().GetInt("people")
	nights, _ := cmd.Flags().GetInt("nights")
	arrivalStr, _ := cmd.Flags().GetString("arrival")
	save, _ := cmd.Flags().GetBool("save")
	priceStr, _ := cmd.Flags().GetString("price")

	arrival, err := parseArrival(arrivalStr)
	if err != nil {
		return err
	}

	var override *decimal.Decimal
	if priceStr != "" {
		amount, err := decimal.NewFromString(priceStr)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("Invalid price %q", priceStr), err)
		}
		override = &amount
		save = true
	}

	store, err := openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(store)

	pkg, err := resolvePackage(ctx, store, args[0])
	if err != nil {
		return err
	}

	q, err := quote.New(pkg.ID, pkg.Matrix, people, nights, arrival)
	if err != nil {
		return common.NewUserError(pricing.Describe(err), err)
	}
	if override != nil {
		if err := q.Override(*override); err != nil {
			return common.NewUserError("The offered price cannot be negative", err)
		}
	}

	if err := cli.WriteQuote(cmd.OutOrStdout(), q, pkg.Currency); err != nil {
		return err
	}
	if q.OnRequest && q.Displayed == nil {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Price on request: contact the supplier and record the price with --price"))
	}

	if !save {
		return nil
	}
	if err := store.SaveQuote(ctx, q); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	common.LogDebug("Saved quote", common.Fields{"id": q.ID, "package": pkg.Name})
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved quote "+q.ID))
	return nil
}

func parseArrival(s string) (time.Time, error) {
	arrival, err := time.Parse(arrivalLayout, s)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("Invalid arrival date %q (expected YYYY-MM-DD)", s), err)
	}
	return arrival, nil
}
