package main

import (
	"fmt"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/pricing"
	"github.com/Veraticus/tariff/internal/quote"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func requoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requote <quote-id>",
		Short: "Reprice a saved quote",
		Long: `Reprice a saved quote against the package's current prices, optionally
with new booking details.

Synced and manual quotes take the new total. A custom price is kept unless
you accept the newly calculated total when asked, or pass --accept.`,
		Args: cobra.ExactArgs(1),
		RunE: runRequote,
	}

	cmd.Flags().IntP("people", "p", 0, "New number of travellers")
	cmd.Flags().IntP("nights", "n", 0, "New number of nights")
	cmd.Flags().StringP("arrival", "a", "", "New arrival date (format: 2006-01-02)")
	cmd.Flags().String("price", "", "Offer this total, replacing any calculated or custom price")
	cmd.Flags().Bool("accept", false, "Replace a custom price with the calculated total without asking")
	cmd.Flags().Bool("keep", false, "Keep a custom price without asking")

	return cmd
}

func runRequote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	accept, _ := cmd.Flags().GetBool("accept")
	keep, _ := cmd.Flags().GetBool("keep")
	priceStr, _ := cmd.Flags().GetString("price")
	if accept && keep {
		return common.NewUserError("Use either --accept or --keep", common.ErrInvalidConfig)
	}

	var override *decimal.Decimal
	if priceStr != "" {
		amount, err := decimal.NewFromString(priceStr)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("Invalid price %q", priceStr), err)
		}
		override = &amount
	}

	store, err := openStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(store)

	q, err := resolveQuote(ctx, store, args[0])
	if err != nil {
		return err
	}
	pkg, err := store.GetPackage(ctx, q.PackageID)
	if err != nil {
		return fmt.Errorf("failed to load package for quote: %w", err)
	}

	people, nights, arrival := q.People, q.Nights, q.Arrival
	if cmd.Flags().Changed("people") {
		people, _ = cmd.Flags().GetInt("people")
	}
	if cmd.Flags().Changed("nights") {
		nights, _ = cmd.Flags().GetInt("nights")
	}
	if cmd.Flags().Changed("arrival") {
		arrivalStr, _ := cmd.Flags().GetString("arrival")
		if arrival, err = parseArrival(arrivalStr); err != nil {
			return err
		}
	}

	offer, err := q.Reprice(pkg.Matrix, people, nights, arrival)
	if err != nil {
		return common.NewUserError(pricing.Describe(err), err)
	}

	switch {
	case override != nil:
		if err := q.Override(*override); err != nil {
			return common.NewUserError("The offered price cannot be negative", err)
		}
	case !offer.Applied && offer.Calculated != nil && !offer.Calculated.Equal(*q.Displayed):
		replace := accept
		if !accept && !keep {
			question := fmt.Sprintf("This quote has a custom price of %s. Replace it with the calculated %s?",
				q.Displayed.StringFixed(2), offer.Calculated.StringFixed(2))
			replace, err = cli.NewConfirmer(cmd.InOrStdin(), out).Confirm(ctx, question, false)
			if err != nil {
				return err
			}
		}
		if replace {
			q.Resync()
		}
	}

	if err := store.SaveQuote(ctx, q); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}

	if err := cli.WriteQuote(out, q, pkg.Currency); err != nil {
		return err
	}
	fmt.Fprintln(out, requoteOutcome(offer, q, override != nil))
	return nil
}

func requoteOutcome(offer quote.Offer, q *quote.Quote, overridden bool) string {
	switch {
	case overridden:
		return cli.FormatSuccess("Offered price set")
	case offer.Applied && q.OnRequest:
		return cli.FormatWarning("Price on request: contact the supplier and record the price with --price")
	case offer.Applied:
		return cli.FormatSuccess("Quote follows the current prices")
	case q.State() == quote.StateSynced:
		return cli.FormatSuccess("Quote is back in sync with the current prices")
	default:
		return cli.FormatInfo("Custom price kept")
	}
}
