package main

import (
	"context"
	"testing"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/pricing"
	"github.com/Veraticus/tariff/internal/quote"
	"github.com/Veraticus/tariff/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedQuotes(t *testing.T, db *testutil.TestDB, name string) []quote.Quote {
	t.Helper()
	quotes, err := db.Storage.ListQuotes(context.Background(), db.MustGetPackage(name).ID)
	require.NoError(t, err)
	return quotes
}

func TestQuoteCmd(t *testing.T) {
	t.Run("prices without saving", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

		out, err := executeCommand(t, "", "quote", "Andalusian Summer", "--people", "8", "--nights", "2", "--arrival", "2025-06-10")
		require.NoError(t, err)
		assert.Contains(t, out, "6-11 People / June")
		assert.Contains(t, out, "1200")
		assert.Empty(t, savedQuotes(t, db, "Andalusian Summer"))
	})

	t.Run("dated range wins over its month", func(t *testing.T) {
		setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

		out, err := executeCommand(t, "", "quote", "andalusian summer", "-p", "6", "-n", "3", "-a", "2025-04-03")
		require.NoError(t, err)
		assert.Contains(t, out, "6-11 People / Easter")
		assert.Contains(t, out, "1920")
	})

	t.Run("saves with a negotiated price", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

		out, err := executeCommand(t, "", "quote", "Andalusian Summer", "-p", "8", "-n", "2", "-a", "2025-06-10", "--price", "1150")
		require.NoError(t, err)
		assert.Contains(t, out, "Saved quote")

		quotes := savedQuotes(t, db, "Andalusian Summer")
		require.Len(t, quotes, 1)
		assert.Equal(t, quote.StateCustom, quotes[0].State())
		assert.True(t, quotes[0].Displayed.Equal(decimal.NewFromInt(1150)))
		assert.True(t, quotes[0].Calculated.Equal(decimal.NewFromInt(1200)))
	})

	t.Run("on request", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

		out, err := executeCommand(t, "", "quote", "Andalusian Summer", "-p", "14", "-n", "2", "-a", "2025-04-03", "--save")
		require.NoError(t, err)
		assert.Contains(t, out, "ON REQUEST")
		assert.Contains(t, out, "Price on request")

		quotes := savedQuotes(t, db, "Andalusian Summer")
		require.Len(t, quotes, 1)
		assert.Equal(t, quote.StateManual, quotes[0].State())
	})

	t.Run("calculation errors are explained", func(t *testing.T) {
		setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

		tests := []struct {
			wantErr error
			name    string
			args    []string
		}{
			{name: "group too small", args: []string{"-p", "4", "-n", "2", "-a", "2025-06-10"}, wantErr: pricing.ErrNoMatchingTier},
			{name: "unsold duration", args: []string{"-p", "8", "-n", "7", "-a", "2025-06-10"}, wantErr: pricing.ErrInvalidDuration},
			{name: "no period", args: []string{"-p", "8", "-n", "2", "-a", "2025-12-10"}, wantErr: pricing.ErrNoMatchingPeriod},
			{name: "missing cell", args: []string{"-p", "12", "-n", "3", "-a", "2025-07-10"}, wantErr: pricing.ErrPriceNotDefined},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := executeCommand(t, "", append([]string{"quote", "Andalusian Summer"}, tt.args...)...)
				require.ErrorIs(t, err, tt.wantErr)

				var userErr *common.UserError
				require.ErrorAs(t, err, &userErr)
				assert.Equal(t, pricing.Describe(err), userErr.UserMessage)
			})
		}
	})

	t.Run("bad input", func(t *testing.T) {
		setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

		_, err := executeCommand(t, "", "quote", "Andalusian Summer", "-p", "8", "-n", "2", "-a", "10/06/2025")
		assert.ErrorContains(t, err, "Invalid arrival date")

		_, err = executeCommand(t, "", "quote", "Andalusian Summer", "-p", "8", "-n", "2", "-a", "2025-06-10", "--price", "cheap")
		assert.ErrorContains(t, err, "Invalid price")

		_, err = executeCommand(t, "", "quote", "Nowhere", "-p", "8", "-n", "2", "-a", "2025-06-10")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestQuotesCmd(t *testing.T) {
	db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

	out, err := executeCommand(t, "", "quotes", "Andalusian Summer")
	require.NoError(t, err)
	assert.Contains(t, out, "No quotes saved")

	_, err = executeCommand(t, "", "quote", "Andalusian Summer", "-p", "8", "-n", "2", "-a", "2025-06-10", "--save")
	require.NoError(t, err)
	q := savedQuotes(t, db, "Andalusian Summer")[0]

	out, err = executeCommand(t, "", "quotes", "Andalusian Summer")
	require.NoError(t, err)
	assert.Contains(t, out, q.ID[:8])
	assert.Contains(t, out, "synced")
}

func TestRequoteCmd(t *testing.T) {
	ctx := context.Background()

	// raiseJune moves the 6-11 People, 2 night June price to 160.
	raiseJune := func(t *testing.T, db *testutil.TestDB) {
		t.Helper()
		pkg := db.MustGetPackage("Andalusian Summer")
		pkg.Matrix.SetPrice(0, 2, testutil.June.Key(), model.AmountPrice(decimal.NewFromInt(160)))
		_, err := db.Storage.UpdatePackage(ctx, pkg, "Raised June")
		require.NoError(t, err)
	}
	saveQuote := func(t *testing.T, db *testutil.TestDB, price string) *quote.Quote {
		t.Helper()
		args := []string{"quote", "Andalusian Summer", "-p", "8", "-n", "2", "-a", "2025-06-10", "--save"}
		if price != "" {
			args = append(args, "--price", price)
		}
		_, err := executeCommand(t, "", args...)
		require.NoError(t, err)
		return &savedQuotes(t, db, "Andalusian Summer")[0]
	}

	t.Run("synced quote follows new prices", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))
		q := saveQuote(t, db, "")
		raiseJune(t, db)

		out, err := executeCommand(t, "", "requote", q.ID[:8])
		require.NoError(t, err)
		assert.Contains(t, out, "Quote follows the current prices")

		stored, err := db.Storage.GetQuote(ctx, q.ID)
		require.NoError(t, err)
		assert.True(t, stored.Displayed.Equal(decimal.NewFromInt(1280)))
		assert.Equal(t, quote.StateSynced, stored.State())
	})

	t.Run("custom price kept when declined", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))
		q := saveQuote(t, db, "1100")
		raiseJune(t, db)

		out, err := executeCommand(t, "n\n", "requote", q.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "Replace it with the calculated 1280.00?")
		assert.Contains(t, out, "Custom price kept")

		stored, err := db.Storage.GetQuote(ctx, q.ID)
		require.NoError(t, err)
		assert.True(t, stored.Displayed.Equal(decimal.NewFromInt(1100)))
		assert.True(t, stored.Calculated.Equal(decimal.NewFromInt(1280)))
	})

	t.Run("custom price replaced when accepted", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))
		q := saveQuote(t, db, "1100")
		raiseJune(t, db)

		_, err := executeCommand(t, "y\n", "requote", q.ID)
		require.NoError(t, err)

		stored, err := db.Storage.GetQuote(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, quote.StateSynced, stored.State())
		assert.True(t, stored.Displayed.Equal(decimal.NewFromInt(1280)))
	})

	t.Run("new booking details", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))
		q := saveQuote(t, db, "")

		_, err := executeCommand(t, "", "requote", q.ID, "--people", "12", "--arrival", "2025-07-01")
		require.NoError(t, err)

		stored, err := db.Storage.GetQuote(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, stored.People)
		assert.Equal(t, "12+ People", stored.Tier)
		assert.Equal(t, "July", stored.Period)
		assert.True(t, stored.Displayed.Equal(decimal.NewFromInt(1800)))
	})

	t.Run("records a price for an on request quote", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))
		_, err := executeCommand(t, "", "quote", "Andalusian Summer", "-p", "14", "-n", "2", "-a", "2025-04-03", "--save")
		require.NoError(t, err)
		q := savedQuotes(t, db, "Andalusian Summer")[0]

		out, err := executeCommand(t, "", "requote", q.ID, "--price", "3500")
		require.NoError(t, err)
		assert.Contains(t, out, "Offered price set")

		stored, err := db.Storage.GetQuote(ctx, q.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Calculated)
		assert.True(t, stored.Displayed.Equal(decimal.NewFromInt(3500)))
	})

	t.Run("failed repricing leaves the quote alone", func(t *testing.T) {
		db, _ := setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))
		q := saveQuote(t, db, "")

		_, err := executeCommand(t, "", "requote", q.ID, "--nights", "5")
		assert.ErrorIs(t, err, pricing.ErrInvalidDuration)

		stored, err := db.Storage.GetQuote(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Nights)
	})

	t.Run("unknown quote", func(t *testing.T) {
		setupCommandTest(t, testutil.SamplePackage("Andalusian Summer"))

		_, err := executeCommand(t, "", "requote", "ffffffff")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
