package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/tariff/internal/audit"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/quote"
	"github.com/Veraticus/tariff/internal/tabular"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatrix() *model.Matrix {
	m := model.NewMatrix()
	tier := m.AddTier(model.GroupSizeTier{Label: "6-11 People", MinPeople: 6, MaxPeople: 11})
	m.AddDuration(2)
	m.AddDuration(3)
	easter := model.SpecialPeriod("Easter", model.NewDate(2025, time.April, 2), model.NewDate(2025, time.April, 6))
	m.AddPeriod(easter)
	m.AddPeriod(model.MonthPeriod(time.July))
	m.AddPeriod(model.MonthPeriod(time.June))
	m.SetPrice(tier, 2, "month:06", model.AmountPrice(decimal.NewFromInt(150)))
	m.SetPrice(tier, 2, easter.Key(), model.OnRequestPrice())
	return m
}

func TestMatrixTable(t *testing.T) {
	out := MatrixTable(testMatrix(), model.CurrencyEUR)

	assert.Contains(t, out, "6-11 People")
	assert.Contains(t, out, "€150.00")
	assert.Contains(t, out, "ON REQUEST")
	assert.Contains(t, out, EmptyCell)

	june := strings.Index(out, "June")
	july := strings.Index(out, "July")
	easter := strings.Index(out, "Easter")
	require.True(t, june >= 0 && july >= 0 && easter >= 0)
	assert.Less(t, june, july, "months in calendar order")
	assert.Less(t, july, easter, "dated ranges after months")

	assert.Contains(t, MatrixTable(model.NewMatrix(), model.CurrencyEUR), "no prices")
}

func TestWritePackage(t *testing.T) {
	var buf bytes.Buffer
	pkg := &model.Package{
		Metadata: model.Metadata{
			Name:        "Andalusian Summer",
			Destination: "Spain",
			Currency:    model.CurrencyEUR,
			Inclusions:  []string{"Airport transfers"},
			SalesNotes:  "Great for groups.",
		},
		Matrix:  testMatrix(),
		Version: 3,
	}
	require.NoError(t, WritePackage(&buf, pkg))
	out := buf.String()
	assert.Contains(t, out, "Andalusian Summer")
	assert.Contains(t, out, "• Airport transfers")
	assert.Contains(t, out, "Great for groups.")
	assert.Contains(t, out, "€150.00")
}

func TestWriteImportErrors(t *testing.T) {
	errs := []*tabular.ImportError{
		{Row: 7, Column: "6-11 People - 2 Nights", Kind: tabular.ErrInvalidPrice, Detail: `"abc"`},
		{Row: 8, Kind: tabular.ErrUnrecognizedPeriod},
		{Row: 9, Kind: tabular.ErrUnrecognizedPeriod},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteImportErrors(&buf, errs, 2))
	out := buf.String()
	assert.Contains(t, out, "row 7")
	assert.Contains(t, out, "row 8")
	assert.NotContains(t, out, "row 9")
	assert.Contains(t, out, "and 1 more")
}

func TestFormatChange(t *testing.T) {
	assert.Contains(t, FormatChange("Alpine", audit.Change{NextVersion: 1, ChangedFields: []string{}}), "Created")
	assert.Contains(t, FormatChange("Alpine", audit.Change{NextVersion: 2, ChangedFields: []string{}}), "unchanged")
	assert.Contains(t, FormatChange("Alpine", audit.Change{NextVersion: 3, ChangedFields: []string{"resort"}}), "version 3: resort")
}

func TestWriteQuotes(t *testing.T) {
	total := decimal.NewFromInt(1200)
	custom := decimal.NewFromInt(1100)
	quotes := []quote.Quote{
		{ID: "0123456789abcdef", People: 8, Nights: 2, Arrival: time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), Calculated: &total, Displayed: &total},
		{ID: "fedcba9876543210", People: 9, Nights: 2, Arrival: time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC), Calculated: &total, Displayed: &custom},
		{ID: "manual", People: 12, Nights: 2, Arrival: time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC), OnRequest: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteQuotes(&buf, quotes, model.CurrencyEUR))
	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "€1200.00")
	assert.Contains(t, out, "€1100.00")
	assert.Contains(t, out, "synced")
	assert.Contains(t, out, "custom")
	assert.Contains(t, out, "manual")

	buf.Reset()
	require.NoError(t, WriteQuote(&buf, &quotes[2], model.CurrencyEUR))
	assert.Contains(t, buf.String(), "ON REQUEST")
}

func TestWriteHistory(t *testing.T) {
	versions := []model.PackageVersion{
		{Version: 1, Summary: audit.InitialSummary, ChangedFields: []string{}},
		{Version: 2, Summary: "Updated resort", ChangedFields: []string{"resort"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, versions))
	out := buf.String()
	assert.Less(t, strings.Index(out, "Updated resort"), strings.Index(out, audit.InitialSummary), "newest first")
}

func TestProgress_SilentForSingleItem(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 1, "Importing")
	p.Step()
	p.Describe("done")
	assert.Empty(t, buf.String())
}
