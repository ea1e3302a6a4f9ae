package testutil

import (
	"time"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/shopspring/decimal"
)

// Period keys of SampleMatrix.
var (
	June   = model.MonthPeriod(time.June)
	July   = model.MonthPeriod(time.July)
	Easter = model.SpecialPeriod("Easter",
		model.NewDate(2025, time.April, 2), model.NewDate(2025, time.April, 6))
)

// SampleMatrix returns a matrix with two tiers (6-11 and 12+), two
// durations (2 and 3 nights), June, July and an Easter range. The 12+
// Easter cells are on request; 12+ for 3 nights in July is undefined.
func SampleMatrix() *model.Matrix {
	m := model.NewMatrix()
	small := m.AddTier(model.GroupSizeTier{Label: "6-11 People", MinPeople: 6, MaxPeople: 11})
	large := m.AddTier(model.GroupSizeTier{Label: "12+ People", MinPeople: 12})
	m.AddDuration(2)
	m.AddDuration(3)
	m.AddPeriod(June)
	m.AddPeriod(July)
	m.AddPeriod(Easter)

	set := func(tier, nights int, period model.PricingPeriod, amount string) {
		m.SetPrice(tier, nights, period.Key(), model.AmountPrice(decimal.RequireFromString(amount)))
	}
	set(small, 2, June, "150")
	set(small, 3, June, "200")
	set(large, 2, June, "130")
	set(large, 3, June, "180")
	set(small, 2, July, "170")
	set(small, 3, July, "220")
	set(large, 2, July, "150")
	set(small, 2, Easter, "250")
	set(small, 3, Easter, "320")
	m.SetPrice(large, 2, Easter.Key(), model.OnRequestPrice())
	m.SetPrice(large, 3, Easter.Key(), model.OnRequestPrice())
	return m
}

// SamplePackage returns an unsaved EUR package built on SampleMatrix.
func SamplePackage(name string) *model.Package {
	return &model.Package{
		Metadata: model.Metadata{
			Name:                  name,
			Destination:           "Spain",
			Resort:                "Marbella",
			Currency:              model.CurrencyEUR,
			Inclusions:            []string{"Airport transfers", "Daily breakfast"},
			AccommodationExamples: []string{"Hotel Puente Romano"},
			SalesNotes:            "Great for corporate groups.",
		},
		Matrix: SampleMatrix(),
	}
}

// SampleSheet returns the rows of a price sheet for a package named name.
func SampleSheet(name string) [][]string {
	return [][]string{
		{"Name:", name},
		{"Destination:", "Spain"},
		{"Resort:", "Marbella"},
		{"Currency:", "EUR"},
		{},
		{"Period", "6-11 People - 2 Nights", "6-11 People - 3 Nights", "12+ People - 2 Nights"},
		{"June", "150", "200", "130"},
		{"July", "170", "220", "150"},
		{"Easter (02/04/2025 - 06/04/2025)", "250", "320", "ON REQUEST"},
		{},
		{"Inclusions:"},
		{"- Airport transfers"},
		{"Sales Notes:"},
		{"Great for corporate groups."},
	}
}
