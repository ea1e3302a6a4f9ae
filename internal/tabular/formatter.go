package tabular

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/tariff/internal/model"
)

// Format renders a package in the layout Parse reads, using DefaultLocale.
func Format(meta model.Metadata, m *model.Matrix) ([][]string, error) {
	return defaultParser.Format(meta, m)
}

// Format renders the header block, the price table and the trailing
// sections. Month rows come first in calendar order, followed by dated
// ranges in matrix order.
//
// A sheet carries a tier's people range only in its label, so a tier whose
// label reads as a different range (or none) is refused with ErrTierLabel.
func (p *Parser) Format(meta model.Metadata, m *model.Matrix) ([][]string, error) {
	if m == nil {
		m = model.NewMatrix()
	}
	if err := p.checkTierLabels(m); err != nil {
		return nil, err
	}

	rows := [][]string{
		{"Name:", meta.Name},
		{"Destination:", meta.Destination},
		{"Resort:", meta.Resort},
		{"Currency:", string(meta.Currency)},
		{},
	}

	type col struct {
		tier   int
		nights int
	}
	var cols []col
	header := []string{p.locale.PeriodColumnLabel}
	for ti, tier := range m.Tiers {
		for _, nights := range m.Nights() {
			cols = append(cols, col{tier: ti, nights: nights})
			header = append(header, p.columnLabel(tier.Label, nights))
		}
	}
	rows = append(rows, header)

	for _, period := range orderedPeriods(m.Periods) {
		row := []string{p.periodLabel(period)}
		for _, c := range cols {
			price, ok := m.Lookup(c.tier, c.nights, period.Key())
			row = append(row, p.formatPrice(price, ok))
		}
		rows = append(rows, row)
	}

	rows = appendList(rows, "Inclusions:", meta.Inclusions)
	rows = appendList(rows, "Accommodation:", meta.AccommodationExamples)
	if meta.SalesNotes != "" {
		rows = append(rows, []string{}, []string{"Sales Notes:"})
		for _, line := range strings.Split(meta.SalesNotes, "\n") {
			rows = append(rows, []string{line})
		}
	}
	return rows, nil
}

func (p *Parser) checkTierLabels(m *model.Matrix) error {
	for _, tier := range m.Tiers {
		read := p.parseTier(tier.Label)
		if read.MinPeople == tier.MinPeople && read.MaxPeople == tier.MaxPeople {
			continue
		}
		want := "an unknown range"
		if tier.HasRange() {
			want = tier.RangeString()
		}
		return fmt.Errorf("%w: %q does not read as %s", ErrTierLabel, tier.Label, want)
	}
	return nil
}

func appendList(rows [][]string, header string, items []string) [][]string {
	if len(items) == 0 {
		return rows
	}
	rows = append(rows, []string{}, []string{header})
	for _, item := range items {
		rows = append(rows, []string{"- " + item})
	}
	return rows
}

func orderedPeriods(periods []model.PricingPeriod) []model.PricingPeriod {
	var months, special []model.PricingPeriod
	for _, period := range periods {
		if period.IsSpecial() {
			special = append(special, period)
		} else {
			months = append(months, period)
		}
	}
	sort.SliceStable(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return append(months, special...)
}

func (p *Parser) columnLabel(tier string, nights int) string {
	word := p.locale.NightsWord
	if nights == 1 {
		word = p.locale.singularNights()
	}
	return fmt.Sprintf("%s - %d %s", tier, nights, word)
}

func (p *Parser) periodLabel(period model.PricingPeriod) string {
	if !period.IsSpecial() {
		return p.locale.monthName(period.Month)
	}
	return fmt.Sprintf("%s (%s - %s)", period.Label, p.formatDate(period.Start), p.formatDate(period.End))
}

func (p *Parser) formatDate(d model.CalendarDate) string {
	if d.Recurring() {
		layout := "02/01"
		if len(p.locale.RecurringDateLayouts) > 0 {
			layout = p.locale.RecurringDateLayouts[0]
		}
		// Leap year so that a recurring 29 February survives formatting.
		return time.Date(2000, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(layout)
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(p.locale.DateLayouts[0])
}

func (p *Parser) formatPrice(price model.Price, defined bool) string {
	switch {
	case !defined:
		return ""
	case price.IsOnRequest():
		return p.locale.OnRequestToken
	default:
		s := price.Amount.String()
		if p.locale.DecimalSeparator != "." {
			s = strings.Replace(s, ".", p.locale.DecimalSeparator, 1)
		}
		return s
	}
}
