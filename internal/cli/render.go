package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/tariff/internal/audit"
	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/quote"
	"github.com/Veraticus/tariff/internal/tabular"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

// EmptyCell marks a matrix cell with no price defined.
const EmptyCell = "–"

// MatrixTable renders a pricing matrix with one row per period and one
// column per tier and duration.
func MatrixTable(m *model.Matrix, currency model.Currency) string {
	if m == nil || len(m.Tiers) == 0 {
		return SubtleStyle.Render("(no prices)")
	}

	type col struct {
		tier   int
		nights int
	}
	var cols []col
	headers := []string{"Period"}
	for ti, tier := range m.Tiers {
		for _, nights := range m.Nights() {
			cols = append(cols, col{tier: ti, nights: nights})
			headers = append(headers, fmt.Sprintf("%s\n%d nights", tier.Label, nights))
		}
	}

	var rows [][]string
	for _, period := range displayOrder(m.Periods) {
		row := []string{period.String()}
		for _, c := range cols {
			price, ok := m.Lookup(c.tier, c.nights, period.Key())
			switch {
			case !ok:
				row = append(row, SubtleStyle.Render(EmptyCell))
			case price.IsOnRequest():
				row = append(row, OnRequestStyle.Render(price.Format(currency)))
			default:
				row = append(row, price.Format(currency))
			}
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if col > 0 {
				return TableCellStyle.Align(lipgloss.Right)
			}
			return TableCellStyle
		})
	return t.Render()
}

// displayOrder lists month periods in calendar order, then dated ranges
// in matrix order.
func displayOrder(periods []model.PricingPeriod) []model.PricingPeriod {
	out := make([]model.PricingPeriod, len(periods))
	copy(out, periods)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsSpecial() != b.IsSpecial() {
			return !a.IsSpecial()
		}
		if !a.IsSpecial() {
			return a.Month < b.Month
		}
		return false
	})
	return out
}

// WritePackage writes a package's metadata followed by its matrix.
func WritePackage(w io.Writer, pkg *model.Package) error {
	var b strings.Builder
	b.WriteString(FormatTitle(pkg.Name) + "\n")
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Destination:"), pkg.Destination)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Resort:     "), pkg.Resort)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Currency:   "), pkg.Currency)
	fmt.Fprintf(&b, "%s %d\n", BoldStyle.Render("Version:    "), pkg.Version)
	writeList(&b, "Inclusions", pkg.Inclusions)
	writeList(&b, "Accommodation", pkg.AccommodationExamples)
	if pkg.SalesNotes != "" {
		b.WriteString(BoldStyle.Render("Sales notes:") + "\n")
		for _, line := range strings.Split(pkg.SalesNotes, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + MatrixTable(pkg.Matrix, pkg.Currency) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(BoldStyle.Render(title+":") + "\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}

// WriteImportErrors lists row-level import problems, at most limit of them
// when limit is positive.
func WriteImportErrors(w io.Writer, errs []*tabular.ImportError, limit int) error {
	var b strings.Builder
	shown := errs
	if limit > 0 && len(errs) > limit {
		shown = errs[:limit]
	}
	for _, e := range shown {
		b.WriteString(FormatError(e.Error()) + "\n")
	}
	if len(shown) < len(errs) {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("  … and %d more", len(errs)-len(shown))) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatChange summarizes a stored package change.
func FormatChange(name string, change audit.Change) string {
	if change.NextVersion == 1 {
		return FormatSuccess(fmt.Sprintf("Created %q (version 1)", name))
	}
	if !change.HasChanges() {
		return FormatInfo(fmt.Sprintf("%q unchanged, recorded version %d", name, change.NextVersion))
	}
	return FormatSuccess(fmt.Sprintf("Updated %q to version %d: %s", name, change.NextVersion, strings.Join(change.ChangedFields, ", ")))
}

// WriteQuote writes one quote with its reconciliation state.
func WriteQuote(w io.Writer, q *quote.Quote, currency model.Currency) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Quote:  "), q.ID)
	fmt.Fprintf(&b, "%s %d people, %d nights, arriving %s\n", BoldStyle.Render("Booking:"),
		q.People, q.Nights, q.Arrival.Format("2 Jan 2006"))
	fmt.Fprintf(&b, "%s %s / %s\n", BoldStyle.Render("Priced: "), q.Tier, q.Period)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Total:  "), formatAmount(q.Calculated, currency))
	fmt.Fprintf(&b, "%s %s %s\n", BoldStyle.Render("Offered:"), formatAmount(q.Displayed, currency), stateBadge(q.State()))
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteQuotes writes a quote list in aligned columns.
func WriteQuotes(w io.Writer, quotes []quote.Quote, currency model.Currency) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("PEOPLE")+"\t"+headerStyle.Render("NIGHTS")+"\t"+
		headerStyle.Render("ARRIVAL")+"\t"+headerStyle.Render("TOTAL")+"\t"+headerStyle.Render("OFFERED")+"\t"+headerStyle.Render("STATE"))
	for i := range quotes {
		q := &quotes[i]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			shortID(q.ID), q.People, q.Nights, q.Arrival.Format("2006-01-02"),
			formatAmount(q.Calculated, currency), formatAmount(q.Displayed, currency), stateBadge(q.State()))
	}
	return tw.Flush()
}

// WritePackages writes a package list in aligned columns.
func WritePackages(w io.Writer, packages []model.Package) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintln(tw, headerStyle.Render("NAME")+"\t"+headerStyle.Render("DESTINATION")+"\t"+
		headerStyle.Render("CURRENCY")+"\t"+headerStyle.Render("PRICES")+"\t"+headerStyle.Render("VERSION")+"\t"+headerStyle.Render("UPDATED"))
	for i := range packages {
		p := &packages[i]
		cells := 0
		if p.Matrix != nil {
			cells = p.Matrix.CellCount()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			p.Name, p.Destination, p.Currency, cells, p.Version, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// WriteHistory writes a package's versions, newest first.
func WriteHistory(w io.Writer, versions []model.PackageVersion) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintln(tw, headerStyle.Render("VERSION")+"\t"+headerStyle.Render("DATE")+"\t"+
		headerStyle.Render("SUMMARY")+"\t"+headerStyle.Render("FIELDS"))
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		fields := strings.Join(v.ChangedFields, ", ")
		if fields == "" {
			fields = SubtleStyle.Render(EmptyCell)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			strconv.Itoa(v.Version), v.CreatedAt.Format("2006-01-02 15:04"), v.Summary, fields)
	}
	return tw.Flush()
}

func stateBadge(s quote.State) string {
	switch s {
	case quote.StateSynced:
		return SuccessStyle.Render(string(s))
	case quote.StateCustom:
		return WarningStyle.Render(string(s))
	default:
		return InfoStyle.Render(string(s))
	}
}

func formatAmount(amount *decimal.Decimal, currency model.Currency) string {
	if amount == nil {
		return OnRequestStyle.Render("ON REQUEST")
	}
	return model.AmountPrice(*amount).Format(currency)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
