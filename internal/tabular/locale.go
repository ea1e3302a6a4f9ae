// Package tabular converts between raw spreadsheet rows and package pricing matrices.
package tabular

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Locale holds the language and number conventions of a price sheet.
type Locale struct {
	// Months maps lower-cased month names and abbreviations to months.
	Months map[string]time.Month
	// MonthNames are the names written by the formatter, January first.
	MonthNames [12]string
	// DateLayouts are tried in order for year-specific dates; the first one is used when formatting.
	DateLayouts []string
	// RecurringDateLayouts are tried for dates without a year.
	RecurringDateLayouts []string
	// PeopleWords are the accepted unit words in tier labels, e.g. "People".
	PeopleWords        []string
	NightsWord         string
	OnRequestToken     string
	PeriodColumnLabel  string
	DecimalSeparator   string
	ThousandsSeparator string
}

var englishMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// DefaultLocale is English month names with DD/MM/YYYY dates.
var DefaultLocale = NewLocale(englishMonths)

// NewLocale builds a locale for the given month names with the default
// date, number and keyword conventions. Full names and their three-letter
// abbreviations are both accepted when parsing.
func NewLocale(monthNames [12]string) Locale {
	return Locale{
		Months:               monthIndex(monthNames),
		MonthNames:           monthNames,
		DateLayouts:          []string{"02/01/2006", "2/1/2006", "2/1/06"},
		RecurringDateLayouts: []string{"02/01", "2/1"},
		PeopleWords:          []string{"People", "Persons", "Pax", "Guests"},
		NightsWord:           "Nights",
		OnRequestToken:       "ON REQUEST",
		PeriodColumnLabel:    "Period",
		DecimalSeparator:     ".",
		ThousandsSeparator:   ",",
	}
}

// monthIndex maps full names and unambiguous three-letter abbreviations.
func monthIndex(names [12]string) map[string]time.Month {
	idx := make(map[string]time.Month, 24)
	abbrevs := make(map[string][]time.Month, 12)
	for i, name := range names {
		m := time.Month(i + 1)
		lower := strings.ToLower(strings.TrimSpace(name))
		idx[lower] = m
		if utf8.RuneCountInString(lower) > 3 {
			short := string([]rune(lower)[:3])
			abbrevs[short] = append(abbrevs[short], m)
		}
	}
	for short, months := range abbrevs {
		if _, taken := idx[short]; !taken && len(months) == 1 {
			idx[short] = months[0]
		}
	}
	return idx
}

// Validate reports configuration that would make parsing ambiguous.
func (l Locale) Validate() error {
	if len(l.Months) < 12 {
		return fmt.Errorf("%w: need 12 month names, got %d", ErrInvalidLocale, len(l.Months))
	}
	for i, name := range l.MonthNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: month name %d is empty", ErrInvalidLocale, i+1)
		}
	}
	if len(l.DateLayouts) == 0 {
		return fmt.Errorf("%w: at least one date layout is required", ErrInvalidLocale)
	}
	for _, layout := range append(append([]string{}, l.DateLayouts...), l.RecurringDateLayouts...) {
		if strings.ContainsAny(layout, "-–") {
			return fmt.Errorf("%w: date layout %q must not contain a dash", ErrInvalidLocale, layout)
		}
	}
	if len(l.PeopleWords) == 0 || l.NightsWord == "" || l.OnRequestToken == "" {
		return fmt.Errorf("%w: people words, nights word and on-request token are required", ErrInvalidLocale)
	}
	if l.DecimalSeparator == "" || l.DecimalSeparator == l.ThousandsSeparator {
		return fmt.Errorf("%w: decimal separator %q must be set and differ from thousands separator", ErrInvalidLocale, l.DecimalSeparator)
	}
	return nil
}

func (l Locale) monthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return l.MonthNames[m-1]
}

func (l Locale) lookupMonth(s string) (time.Month, bool) {
	key := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	m, ok := l.Months[key]
	return m, ok
}

// singularNights is the unit used for a one-night column.
func (l Locale) singularNights() string {
	if strings.HasSuffix(strings.ToLower(l.NightsWord), "s") {
		return l.NightsWord[:len(l.NightsWord)-1]
	}
	return l.NightsWord
}
