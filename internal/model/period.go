package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodKind distinguishes calendar-month periods from dated special ranges.
type PeriodKind string

const (
	// PeriodMonth applies to one calendar month of every year.
	PeriodMonth PeriodKind = "month"
	// PeriodDatedRange applies to a literal inclusive date range and overrides months.
	PeriodDatedRange PeriodKind = "dated-range"
)

// CalendarDate is a day without a time of day. A zero Year means the date
// recurs every year.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a dated (year-specific) calendar date.
func NewDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// RecurringDate builds a calendar date that applies to every year.
func RecurringDate(month time.Month, day int) CalendarDate {
	return CalendarDate{Month: month, Day: day}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d.Month == 0 && d.Day == 0 && d.Year == 0
}

// Recurring reports whether the date has no year component.
func (d CalendarDate) Recurring() bool {
	return d.Year == 0
}

// Valid reports whether the day exists. Recurring dates accept 29 February.
func (d CalendarDate) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	year := d.Year
	if year == 0 {
		year = 2000 // leap year
	}
	t := time.Date(year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return t.Month() == d.Month && t.Day() == d.Day
}

// In re-anchors the date to the given year.
func (d CalendarDate) In(year int) CalendarDate {
	return CalendarDate{Year: year, Month: d.Month, Day: d.Day}
}

// Before reports whether d is strictly earlier than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	return d.ordinal() < other.ordinal()
}

func (d CalendarDate) ordinal() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

// String renders the date as YYYY-MM-DD, or --MM-DD when recurring.
func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	if d.Recurring() {
		return fmt.Sprintf("--%02d-%02d", int(d.Month), d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseCalendarDate parses the String form back into a date.
func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CalendarDate{}, nil
	}
	var year int
	rest := s
	if strings.HasPrefix(s, "--") {
		rest = s[2:]
	} else {
		parts := strings.SplitN(s, "-", 2)
		if len(parts) != 2 {
			return CalendarDate{}, fmt.Errorf("invalid date %q", s)
		}
		y, err := strconv.Atoi(parts[0])
		if err != nil {
			return CalendarDate{}, fmt.Errorf("invalid year in %q: %w", s, err)
		}
		year = y
		rest = parts[1]
	}
	parts := strings.Split(rest, "-")
	if len(parts) != 2 {
		return CalendarDate{}, fmt.Errorf("invalid date %q", s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid day in %q: %w", s, err)
	}
	d := CalendarDate{Year: year, Month: time.Month(month), Day: day}
	if !d.Valid() {
		return CalendarDate{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *CalendarDate) UnmarshalText(text []byte) error {
	parsed, err := ParseCalendarDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PricingPeriod is either a calendar month or a dated special range.
type PricingPeriod struct {
	Kind  PeriodKind   `json:"kind"`
	Month time.Month   `json:"month,omitempty"`
	Label string       `json:"label,omitempty"`
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

// MonthPeriod builds the calendar-month period for m.
func MonthPeriod(m time.Month) PricingPeriod {
	return PricingPeriod{Kind: PeriodMonth, Month: m}
}

// SpecialPeriod builds a dated range period.
func SpecialPeriod(label string, start, end CalendarDate) PricingPeriod {
	return PricingPeriod{Kind: PeriodDatedRange, Label: label, Start: start, End: end}
}

// IsSpecial reports whether the period is a dated range.
func (p PricingPeriod) IsSpecial() bool {
	return p.Kind == PeriodDatedRange
}

// Key identifies the period inside a matrix. Two periods with equal keys are duplicates.
func (p PricingPeriod) Key() string {
	if p.IsSpecial() {
		return fmt.Sprintf("range:%s:%s..%s", p.Label, p.Start, p.End)
	}
	return fmt.Sprintf("month:%02d", int(p.Month))
}

// Name is the human-readable period name.
func (p PricingPeriod) Name() string {
	if p.IsSpecial() {
		return p.Label
	}
	return p.Month.String()
}

// Recurring reports whether a special period applies to every year.
func (p PricingPeriod) Recurring() bool {
	return p.IsSpecial() && (p.Start.Recurring() || p.End.Recurring())
}

// Covers reports whether the period applies to the calendar day of date.
// Recurring ranges are re-anchored to date's year and may wrap over New Year.
func (p PricingPeriod) Covers(date time.Time) bool {
	day := DateOf(date)
	switch p.Kind {
	case PeriodMonth:
		return day.Month == p.Month
	case PeriodDatedRange:
		if !p.Recurring() {
			return !day.Before(p.Start) && !p.End.Before(day)
		}
		start, end := p.Start.In(day.Year), p.End.In(day.Year)
		if !end.Before(start) {
			return !day.Before(start) && !end.Before(day)
		}
		return !day.Before(start) || !end.Before(day)
	default:
		return false
	}
}

func (p PricingPeriod) String() string {
	if p.IsSpecial() {
		return fmt.Sprintf("%s (%s to %s)", p.Label, p.Start, p.End)
	}
	return p.Month.String()
}
