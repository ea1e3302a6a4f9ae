package tabular

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/shopspring/decimal"
)

var (
	specialPeriodRe = regexp.MustCompile(`^(.*\S)\s*\((\S+)\s*[-–]\s*(\S+)\)$`)
	sectionRe       = regexp.MustCompile(`(?i)^(inclusions|accommodation(?:\s+examples)?|sales\s+notes)\s*:\s*(.*)$`)
	bulletRe        = regexp.MustCompile(`^(?:[-*•·–]|\d+[.)])\s+`)
	currencyRe      = regexp.MustCompile(`(?i)€|£|\$|EUR|GBP|USD|CHF`)
	numberRe        = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
)

const (
	sectionInclusions    = "inclusions"
	sectionAccommodation = "accommodation"
	sectionSalesNotes    = "sales notes"
)

var requiredFields = []string{"name", "destination", "resort", "currency"}

// Result is the best-effort outcome of a parse: whatever could be built plus
// every problem found on the way.
type Result struct {
	Matrix   *model.Matrix
	Errors   []*ImportError
	Metadata model.Metadata
}

// HasErrors reports whether any row-level problem was found.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// CellCount returns the number of price cells that were parsed.
func (r *Result) CellCount() int {
	if r.Matrix == nil {
		return 0
	}
	return r.Matrix.CellCount()
}

// Err joins all accumulated problems, or returns nil.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Parser reads price sheets written with a given Locale.
type Parser struct {
	columnRe   *regexp.Regexp
	tierRange  *regexp.Regexp
	tierOpen   *regexp.Regexp
	tierSingle *regexp.Regexp
	locale     Locale
}

var defaultParser = NewParser(DefaultLocale)

// NewParser creates a parser for the given locale.
func NewParser(locale Locale) *Parser {
	words := make([]string, len(locale.PeopleWords))
	for i, w := range locale.PeopleWords {
		words[i] = regexp.QuoteMeta(w)
	}
	people := strings.Join(words, "|")

	nights := regexp.QuoteMeta(locale.NightsWord)
	if singular := locale.singularNights(); singular != locale.NightsWord {
		nights = regexp.QuoteMeta(singular) + "|" + nights
	}

	return &Parser{
		locale:     locale,
		columnRe:   regexp.MustCompile(`(?i)^(.*\S)\s+[-–—]\s+(\d+)\s*(?:` + nights + `)$`),
		tierRange:  regexp.MustCompile(`(?i)(\d+)\s*(?:[-–—]|to)\s*(\d+)\s*(?:` + people + `)`),
		tierOpen:   regexp.MustCompile(`(?i)(\d+)\s*\+\s*(?:` + people + `)`),
		tierSingle: regexp.MustCompile(`(?i)(?:^|\D)(\d+)\s+(?:` + people + `)`),
	}
}

// Locale returns the conventions the parser was built with.
func (p *Parser) Locale() Locale {
	return p.locale
}

// Parse reads rows using DefaultLocale.
func Parse(rows [][]string) (*Result, error) {
	return defaultParser.Parse(rows)
}

// Parse converts raw rows into package metadata and a pricing matrix.
// Only input with no rows or no recognizable table header fails outright;
// every other problem is recorded in Result.Errors and the offending row,
// column or cell is left out of the matrix.
func (p *Parser) Parse(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	rows = normalizeRows(rows)

	headerIdx := p.findTableHeader(rows)
	if headerIdx < 0 {
		return nil, ErrNoTableHeader
	}

	st := &parseState{
		parser: p,
		result: &Result{Matrix: model.NewMatrix()},
	}
	st.parseHeaderBlock(rows[:headerIdx])
	columns := st.parseColumns(headerIdx+1, rows[headerIdx])
	st.checkTiers(headerIdx + 1)
	sectionsAt := st.parseTable(rows, headerIdx+1, columns)
	st.parseSections(rows[sectionsAt:])

	if st.result.Matrix.CellCount() == 0 {
		st.add(0, "", ErrNoPrices, "")
	}
	return st.result, nil
}

// findTableHeader returns the first row holding a column label. Header
// block rows are skipped, since a value such as a package name may itself
// read like a column label.
func (p *Parser) findTableHeader(rows [][]string) int {
	for i, row := range rows {
		if key, _, ok := splitKeyValue(row); ok {
			if _, known := metadataField(key); known {
				continue
			}
		}
		for j := 1; j < len(row); j++ {
			if p.columnRe.MatchString(row[j]) {
				return i
			}
		}
	}
	return -1
}

// normalizeRows trims every cell and drops trailing empty cells.
func normalizeRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		last := -1
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
			if cells[j] != "" {
				last = j
			}
		}
		out[i] = cells[:last+1]
	}
	return out
}

type column struct {
	label  string
	tier   int
	nights int
	ok     bool
}

type parseState struct {
	parser *Parser
	result *Result
}

func (st *parseState) add(row int, col string, kind error, detail string) {
	st.result.Errors = append(st.result.Errors, &ImportError{
		Row:    row,
		Column: col,
		Kind:   kind,
		Detail: detail,
	})
}

func (st *parseState) parseHeaderBlock(rows [][]string) {
	meta := &st.result.Metadata
	present := make(map[string]bool, len(requiredFields))

	for i, row := range rows {
		key, value, ok := splitKeyValue(row)
		if !ok {
			continue
		}
		field, known := metadataField(key)
		if !known {
			continue
		}
		switch field {
		case "name":
			meta.Name = value
		case "destination":
			meta.Destination = value
		case "resort":
			meta.Resort = value
		case "currency":
			if value == "" {
				continue
			}
			currency, err := model.ParseCurrency(value)
			if err != nil {
				st.add(i+1, "", ErrInvalidCurrency, value)
				present[field] = true
				continue
			}
			meta.Currency = currency
		}
		if value != "" {
			present[field] = true
		}
	}

	for _, field := range requiredFields {
		if !present[field] {
			st.add(0, "", ErrMissingField, field)
		}
	}
}

// metadataField maps a header block key to its field name.
func metadataField(key string) (string, bool) {
	switch field := strings.ToLower(strings.Join(strings.Fields(key), " ")); field {
	case "name", "package", "package name":
		return "name", true
	case "destination", "resort", "currency":
		return field, true
	default:
		return "", false
	}
}

// splitKeyValue accepts "Key: Value" in one cell, or the key in the first
// cell (with or without a colon) and the value in the second.
func splitKeyValue(row []string) (string, string, bool) {
	if len(row) == 0 || row[0] == "" {
		return "", "", false
	}
	if idx := strings.Index(row[0], ":"); idx >= 0 {
		key := strings.TrimSpace(row[0][:idx])
		value := strings.TrimSpace(row[0][idx+1:])
		if value == "" && len(row) > 1 {
			value = row[1]
		}
		return key, value, true
	}
	if len(row) > 1 && row[1] != "" {
		return row[0], row[1], true
	}
	return "", "", false
}

func (st *parseState) parseColumns(rowNum int, header []string) []column {
	columns := make([]column, len(header))
	seen := make(map[string]bool)
	m := st.result.Matrix

	for j := 1; j < len(header); j++ {
		label := header[j]
		if label == "" {
			continue
		}
		columns[j].label = label

		match := st.parser.columnRe.FindStringSubmatch(label)
		if match == nil {
			st.add(rowNum, label, ErrInvalidColumn, "")
			continue
		}
		nights, err := strconv.Atoi(match[2])
		if err != nil || nights < 1 {
			st.add(rowNum, label, ErrInvalidColumn, "nights must be at least 1")
			continue
		}
		tierLabel := strings.TrimSpace(match[1])
		key := fmt.Sprintf("%s|%d", strings.ToLower(tierLabel), nights)
		if seen[key] {
			st.add(rowNum, label, ErrDuplicateColumn, "")
			continue
		}
		seen[key] = true

		columns[j].tier = m.AddTier(st.parser.parseTier(tierLabel))
		columns[j].nights = nights
		columns[j].ok = true
		m.AddDuration(nights)
	}
	return columns
}

// parseTier derives the people range from a tier label. Labels that do not
// encode a range produce a tier with an unknown range.
func (p *Parser) parseTier(label string) model.GroupSizeTier {
	tier := model.GroupSizeTier{Label: label}
	if match := p.tierRange.FindStringSubmatch(label); match != nil {
		lo, errLo := strconv.Atoi(match[1])
		hi, errHi := strconv.Atoi(match[2])
		if errLo == nil && errHi == nil && lo >= 1 && hi >= lo {
			tier.MinPeople, tier.MaxPeople = lo, hi
		}
		return tier
	}
	if match := p.tierOpen.FindStringSubmatch(label); match != nil {
		if lo, err := strconv.Atoi(match[1]); err == nil && lo >= 1 {
			tier.MinPeople = lo
		}
		return tier
	}
	if match := p.tierSingle.FindStringSubmatch(label); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n >= 1 {
			tier.MinPeople, tier.MaxPeople = n, n
		}
	}
	return tier
}

func (st *parseState) checkTiers(rowNum int) {
	var ranged []model.GroupSizeTier
	for _, tier := range st.result.Matrix.Tiers {
		if !tier.HasRange() {
			continue
		}
		for _, prev := range ranged {
			if prev.Contains(tier.MinPeople) || tier.Contains(prev.MinPeople) {
				st.add(rowNum, "", ErrTierOverlap, fmt.Sprintf("%q and %q", prev.Label, tier.Label))
			}
		}
		if n := len(ranged); n > 0 && tier.MinPeople < ranged[n-1].MinPeople {
			st.add(rowNum, "", ErrTierOrder, fmt.Sprintf("%q after %q", tier.Label, ranged[n-1].Label))
		}
		ranged = append(ranged, tier)
	}
}

// parseTable reads period rows starting at start and returns the index of
// the first trailing section row, or len(rows).
func (st *parseState) parseTable(rows [][]string, start int, columns []column) int {
	m := st.result.Matrix
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		if sectionRe.MatchString(row[0]) {
			return i
		}
		rowNum := i + 1

		period, ok := st.parsePeriod(rowNum, row[0])
		if !ok {
			continue
		}
		if !m.AddPeriod(period) {
			st.add(rowNum, "", ErrDuplicatePeriod, row[0])
			continue
		}

		for j := 1; j < len(row); j++ {
			cell := row[j]
			if j >= len(columns) || columns[j].label == "" {
				if cell != "" {
					st.add(rowNum, "", ErrUnexpectedData, fmt.Sprintf("column %d: %q", j+1, cell))
				}
				continue
			}
			col := columns[j]
			if !col.ok {
				continue
			}
			price, defined, err := st.parser.parsePrice(cell)
			if err != nil {
				var kind error = ErrInvalidPrice
				if errors.Is(err, ErrNegativePrice) {
					kind = ErrNegativePrice
				}
				st.add(rowNum, col.label, kind, fmt.Sprintf("%q", cell))
				continue
			}
			if defined {
				m.SetPrice(col.tier, col.nights, period.Key(), price)
			}
		}
	}
	return len(rows)
}

func (st *parseState) parsePeriod(rowNum int, label string) (model.PricingPeriod, bool) {
	if label == "" {
		st.add(rowNum, "", ErrUnrecognizedPeriod, "empty period label")
		return model.PricingPeriod{}, false
	}
	if month, ok := st.parser.locale.lookupMonth(label); ok {
		return model.MonthPeriod(month), true
	}

	match := specialPeriodRe.FindStringSubmatch(label)
	if match == nil {
		st.add(rowNum, "", ErrUnrecognizedPeriod, fmt.Sprintf("%q", label))
		return model.PricingPeriod{}, false
	}
	name := strings.TrimSpace(match[1])
	start, err := st.parser.parseDate(match[2])
	if err != nil {
		st.add(rowNum, "", ErrInvalidDate, fmt.Sprintf("%q: %v", label, err))
		return model.PricingPeriod{}, false
	}
	end, err := st.parser.parseDate(match[3])
	if err != nil {
		st.add(rowNum, "", ErrInvalidDate, fmt.Sprintf("%q: %v", label, err))
		return model.PricingPeriod{}, false
	}
	if start.Recurring() != end.Recurring() {
		st.add(rowNum, "", ErrInvalidDate, fmt.Sprintf("%q mixes dates with and without a year", label))
		return model.PricingPeriod{}, false
	}
	// A recurring range whose end precedes its start wraps over New Year.
	if !start.Recurring() && end.Before(start) {
		st.add(rowNum, "", ErrDateOrder, fmt.Sprintf("%q", label))
		return model.PricingPeriod{}, false
	}
	return model.SpecialPeriod(name, start, end), true
}

func (p *Parser) parseDate(s string) (model.CalendarDate, error) {
	for _, layout := range p.locale.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	for _, layout := range p.locale.RecurringDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.RecurringDate(t.Month(), t.Day()), nil
		}
	}
	return model.CalendarDate{}, fmt.Errorf("unrecognized date %q", s)
}

// parsePrice returns defined == false for an empty cell.
func (p *Parser) parsePrice(cell string) (model.Price, bool, error) {
	if cell == "" {
		return model.Price{}, false, nil
	}
	if strings.EqualFold(strings.Join(strings.Fields(cell), " "), p.locale.OnRequestToken) {
		return model.OnRequestPrice(), true, nil
	}

	s := currencyRe.ReplaceAllString(cell, "")
	s, ok := p.canonicalNumber(strings.Join(strings.Fields(s), ""))
	if !ok || !numberRe.MatchString(s) {
		return model.Price{}, false, ErrInvalidPrice
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return model.Price{}, false, fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	}
	if amount.IsNegative() {
		return model.Price{}, false, ErrNegativePrice
	}
	return model.AmountPrice(amount), true, nil
}

// canonicalNumber rewrites s with a "." decimal point and no grouping.
// Thousands separators are only accepted between groups of three digits in
// the integer part, so a decimal comma in a sheet read with a "," grouping
// locale is rejected instead of shifting the price by a factor of ten.
func (p *Parser) canonicalNumber(s string) (string, bool) {
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	dec := p.locale.DecimalSeparator
	if dec == "" {
		dec = "."
	}
	whole, frac, hasFrac := strings.Cut(s, dec)

	if sep := p.locale.ThousandsSeparator; sep != "" {
		if strings.Contains(frac, sep) {
			return "", false
		}
		if strings.Contains(whole, sep) {
			groups := strings.Split(whole, sep)
			if len(groups[0]) == 0 || len(groups[0]) > 3 {
				return "", false
			}
			for _, g := range groups[1:] {
				if len(g) != 3 {
					return "", false
				}
			}
			whole = strings.Join(groups, "")
		}
	}

	if !hasFrac {
		return sign + whole, true
	}
	return sign + whole + "." + frac, true
}

// parseSections reads the trailing Inclusions, Accommodation and Sales
// Notes sections.
func (st *parseState) parseSections(rows [][]string) {
	meta := &st.result.Metadata
	section := ""
	var notes []string

	for _, row := range rows {
		if len(row) > 0 {
			if match := sectionRe.FindStringSubmatch(row[0]); match != nil {
				section = sectionName(match[1])
				rest := joinCells(append([]string{match[2]}, row[1:]...))
				if rest != "" {
					notes = appendSectionLine(meta, section, notes, rest)
				}
				continue
			}
		}
		notes = appendSectionLine(meta, section, notes, joinCells(row))
	}

	meta.SalesNotes = strings.Join(trimBlankLines(notes), "\n")
}

func appendSectionLine(meta *model.Metadata, section string, notes []string, line string) []string {
	switch section {
	case sectionSalesNotes:
		return append(notes, line)
	case sectionInclusions:
		if item := stripBullet(line); item != "" {
			meta.Inclusions = append(meta.Inclusions, item)
		}
	case sectionAccommodation:
		if item := stripBullet(line); item != "" {
			meta.AccommodationExamples = append(meta.AccommodationExamples, item)
		}
	}
	return notes
}

func sectionName(header string) string {
	lower := strings.ToLower(strings.Join(strings.Fields(header), " "))
	switch {
	case strings.HasPrefix(lower, "accommodation"):
		return sectionAccommodation
	case lower == sectionSalesNotes:
		return sectionSalesNotes
	default:
		return sectionInclusions
	}
}

func stripBullet(line string) string {
	return strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(line), ""))
}

func joinCells(cells []string) string {
	var parts []string
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
