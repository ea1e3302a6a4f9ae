package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors returned by Matrix.Validate.
var (
	ErrInvalidTier       = errors.New("invalid group size tier")
	ErrDuplicateTier     = errors.New("duplicate tier label")
	ErrTierOrder         = errors.New("tiers not ordered by minimum people")
	ErrTierOverlap       = errors.New("tier ranges overlap")
	ErrInvalidNights     = errors.New("invalid number of nights")
	ErrDuplicateDuration = errors.New("duplicate duration")
	ErrInvalidPeriod     = errors.New("invalid pricing period")
	ErrDuplicatePeriod   = errors.New("duplicate pricing period")
	ErrOrphanCell        = errors.New("price cell references unknown tier, duration or period")
	ErrNegativePrice     = errors.New("negative price")
)

// CellKey addresses one price cell by tier index, nights and period key.
type CellKey struct {
	Tier   int
	Nights int
	Period string
}

func (k CellKey) less(other CellKey) bool {
	if k.Tier != other.Tier {
		return k.Tier < other.Tier
	}
	if k.Nights != other.Nights {
		return k.Nights < other.Nights
	}
	return k.Period < other.Period
}

// Matrix is the pricing grid of one package: tiers × durations × periods.
// Cells not present in the map have no price defined.
type Matrix struct {
	Tiers     []GroupSizeTier
	Durations []DurationOption
	Periods   []PricingPeriod
	Cells     map[CellKey]Price
}

// NewMatrix returns an empty matrix ready for building.
func NewMatrix() *Matrix {
	return &Matrix{Cells: make(map[CellKey]Price)}
}

// AddTier appends a tier and returns its index. A tier whose label already
// exists is not added again; the existing index is returned.
func (m *Matrix) AddTier(t GroupSizeTier) int {
	if i := m.TierIndex(t.Label); i >= 0 {
		return i
	}
	m.Tiers = append(m.Tiers, t)
	return len(m.Tiers) - 1
}

// TierIndex returns the index of the tier with the given label, or -1.
func (m *Matrix) TierIndex(label string) int {
	for i, t := range m.Tiers {
		if t.Label == label {
			return i
		}
	}
	return -1
}

// AddDuration registers a night count if it is not already present.
func (m *Matrix) AddDuration(nights int) {
	if m.HasDuration(nights) {
		return
	}
	m.Durations = append(m.Durations, DurationOption{Nights: nights})
}

// HasDuration reports whether nights is one of the bookable durations.
func (m *Matrix) HasDuration(nights int) bool {
	for _, d := range m.Durations {
		if d.Nights == nights {
			return true
		}
	}
	return false
}

// Nights lists the bookable night counts in matrix order.
func (m *Matrix) Nights() []int {
	out := make([]int, len(m.Durations))
	for i, d := range m.Durations {
		out[i] = d.Nights
	}
	return out
}

// AddPeriod appends a period. It returns false, leaving the matrix
// unchanged, when a period with the same key already exists.
func (m *Matrix) AddPeriod(p PricingPeriod) bool {
	if _, ok := m.PeriodByKey(p.Key()); ok {
		return false
	}
	m.Periods = append(m.Periods, p)
	return true
}

// PeriodByKey finds a period by its key.
func (m *Matrix) PeriodByKey(key string) (PricingPeriod, bool) {
	for _, p := range m.Periods {
		if p.Key() == key {
			return p, true
		}
	}
	return PricingPeriod{}, false
}

// MonthPeriodFor returns the calendar-month period for month, if defined.
func (m *Matrix) MonthPeriodFor(month time.Month) (PricingPeriod, bool) {
	return m.PeriodByKey(MonthPeriod(month).Key())
}

// SpecialPeriods returns the dated-range periods in list order.
func (m *Matrix) SpecialPeriods() []PricingPeriod {
	var out []PricingPeriod
	for _, p := range m.Periods {
		if p.IsSpecial() {
			out = append(out, p)
		}
	}
	return out
}

// SetPrice stores the price for a cell, replacing any previous value.
func (m *Matrix) SetPrice(tier, nights int, periodKey string, price Price) {
	if m.Cells == nil {
		m.Cells = make(map[CellKey]Price)
	}
	m.Cells[CellKey{Tier: tier, Nights: nights, Period: periodKey}] = price
}

// Lookup returns the cell value and whether the cell is defined.
func (m *Matrix) Lookup(tier, nights int, periodKey string) (Price, bool) {
	p, ok := m.Cells[CellKey{Tier: tier, Nights: nights, Period: periodKey}]
	return p, ok
}

// CellCount returns the number of defined cells.
func (m *Matrix) CellCount() int {
	return len(m.Cells)
}

// SortedKeys returns the defined cell keys in canonical order.
func (m *Matrix) SortedKeys() []CellKey {
	keys := make([]CellKey, 0, len(m.Cells))
	for k := range m.Cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// Validate checks structural integrity: tier ranges, unique axes, dated
// range order and cells that point at existing axes. It does not enforce
// business rules such as completeness of the grid.
func (m *Matrix) Validate() error {
	if err := m.validateTiers(); err != nil {
		return err
	}
	seenNights := make(map[int]bool, len(m.Durations))
	for _, d := range m.Durations {
		if d.Nights < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidNights, d.Nights)
		}
		if seenNights[d.Nights] {
			return fmt.Errorf("%w: %d nights", ErrDuplicateDuration, d.Nights)
		}
		seenNights[d.Nights] = true
	}
	seenPeriods := make(map[string]bool, len(m.Periods))
	for _, p := range m.Periods {
		if err := validatePeriod(p); err != nil {
			return err
		}
		if seenPeriods[p.Key()] {
			return fmt.Errorf("%w: %s", ErrDuplicatePeriod, p)
		}
		seenPeriods[p.Key()] = true
	}
	for _, k := range m.SortedKeys() {
		if k.Tier < 0 || k.Tier >= len(m.Tiers) || !seenNights[k.Nights] || !seenPeriods[k.Period] {
			return fmt.Errorf("%w: tier %d, %d nights, %s", ErrOrphanCell, k.Tier, k.Nights, k.Period)
		}
		if price := m.Cells[k]; !price.IsOnRequest() && price.Amount.IsNegative() {
			return fmt.Errorf("%w: %s for tier %q, %d nights, %s",
				ErrNegativePrice, price.Amount, m.Tiers[k.Tier].Label, k.Nights, k.Period)
		}
	}
	return nil
}

func (m *Matrix) validateTiers() error {
	labels := make(map[string]bool, len(m.Tiers))
	var prev *GroupSizeTier
	for i := range m.Tiers {
		t := m.Tiers[i]
		if t.Label == "" {
			return fmt.Errorf("%w: tier %d has no label", ErrInvalidTier, i)
		}
		if labels[t.Label] {
			return fmt.Errorf("%w: %q", ErrDuplicateTier, t.Label)
		}
		labels[t.Label] = true
		if t.MinPeople < 0 || t.MaxPeople < 0 || (t.MinPeople >= 1 && !t.HasRange()) {
			return fmt.Errorf("%w: %q has range %d-%d", ErrInvalidTier, t.Label, t.MinPeople, t.MaxPeople)
		}
		// Tiers with unknown ranges are tolerated here and reported lazily by the calculator.
		if !t.HasRange() {
			continue
		}
		if prev != nil {
			if prev.overlaps(t) {
				return fmt.Errorf("%w: %q and %q", ErrTierOverlap, prev.Label, t.Label)
			}
			if t.MinPeople < prev.MinPeople {
				return fmt.Errorf("%w: %q before %q", ErrTierOrder, prev.Label, t.Label)
			}
		}
		prev = &m.Tiers[i]
	}
	return nil
}

func validatePeriod(p PricingPeriod) error {
	switch p.Kind {
	case PeriodMonth:
		if p.Month < time.January || p.Month > time.December {
			return fmt.Errorf("%w: month %d", ErrInvalidPeriod, int(p.Month))
		}
	case PeriodDatedRange:
		if p.Label == "" {
			return fmt.Errorf("%w: dated range without label", ErrInvalidPeriod)
		}
		if !p.Start.Valid() || !p.End.Valid() {
			return fmt.Errorf("%w: %s has an invalid date", ErrInvalidPeriod, p)
		}
		if p.Start.Recurring() != p.End.Recurring() {
			return fmt.Errorf("%w: %s mixes recurring and dated bounds", ErrInvalidPeriod, p)
		}
		// Recurring ranges may wrap over New Year, so only dated ranges are order-checked.
		if !p.Start.Recurring() && p.End.Before(p.Start) {
			return fmt.Errorf("%w: %s ends before it starts", ErrInvalidPeriod, p)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, p.Kind)
	}
	return nil
}

// Equal reports deep structural equality. Tier order and the order of dated
// ranges are significant; duration order, month order and cell insertion
// order are not. Amounts compare numerically.
func (m *Matrix) Equal(other *Matrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.Tiers) != len(other.Tiers) {
		return false
	}
	for i := range m.Tiers {
		if m.Tiers[i] != other.Tiers[i] {
			return false
		}
	}
	if !sameNights(m.Nights(), other.Nights()) {
		return false
	}
	if !samePeriods(m.Periods, other.Periods) {
		return false
	}
	if len(m.Cells) != len(other.Cells) {
		return false
	}
	for k, p := range m.Cells {
		q, ok := other.Cells[k]
		if !ok || !p.Equal(q) {
			return false
		}
	}
	return true
}

func sameNights(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]bool, len(a))
	for _, n := range a {
		seen[n] = true
	}
	for _, n := range b {
		if !seen[n] {
			return false
		}
	}
	return true
}

func samePeriods(a, b []PricingPeriod) bool {
	if len(a) != len(b) {
		return false
	}
	months := make(map[time.Month]bool)
	var aSpecial, bSpecial []PricingPeriod
	for _, p := range a {
		if p.IsSpecial() {
			aSpecial = append(aSpecial, p)
		} else {
			months[p.Month] = true
		}
	}
	for _, p := range b {
		if p.IsSpecial() {
			bSpecial = append(bSpecial, p)
		} else if !months[p.Month] {
			return false
		}
	}
	if len(aSpecial) != len(bSpecial) {
		return false
	}
	for i := range aSpecial {
		if aSpecial[i] != bSpecial[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	if m == nil {
		return nil
	}
	c := &Matrix{
		Tiers:     append([]GroupSizeTier(nil), m.Tiers...),
		Durations: append([]DurationOption(nil), m.Durations...),
		Periods:   append([]PricingPeriod(nil), m.Periods...),
		Cells:     make(map[CellKey]Price, len(m.Cells)),
	}
	for k, v := range m.Cells {
		c.Cells[k] = v
	}
	return c
}

type matrixJSON struct {
	Tiers     []GroupSizeTier `json:"tiers"`
	Durations []int           `json:"durations"`
	Periods   []PricingPeriod `json:"periods"`
	Cells     []cellJSON      `json:"cells"`
}

type cellJSON struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Period    string           `json:"period"`
	Tier      int              `json:"tier"`
	Nights    int              `json:"nights"`
	OnRequest bool             `json:"on_request,omitempty"`
}

// MarshalJSON emits the canonical form with cells as a sorted list.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	doc := matrixJSON{
		Tiers:     append([]GroupSizeTier{}, m.Tiers...),
		Durations: m.Nights(),
		Periods:   append([]PricingPeriod{}, m.Periods...),
		Cells:     make([]cellJSON, 0, len(m.Cells)),
	}
	for _, k := range m.SortedKeys() {
		price := m.Cells[k]
		cell := cellJSON{Tier: k.Tier, Nights: k.Nights, Period: k.Period}
		if price.IsOnRequest() {
			cell.OnRequest = true
		} else {
			amount := price.Amount
			cell.Amount = &amount
		}
		doc.Cells = append(doc.Cells, cell)
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads the canonical form.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var doc matrixJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode pricing matrix: %w", err)
	}
	out := NewMatrix()
	out.Tiers = doc.Tiers
	for _, n := range doc.Durations {
		out.Durations = append(out.Durations, DurationOption{Nights: n})
	}
	out.Periods = doc.Periods
	for _, c := range doc.Cells {
		switch {
		case c.OnRequest:
			out.SetPrice(c.Tier, c.Nights, c.Period, OnRequestPrice())
		case c.Amount != nil:
			out.SetPrice(c.Tier, c.Nights, c.Period, AmountPrice(*c.Amount))
		default:
			return fmt.Errorf("cell tier %d, %d nights, %s has neither amount nor on_request", c.Tier, c.Nights, c.Period)
		}
	}
	*m = *out
	return nil
}
