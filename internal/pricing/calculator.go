// Package pricing resolves a booking request against a package's pricing matrix.
package pricing

import (
	"fmt"
	"time"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/shopspring/decimal"
)

// Result is a resolved price. When WasOnRequest is set the price fields are
// zero and the quote has to be priced by hand.
type Result struct {
	Arrival        time.Time
	PricePerPerson decimal.Decimal
	TotalPrice     decimal.Decimal
	Period         model.PricingPeriod
	Tier           model.GroupSizeTier
	TierIndex      int
	People         int
	Nights         int
	WasOnRequest   bool
}

// Calculate resolves the tier, duration, period and cell for a booking and
// computes the total as the per-person price times the group size. Each
// failed step returns its own error type.
func Calculate(m *model.Matrix, people, nights int, arrival time.Time) (*Result, error) {
	if err := validateRequest(m, people, nights, arrival); err != nil {
		return nil, err
	}

	tierIdx, err := resolveTier(m, people)
	if err != nil {
		return nil, err
	}

	if !m.HasDuration(nights) {
		return nil, &InvalidDurationError{Nights: nights, Available: m.Nights()}
	}

	period, err := resolvePeriod(m, arrival)
	if err != nil {
		return nil, err
	}

	tier := m.Tiers[tierIdx]
	price, ok := m.Lookup(tierIdx, nights, period.Key())
	if !ok {
		return nil, &PriceNotDefinedError{Tier: tier.Label, Nights: nights, Period: period.Name()}
	}

	result := &Result{
		Tier:      tier,
		TierIndex: tierIdx,
		Period:    period,
		People:    people,
		Nights:    nights,
		Arrival:   arrival,
	}
	if price.IsOnRequest() {
		result.WasOnRequest = true
		return result, nil
	}
	result.PricePerPerson = price.Amount
	result.TotalPrice = price.Amount.Mul(decimal.NewFromInt(int64(people)))
	return result, nil
}

func validateRequest(m *model.Matrix, people, nights int, arrival time.Time) error {
	switch {
	case m == nil:
		return fmt.Errorf("%w: no pricing matrix", ErrInvalidRequest)
	case people < 1:
		return fmt.Errorf("%w: number of people must be at least 1, got %d", ErrInvalidRequest, people)
	case nights < 1:
		return fmt.Errorf("%w: number of nights must be at least 1, got %d", ErrInvalidRequest, nights)
	case arrival.IsZero():
		return fmt.Errorf("%w: arrival date is required", ErrInvalidRequest)
	}
	return nil
}

// resolveTier returns the first tier containing people. Tiers without a
// people range only matter when nothing else matched.
func resolveTier(m *model.Matrix, people int) (int, error) {
	var labels, defective []string
	for i, tier := range m.Tiers {
		if tier.Contains(people) {
			return i, nil
		}
		labels = append(labels, fmt.Sprintf("%s (%s)", tier.Label, tier.RangeString()))
		if !tier.HasRange() {
			defective = append(defective, tier.Label)
		}
	}
	if len(defective) > 0 {
		return -1, &TierConfigurationError{People: people, Defective: defective}
	}
	return -1, &NoMatchingTierError{People: people, Tiers: labels}
}

// resolvePeriod prefers dated ranges, in list order, over the arrival month.
func resolvePeriod(m *model.Matrix, arrival time.Time) (model.PricingPeriod, error) {
	for _, period := range m.SpecialPeriods() {
		if period.Covers(arrival) {
			return period, nil
		}
	}
	if period, ok := m.MonthPeriodFor(arrival.Month()); ok {
		return period, nil
	}
	return model.PricingPeriod{}, &NoMatchingPeriodError{Arrival: arrival}
}
