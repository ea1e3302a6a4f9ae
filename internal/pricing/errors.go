package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels for the calculation failures. Each typed error below unwraps to one of them.
var (
	ErrInvalidRequest    = errors.New("invalid pricing request")
	ErrNoMatchingTier    = errors.New("no matching group size tier")
	ErrTierConfiguration = errors.New("tier configuration defect")
	ErrInvalidDuration   = errors.New("duration not offered")
	ErrNoMatchingPeriod  = errors.New("no matching pricing period")
	ErrPriceNotDefined   = errors.New("price not defined")
)

// NoMatchingTierError means no tier covers the requested group size.
type NoMatchingTierError struct {
	Tiers  []string
	People int
}

func (e *NoMatchingTierError) Error() string {
	return fmt.Sprintf("%v: %d people (tiers: %s)", ErrNoMatchingTier, e.People, strings.Join(e.Tiers, ", "))
}

func (e *NoMatchingTierError) Unwrap() error { return ErrNoMatchingTier }

// TierConfigurationError means no well-formed tier matched and at least one
// tier has a label that never encoded a people range.
type TierConfigurationError struct {
	Defective []string
	People    int
}

func (e *TierConfigurationError) Error() string {
	return fmt.Sprintf("%v: cannot price %d people, tiers without a people range: %s",
		ErrTierConfiguration, e.People, strings.Join(e.Defective, ", "))
}

func (e *TierConfigurationError) Unwrap() error { return ErrTierConfiguration }

// InvalidDurationError means the night count is not one of the package's durations.
type InvalidDurationError struct {
	Available []int
	Nights    int
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("%v: %d nights (available: %s)", ErrInvalidDuration, e.Nights, joinInts(e.Available))
}

func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// NoMatchingPeriodError means neither a dated range nor the arrival month has a period.
type NoMatchingPeriodError struct {
	Arrival time.Time
}

func (e *NoMatchingPeriodError) Error() string {
	return fmt.Sprintf("%v: arrival %s", ErrNoMatchingPeriod, e.Arrival.Format("2006-01-02"))
}

func (e *NoMatchingPeriodError) Unwrap() error { return ErrNoMatchingPeriod }

// PriceNotDefinedError means the resolved cell is missing from the matrix.
type PriceNotDefinedError struct {
	Tier   string
	Period string
	Nights int
}

func (e *PriceNotDefinedError) Error() string {
	return fmt.Sprintf("%v: %s, %d nights, %s", ErrPriceNotDefined, e.Tier, e.Nights, e.Period)
}

func (e *PriceNotDefinedError) Unwrap() error { return ErrPriceNotDefined }

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

// Describe renders a calculation error as a plain-language prompt for the
// person requesting the quote. Errors that are not calculation errors are
// returned as their message.
func Describe(err error) string {
	var (
		tierErr     *NoMatchingTierError
		configErr   *TierConfigurationError
		durationErr *InvalidDurationError
		periodErr   *NoMatchingPeriodError
		priceErr    *PriceNotDefinedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &tierErr):
		return fmt.Sprintf("This package has no pricing for a group of %d. Available group sizes: %s.",
			tierErr.People, strings.Join(tierErr.Tiers, ", "))
	case errors.As(err, &configErr):
		return fmt.Sprintf("A group of %d cannot be priced because the tiers %s have no people range. Please contact the package owner.",
			configErr.People, strings.Join(configErr.Defective, ", "))
	case errors.As(err, &durationErr):
		return fmt.Sprintf("This package is not offered for %d nights. Choose one of: %s nights.",
			durationErr.Nights, joinInts(durationErr.Available))
	case errors.As(err, &periodErr):
		return fmt.Sprintf("This package has no pricing for arrivals in %s %d.",
			periodErr.Arrival.Month(), periodErr.Arrival.Year())
	case errors.As(err, &priceErr):
		return fmt.Sprintf("No pricing defined for %s, %d nights in %s. Please contact the package owner.",
			priceErr.Tier, priceErr.Nights, priceErr.Period)
	default:
		return err.Error()
	}
}
