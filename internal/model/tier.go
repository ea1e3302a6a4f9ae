// Package model defines the pricing matrix and package records shared across the application.
package model

import "fmt"

// GroupSizeTier is a named range of group sizes sharing one pricing column.
type GroupSizeTier struct {
	Label string `json:"label" yaml:"label"`
	// MinPeople is zero when the label did not encode a range.
	MinPeople int `json:"min_people,omitempty" yaml:"min_people,omitempty"`
	// MaxPeople is zero for an unbounded ("N+") tier.
	MaxPeople int `json:"max_people,omitempty" yaml:"max_people,omitempty"`
}

// HasRange reports whether the tier carries a usable people range.
func (t GroupSizeTier) HasRange() bool {
	return t.MinPeople >= 1 && (t.MaxPeople == 0 || t.MaxPeople >= t.MinPeople)
}

// Unbounded reports whether the tier has no upper limit.
func (t GroupSizeTier) Unbounded() bool {
	return t.HasRange() && t.MaxPeople == 0
}

// Contains reports whether people falls inside the tier, inclusive on both ends.
// A tier without a range never matches.
func (t GroupSizeTier) Contains(people int) bool {
	if !t.HasRange() || people < t.MinPeople {
		return false
	}
	return t.MaxPeople == 0 || people <= t.MaxPeople
}

// overlaps reports whether two ranged tiers share at least one group size.
func (t GroupSizeTier) overlaps(other GroupSizeTier) bool {
	if !t.HasRange() || !other.HasRange() {
		return false
	}
	return t.Contains(other.MinPeople) || other.Contains(t.MinPeople)
}

// RangeString renders the numeric range, e.g. "6-11" or "12+".
func (t GroupSizeTier) RangeString() string {
	switch {
	case !t.HasRange():
		return "?"
	case t.Unbounded():
		return fmt.Sprintf("%d+", t.MinPeople)
	default:
		return fmt.Sprintf("%d-%d", t.MinPeople, t.MaxPeople)
	}
}

// DurationOption is one bookable length of stay.
type DurationOption struct {
	Nights int `json:"nights" yaml:"nights"`
}
