// Package quote keeps booking quotes in step with package prices while
// letting an operator override the offered amount.
package quote

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/Veraticus/tariff/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when overriding with a negative price.
var ErrNegativeAmount = errors.New("quote amount cannot be negative")

// State is how the displayed price relates to the calculated one.
type State string

const (
	// StateSynced means the displayed price is the calculated total.
	StateSynced State = "synced"
	// StateCustom means an operator replaced the calculated total.
	StateCustom State = "custom"
	// StateManual means the cell is on request and no price was entered yet.
	StateManual State = "manual"
)

// Quote is a priced booking request for one package.
type Quote struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Arrival    time.Time
	Calculated *decimal.Decimal
	Displayed  *decimal.Decimal
	ID         string
	PackageID  string
	Tier       string
	Period     string
	People     int
	Nights     int
	OnRequest  bool
}

// New prices a booking and returns a synced quote, or a manual one when the
// matrix marks the cell on request.
func New(packageID string, m *model.Matrix, people, nights int, arrival time.Time) (*Quote, error) {
	result, err := pricing.Calculate(m, people, nights, arrival)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	q := &Quote{
		ID:        uuid.New().String(),
		PackageID: packageID,
		CreatedAt: now,
	}
	q.apply(result, now)
	q.Displayed = cloneAmount(q.Calculated)
	return q, nil
}

// State derives the reconciliation state from the two prices.
func (q *Quote) State() State {
	switch {
	case q.Displayed == nil:
		return StateManual
	case q.Calculated != nil && q.Displayed.Equal(*q.Calculated):
		return StateSynced
	default:
		return StateCustom
	}
}

// Override sets the displayed price. Setting it to the calculated total
// makes the quote synced again.
func (q *Quote) Override(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	q.Displayed = &amount
	q.UpdatedAt = time.Now()
	return nil
}

// Resync discards an override and displays the calculated total.
func (q *Quote) Resync() {
	q.Displayed = cloneAmount(q.Calculated)
	q.UpdatedAt = time.Now()
}

// Offer is the outcome of repricing a quote.
type Offer struct {
	// Calculated is the fresh total, nil when the cell is on request.
	Calculated *decimal.Decimal
	Previous   State
	// Applied is set when the displayed price followed the fresh total.
	Applied bool
}

// Reprice recalculates the quote for new booking parameters. Synced and
// manual quotes take the fresh total; custom quotes keep their displayed
// price and the fresh total is only offered. On error the quote is unchanged.
func (q *Quote) Reprice(m *model.Matrix, people, nights int, arrival time.Time) (Offer, error) {
	result, err := pricing.Calculate(m, people, nights, arrival)
	if err != nil {
		return Offer{}, err
	}

	previous := q.State()
	q.apply(result, time.Now())
	offer := Offer{Previous: previous, Calculated: cloneAmount(q.Calculated)}
	if previous != StateCustom {
		q.Displayed = cloneAmount(q.Calculated)
		offer.Applied = true
	}
	return offer, nil
}

func (q *Quote) apply(result *pricing.Result, now time.Time) {
	q.People = result.People
	q.Nights = result.Nights
	q.Arrival = result.Arrival
	q.Tier = result.Tier.Label
	q.Period = result.Period.Name()
	q.OnRequest = result.WasOnRequest
	q.UpdatedAt = now
	if result.WasOnRequest {
		q.Calculated = nil
		return
	}
	total := result.TotalPrice
	q.Calculated = &total
}

func cloneAmount(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
