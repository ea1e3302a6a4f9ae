package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceKind distinguishes numeric prices from cells left for manual quotation.
type PriceKind string

const (
	// PriceAmount is a numeric per-person price.
	PriceAmount PriceKind = "amount"
	// PriceOnRequest marks a cell that must be quoted by hand.
	PriceOnRequest PriceKind = "on-request"
)

// Price is the value of one matrix cell. A missing cell is represented by
// absence from the matrix, never by a zero Price.
type Price struct {
	Kind   PriceKind       `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// AmountPrice builds a numeric price.
func AmountPrice(amount decimal.Decimal) Price {
	return Price{Kind: PriceAmount, Amount: amount}
}

// OnRequestPrice builds an on-request price.
func OnRequestPrice() Price {
	return Price{Kind: PriceOnRequest}
}

// IsOnRequest reports whether the cell must be quoted manually.
func (p Price) IsOnRequest() bool {
	return p.Kind == PriceOnRequest
}

// Equal compares two prices numerically, so 150 and 150.00 are equal.
func (p Price) Equal(other Price) bool {
	if p.Kind != other.Kind {
		return false
	}
	if p.IsOnRequest() {
		return true
	}
	return p.Amount.Equal(other.Amount)
}

func (p Price) String() string {
	if p.IsOnRequest() {
		return "ON REQUEST"
	}
	return p.Amount.String()
}

// Format renders the price with a currency symbol and two decimals.
func (p Price) Format(c Currency) string {
	if p.IsOnRequest() {
		return "ON REQUEST"
	}
	return fmt.Sprintf("%s%s", c.Symbol(), p.Amount.StringFixed(2))
}
