package tabular

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal parse errors.
var (
	ErrEmptyInput    = errors.New("input has no rows")
	ErrNoTableHeader = errors.New("no pricing table header found")
	ErrInvalidLocale = errors.New("invalid locale")
	// ErrTierLabel is returned by Format for a tier whose label does not
	// encode its people range.
	ErrTierLabel = errors.New("tier label does not encode its people range")
)

// Row-level problems accumulated in Result.Errors.
var (
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidColumn      = errors.New("column label is not \"<tier> - <n> Nights\"")
	ErrDuplicateColumn    = errors.New("duplicate column")
	ErrUnrecognizedPeriod = errors.New("unrecognized period")
	ErrInvalidDate        = errors.New("invalid date range")
	ErrDateOrder          = errors.New("date range ends before it starts")
	ErrDuplicatePeriod    = errors.New("duplicate period")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrNegativePrice      = errors.New("negative price")
	ErrUnexpectedData     = errors.New("data outside the pricing table columns")
	ErrTierOverlap        = errors.New("tier ranges overlap")
	ErrTierOrder          = errors.New("tiers not ordered by group size")
	ErrNoPrices           = errors.New("no price cells parsed")
)

// ImportError locates one problem in the input. Row is 1-based; zero means
// the problem is not tied to a row, such as a missing header field.
type ImportError struct {
	Kind   error
	Column string
	Detail string
	Row    int
}

func (e *ImportError) Error() string {
	var b strings.Builder
	if e.Row > 0 {
		fmt.Fprintf(&b, "row %d", e.Row)
	}
	if e.Column != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "column %q", e.Column)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ImportError) Unwrap() error {
	return e.Kind
}
