package model

import (
	"fmt"
	"strings"
)

// Currency is one of the currencies a package can be priced in.
type Currency string

const (
	// CurrencyEUR is the euro.
	CurrencyEUR Currency = "EUR"
	// CurrencyGBP is the pound sterling.
	CurrencyGBP Currency = "GBP"
	// CurrencyUSD is the US dollar.
	CurrencyUSD Currency = "USD"
	// CurrencyCHF is the Swiss franc.
	CurrencyCHF Currency = "CHF"
)

// Currencies lists every supported currency in display order.
var Currencies = []Currency{CurrencyEUR, CurrencyGBP, CurrencyUSD, CurrencyCHF}

var currencySymbols = map[string]Currency{
	"€":   CurrencyEUR,
	"£":   CurrencyGBP,
	"$":   CurrencyUSD,
	"CHF": CurrencyCHF,
}

// ParseCurrency resolves an ISO code (any case) or a currency symbol.
func ParseCurrency(s string) (Currency, error) {
	s = strings.TrimSpace(s)
	if c, ok := currencySymbols[s]; ok {
		return c, nil
	}
	upper := Currency(strings.ToUpper(s))
	for _, c := range Currencies {
		if c == upper {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyEUR:
		return "€"
	case CurrencyGBP:
		return "£"
	case CurrencyUSD:
		return "$"
	default:
		return string(c) + " "
	}
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}
