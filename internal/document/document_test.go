package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `name: Alpine Winter
destination: Austria
resort: St. Anton
currency: EUR
inclusions:
  - Ski pass
tiers:
  - label: 6-11 People
    min_people: 6
    max_people: 11
  - label: 12+ People
    min_people: 12
durations: [3, 5]
periods:
  - month: January
  - label: Christmas
    start: --12-20
    end: --01-03
prices:
  - tier: 6-11 People
    nights: 3
    period: January
    amount: "410.50"
  - tier: 12+ People
    nights: 3
    period: january
    amount: "380"
  - tier: 6-11 People
    nights: 5
    period: Christmas
    on_request: true
`

func TestDecode(t *testing.T) {
	meta, m, err := Decode([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "Alpine Winter", meta.Name)
	assert.Equal(t, model.CurrencyEUR, meta.Currency)
	assert.Equal(t, []string{"Ski pass"}, meta.Inclusions)
	assert.Equal(t, []int{3, 5}, m.Nights())
	require.Len(t, m.Periods, 2)
	assert.True(t, m.Periods[1].Recurring())

	price, ok := m.Lookup(0, 3, model.MonthPeriod(time.January).Key())
	require.True(t, ok)
	assert.True(t, price.Amount.Equal(decimal.RequireFromString("410.50")))

	price, ok = m.Lookup(0, 5, m.Periods[1].Key())
	require.True(t, ok)
	assert.True(t, price.IsOnRequest())
	assert.Equal(t, 3, m.CellCount())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	_, original, err := Decode([]byte(sampleYAML))
	require.NoError(t, err)
	meta := model.Metadata{Name: "Alpine Winter", Currency: model.CurrencyEUR, SalesNotes: "Line one\nLine two"}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, meta, original))
	assert.Contains(t, buf.String(), "amount: \"410.5\"")

	decodedMeta, decoded, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, meta, decodedMeta)
	assert.True(t, original.Equal(decoded))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "unknown key", doc: "name: X\ncolour: red\n"},
		{name: "missing name", doc: "currency: EUR\n"},
		{name: "bad currency", doc: "name: X\ncurrency: JPY\n"},
		{name: "unknown month", doc: "name: X\nperiods:\n  - month: Smarch\n"},
		{name: "period without label", doc: "name: X\nperiods:\n  - start: 2025-04-02\n"},
		{name: "bad date", doc: "name: X\nperiods:\n  - label: Easter\n    start: 2025-13-40\n    end: 2025-04-06\n"},
		{name: "repeated label", doc: "name: X\nperiods:\n  - label: Easter\n    start: 2025-04-02\n    end: 2025-04-06\n  - label: Easter\n    start: 2026-04-02\n    end: 2026-04-06\n"},
		{name: "unknown tier", doc: "name: X\ndurations: [2]\nperiods:\n  - month: June\nprices:\n  - {tier: Nobody, nights: 2, period: June, amount: \"1\"}\n"},
		{name: "unknown period", doc: "name: X\ntiers:\n  - {label: 2+ People, min_people: 2}\ndurations: [2]\nprices:\n  - {tier: 2+ People, nights: 2, period: June, amount: \"1\"}\n"},
		{name: "unlisted duration", doc: "name: X\ntiers:\n  - {label: 2+ People, min_people: 2}\ndurations: [2]\nperiods:\n  - month: June\nprices:\n  - {tier: 2+ People, nights: 4, period: June, amount: \"1\"}\n"},
		{name: "bad amount", doc: "name: X\ntiers:\n  - {label: 2+ People, min_people: 2}\ndurations: [2]\nperiods:\n  - month: June\nprices:\n  - {tier: 2+ People, nights: 2, period: June, amount: lots}\n"},
		{name: "negative amount", doc: "name: X\ntiers:\n  - {label: 2+ People, min_people: 2}\ndurations: [2]\nperiods:\n  - month: June\nprices:\n  - {tier: 2+ People, nights: 2, period: June, amount: \"-5\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}
