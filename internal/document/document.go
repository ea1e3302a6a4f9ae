// Package document reads and writes packages as YAML documents, a
// hand-editable alternative to price sheets.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/tariff/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when a document does not describe a valid package.
var ErrInvalidDocument = errors.New("invalid package document")

// Document is the YAML form of a package. Prices reference tiers, periods
// and durations by name rather than by position.
type Document struct {
	model.Metadata `yaml:",inline"`
	Tiers          []model.GroupSizeTier `yaml:"tiers"`
	Durations      []int                 `yaml:"durations"`
	Periods        []Period              `yaml:"periods"`
	Prices         []Price               `yaml:"prices"`
}

// Period is either a month (Month set) or a labelled date range.
type Period struct {
	Month string `yaml:"month,omitempty"`
	Label string `yaml:"label,omitempty"`
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
}

// Price is one defined cell. Amount is a decimal string so no precision
// is lost; OnRequest replaces it.
type Price struct {
	Tier      string `yaml:"tier"`
	Period    string `yaml:"period"`
	Amount    string `yaml:"amount,omitempty"`
	Nights    int    `yaml:"nights"`
	OnRequest bool   `yaml:"on_request,omitempty"`
}

// FromPackage builds the document for a package's metadata and matrix.
func FromPackage(meta model.Metadata, m *model.Matrix) Document {
	doc := Document{Metadata: meta.Clone()}
	if m == nil {
		return doc
	}
	doc.Tiers = append(doc.Tiers, m.Tiers...)
	doc.Durations = m.Nights()
	for _, p := range m.Periods {
		if p.IsSpecial() {
			doc.Periods = append(doc.Periods, Period{Label: p.Label, Start: p.Start.String(), End: p.End.String()})
			continue
		}
		doc.Periods = append(doc.Periods, Period{Month: p.Month.String()})
	}
	for _, key := range m.SortedKeys() {
		price := m.Cells[key]
		period, _ := m.PeriodByKey(key.Period)
		cell := Price{
			Tier:   m.Tiers[key.Tier].Label,
			Nights: key.Nights,
			Period: period.Name(),
		}
		if price.IsOnRequest() {
			cell.OnRequest = true
		} else {
			cell.Amount = price.Amount.String()
		}
		doc.Prices = append(doc.Prices, cell)
	}
	return doc
}

// Package converts the document back into metadata and a validated matrix.
func (d Document) Package() (model.Metadata, *model.Matrix, error) {
	meta := d.Metadata.Clone()
	if strings.TrimSpace(meta.Name) == "" {
		return meta, nil, fmt.Errorf("%w: missing name", ErrInvalidDocument)
	}
	if meta.Currency != "" {
		c, err := model.ParseCurrency(string(meta.Currency))
		if err != nil {
			return meta, nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		meta.Currency = c
	}

	m := model.NewMatrix()
	for _, tier := range d.Tiers {
		m.AddTier(tier)
	}
	for _, nights := range d.Durations {
		m.AddDuration(nights)
	}

	periodKeys := make(map[string]string, len(d.Periods))
	for i, p := range d.Periods {
		period, err := p.toModel()
		if err != nil {
			return meta, nil, fmt.Errorf("%w: period %d: %w", ErrInvalidDocument, i+1, err)
		}
		if !m.AddPeriod(period) {
			return meta, nil, fmt.Errorf("%w: duplicate period %s", ErrInvalidDocument, period.Name())
		}
		name := strings.ToLower(period.Name())
		if _, taken := periodKeys[name]; taken {
			return meta, nil, fmt.Errorf("%w: period name %q is used twice", ErrInvalidDocument, period.Name())
		}
		periodKeys[name] = period.Key()
	}

	for i, cell := range d.Prices {
		tier := m.TierIndex(cell.Tier)
		if tier < 0 {
			return meta, nil, fmt.Errorf("%w: price %d: unknown tier %q", ErrInvalidDocument, i+1, cell.Tier)
		}
		key, ok := periodKeys[strings.ToLower(cell.Period)]
		if !ok {
			return meta, nil, fmt.Errorf("%w: price %d: unknown period %q", ErrInvalidDocument, i+1, cell.Period)
		}
		if !m.HasDuration(cell.Nights) {
			return meta, nil, fmt.Errorf("%w: price %d: %d nights is not a listed duration", ErrInvalidDocument, i+1, cell.Nights)
		}
		if cell.OnRequest {
			m.SetPrice(tier, cell.Nights, key, model.OnRequestPrice())
			continue
		}
		amount, err := decimal.NewFromString(cell.Amount)
		if err != nil {
			return meta, nil, fmt.Errorf("%w: price %d: amount %q: %w", ErrInvalidDocument, i+1, cell.Amount, err)
		}
		m.SetPrice(tier, cell.Nights, key, model.AmountPrice(amount))
	}

	if err := m.Validate(); err != nil {
		return meta, nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return meta, m, nil
}

func (p Period) toModel() (model.PricingPeriod, error) {
	if p.Month != "" {
		for m := time.January; m <= time.December; m++ {
			if strings.EqualFold(m.String(), strings.TrimSpace(p.Month)) {
				return model.MonthPeriod(m), nil
			}
		}
		return model.PricingPeriod{}, fmt.Errorf("unknown month %q", p.Month)
	}
	if strings.TrimSpace(p.Label) == "" {
		return model.PricingPeriod{}, errors.New("period needs a month or a label")
	}
	start, err := model.ParseCalendarDate(p.Start)
	if err != nil {
		return model.PricingPeriod{}, err
	}
	end, err := model.ParseCalendarDate(p.End)
	if err != nil {
		return model.PricingPeriod{}, err
	}
	return model.SpecialPeriod(strings.TrimSpace(p.Label), start, end), nil
}

// Encode writes the package as YAML.
func Encode(w io.Writer, meta model.Metadata, m *model.Matrix) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromPackage(meta, m)); err != nil {
		return fmt.Errorf("failed to encode package document: %w", err)
	}
	return enc.Close()
}

// Decode reads one YAML package document. Unknown keys are rejected.
func Decode(data []byte) (model.Metadata, *model.Matrix, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Metadata{}, nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return model.Metadata{}, nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return doc.Package()
}
