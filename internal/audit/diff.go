// Package audit computes what changed between two versions of a package.
package audit

import (
	"slices"
	"strings"

	"github.com/Veraticus/tariff/internal/model"
)

// Field names reported in Change.ChangedFields.
const (
	FieldName                  = "name"
	FieldDestination           = "destination"
	FieldResort                = "resort"
	FieldCurrency              = "currency"
	FieldInclusions            = "inclusions"
	FieldAccommodationExamples = "accommodationExamples"
	FieldSalesNotes            = "salesNotes"
	FieldPricingMatrix         = "pricingMatrix"
)

// InitialSummary is the generated summary of a package's first version.
const InitialSummary = "Initial version"

// Change describes the difference between two snapshots.
type Change struct {
	Summary       string
	ChangedFields []string
	NextVersion   int
}

// HasChanges reports whether any field differs.
func (c Change) HasChanges() bool {
	return len(c.ChangedFields) > 0
}

// Contains reports whether field is among the changed fields.
func (c Change) Contains(field string) bool {
	_, found := slices.BinarySearch(c.ChangedFields, field)
	return found
}

// Diff compares next against previous. A nil previous describes the first
// version. A non-blank summary is passed through unchanged; otherwise one is
// generated from the changed fields. Diff never fails.
func Diff(previous *model.Snapshot, next model.Snapshot, summary string) Change {
	if previous == nil {
		return Change{
			ChangedFields: []string{},
			Summary:       summaryOr(summary, InitialSummary),
			NextVersion:   1,
		}
	}

	var changed []string
	mark := func(field string, differs bool) {
		if differs {
			changed = append(changed, field)
		}
	}
	mark(FieldName, previous.Name != next.Name)
	mark(FieldDestination, previous.Destination != next.Destination)
	mark(FieldResort, previous.Resort != next.Resort)
	mark(FieldCurrency, previous.Currency != next.Currency)
	mark(FieldInclusions, !sameList(previous.Inclusions, next.Inclusions))
	mark(FieldAccommodationExamples, !sameList(previous.AccommodationExamples, next.AccommodationExamples))
	mark(FieldSalesNotes, previous.SalesNotes != next.SalesNotes)
	mark(FieldPricingMatrix, !sameMatrix(previous.Matrix, next.Matrix))
	slices.Sort(changed)
	if changed == nil {
		changed = []string{}
	}

	generated := "No changes"
	if len(changed) > 0 {
		generated = "Updated " + strings.Join(changed, ", ")
	}
	return Change{
		ChangedFields: changed,
		Summary:       summaryOr(summary, generated),
		NextVersion:   previous.Version + 1,
	}
}

func summaryOr(summary, fallback string) string {
	if strings.TrimSpace(summary) == "" {
		return fallback
	}
	return summary
}

// sameList treats nil and empty lists as equal; order matters.
func sameList(a, b []string) bool {
	return slices.Equal(a, b)
}

func sameMatrix(a, b *model.Matrix) bool {
	if a == nil {
		a = model.NewMatrix()
	}
	if b == nil {
		b = model.NewMatrix()
	}
	return a.Equal(b)
}
