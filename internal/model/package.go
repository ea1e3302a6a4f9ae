package model

import (
	"slices"
	"time"
)

// Metadata is the descriptive part of a package carried alongside its matrix.
type Metadata struct {
	Name                  string   `json:"name" yaml:"name"`
	Destination           string   `json:"destination" yaml:"destination"`
	Resort                string   `json:"resort" yaml:"resort"`
	Currency              Currency `json:"currency" yaml:"currency"`
	Inclusions            []string `json:"inclusions,omitempty" yaml:"inclusions,omitempty"`
	AccommodationExamples []string `json:"accommodation_examples,omitempty" yaml:"accommodation_examples,omitempty"`
	SalesNotes            string   `json:"sales_notes,omitempty" yaml:"sales_notes,omitempty"`
}

// Clone returns a copy that shares no slices with m.
func (m Metadata) Clone() Metadata {
	m.Inclusions = slices.Clone(m.Inclusions)
	m.AccommodationExamples = slices.Clone(m.AccommodationExamples)
	return m
}

// Package is the current state of a priced travel package.
type Package struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Matrix    *Matrix
	ID        string
	Metadata
	Version int
}

// Snapshot captures the package as an immutable, versioned copy.
func (p *Package) Snapshot() Snapshot {
	return Snapshot{
		Version:  p.Version,
		Metadata: p.Metadata.Clone(),
		Matrix:   p.Matrix.Clone(),
		TakenAt:  time.Now(),
	}
}

// Snapshot is a copy of a package's metadata and matrix at one version.
type Snapshot struct {
	TakenAt time.Time
	Matrix  *Matrix
	Metadata
	Version int
}

// PackageVersion is one entry of a package's audit history.
type PackageVersion struct {
	CreatedAt     time.Time
	PackageID     string
	Summary       string
	ChangedFields []string
	Snapshot      Snapshot
	Version       int
}
