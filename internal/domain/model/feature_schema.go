package model

import (
	"fmt"
	"slices"
)

// FeatureKind describes how a raw field is coerced and which pipeline branch consumes it.
type FeatureKind string

const (
	KindFloat       FeatureKind = "float"
	KindInteger     FeatureKind = "integer"
	KindTerm        FeatureKind = "term"
	KindCategorical FeatureKind = "categorical"
)

// IsNumeric reports whether the feature is fed to the numeric branch of the pipeline.
func (k FeatureKind) IsNumeric() bool {
	return k == KindFloat || k == KindInteger || k == KindTerm
}

func (k FeatureKind) valid() bool {
	return k.IsNumeric() || k == KindCategorical
}

// Feature is one named, typed column of the schema.
type Feature struct {
	Name string      `json:"name"`
	Kind FeatureKind `json:"kind"`
}

// Column names of the loan book outside the feature set.
const (
	TargetColumn = "loan_status"
)

// IdentifierColumns are dropped from datasets before training.
var IdentifierColumns = []string{"id", "loan_id"}

// FeatureSchema is the ordered list of features shared by training and inference.
type FeatureSchema struct {
	Features []Feature `json:"features"`
}

// NewFeatureSchema validates and builds a schema. Names must be unique and non-empty.
func NewFeatureSchema(features ...Feature) (FeatureSchema, error) {
	if len(features) == 0 {
		return FeatureSchema{}, fmt.Errorf("feature schema requires at least one feature")
	}

	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if f.Name == "" {
			return FeatureSchema{}, fmt.Errorf("feature name is required")
		}
		if !f.Kind.valid() {
			return FeatureSchema{}, fmt.Errorf("feature %q has unknown kind %q", f.Name, f.Kind)
		}
		if _, dup := seen[f.Name]; dup {
			return FeatureSchema{}, fmt.Errorf("duplicate feature %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	return FeatureSchema{Features: slices.Clone(features)}, nil
}

// DefaultSchema returns the five-field LendingClub schema used by the service.
func DefaultSchema() FeatureSchema {
	return FeatureSchema{Features: []Feature{
		{Name: "loan_amnt", Kind: KindFloat},
		{Name: "term", Kind: KindTerm},
		{Name: "annual_inc", Kind: KindFloat},
		{Name: "fico_range_low", Kind: KindInteger},
		{Name: "dti", Kind: KindFloat},
	}}
}

// Len returns the number of features.
func (s FeatureSchema) Len() int { return len(s.Features) }

// Names returns the feature names in schema order.
func (s FeatureSchema) Names() []string {
	names := make([]string, len(s.Features))
	for i, f := range s.Features {
		names[i] = f.Name
	}
	return names
}

// NumericIndices returns the positions of numeric features in schema order.
func (s FeatureSchema) NumericIndices() []int {
	var idx []int
	for i, f := range s.Features {
		if f.Kind.IsNumeric() {
			idx = append(idx, i)
		}
	}
	return idx
}

// CategoricalIndices returns the positions of categorical features in schema order.
func (s FeatureSchema) CategoricalIndices() []int {
	var idx []int
	for i, f := range s.Features {
		if f.Kind == KindCategorical {
			idx = append(idx, i)
		}
	}
	return idx
}

// Equal reports whether both schemas have the same features in the same order.
func (s FeatureSchema) Equal(other FeatureSchema) bool {
	return slices.Equal(s.Features, other.Features)
}
