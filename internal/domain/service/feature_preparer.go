package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

// missingTokens are the dataset spellings of an absent value.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
}

// FeaturePreparer turns raw records into rows in schema order. Training and
// inference share one instance per schema so both sides coerce identically.
type FeaturePreparer struct {
	schema model.FeatureSchema
}

// NewFeaturePreparer creates a preparer bound to schema.
func NewFeaturePreparer(schema model.FeatureSchema) *FeaturePreparer {
	return &FeaturePreparer{schema: schema}
}

// Schema returns the schema rows are prepared against.
func (p *FeaturePreparer) Schema() model.FeatureSchema {
	return p.schema
}

// Prepare coerces a single application. Every feature must carry a usable value.
func (p *FeaturePreparer) Prepare(raw model.RawApplication) (model.PreparedRow, error) {
	return p.prepare(raw, false)
}

// PrepareRecord coerces a dataset record. Missing tokens become missing cells
// for the pipeline to impute.
func (p *FeaturePreparer) PrepareRecord(raw model.RawApplication) (model.PreparedRow, error) {
	return p.prepare(raw, true)
}

// PrepareAll applies PrepareRecord to every record and reports the failing row.
func (p *FeaturePreparer) PrepareAll(records []model.RawApplication) ([]model.PreparedRow, error) {
	rows := make([]model.PreparedRow, len(records))
	for i, rec := range records {
		row, err := p.PrepareRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func (p *FeaturePreparer) prepare(raw model.RawApplication, allowMissing bool) (model.PreparedRow, error) {
	var missing []string
	for _, f := range p.schema.Features {
		if _, ok := raw[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &model.SchemaMismatchError{Missing: missing}
	}

	row := make(model.PreparedRow, p.schema.Len())
	for i, f := range p.schema.Features {
		v := raw[f.Name]
		if allowMissing && isMissing(v) {
			row[i] = model.MissingValue()
			continue
		}

		cell, err := coerce(f, v)
		if err != nil {
			return nil, err
		}
		row[i] = cell
	}
	return row, nil
}

func isMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		_, ok := missingTokens[strings.TrimSpace(x)]
		return ok
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	default:
		return false
	}
}

func coerce(f model.Feature, v any) (model.Value, error) {
	switch f.Kind {
	case model.KindFloat:
		x, ok := toFloat(v)
		if !ok {
			return model.Value{}, &model.TypeConversionError{Field: f.Name, Value: v, Kind: f.Kind}
		}
		return model.NumberValue(x), nil

	case model.KindInteger:
		x, ok := toFloat(v)
		if !ok || x != math.Trunc(x) {
			return model.Value{}, &model.TypeConversionError{Field: f.Name, Value: v, Kind: f.Kind}
		}
		return model.NumberValue(x), nil

	case model.KindTerm:
		if s, ok := v.(string); ok {
			term, err := valueobject.ParseLoanTerm(s)
			if err != nil {
				return model.Value{}, &model.ParseError{Field: f.Name, Value: s, Err: err}
			}
			return model.NumberValue(float64(term.Months())), nil
		}
		x, ok := toFloat(v)
		if !ok || x != math.Trunc(x) || x <= 0 {
			return model.Value{}, &model.TypeConversionError{Field: f.Name, Value: v, Kind: f.Kind}
		}
		return model.NumberValue(x), nil

	case model.KindCategorical:
		switch x := v.(type) {
		case string:
			return model.CategoryValue(strings.TrimSpace(x)), nil
		case int, int32, int64, bool:
			return model.CategoryValue(fmt.Sprint(x)), nil
		default:
			return model.Value{}, &model.TypeConversionError{Field: f.Name, Value: v, Kind: f.Kind}
		}
	}

	return model.Value{}, fmt.Errorf("feature %q has unknown kind %q", f.Name, f.Kind)
}

// toFloat accepts finite numbers in any of the shapes callers and loaders produce.
func toFloat(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	case decimal.Decimal:
		x = n.InexactFloat64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}

	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}
