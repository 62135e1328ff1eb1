package ml

import (
	"fmt"
	"math"

	"github.com/bibbank/loan-approval/internal/domain/model"
)

// ColumnTransformer routes categorical features through imputation and one-hot
// encoding and numeric features through imputation and scaling. The output
// holds the categorical block first, then the numeric block.
type ColumnTransformer struct {
	Schema             model.FeatureSchema `json:"schema"`
	CategoricalImputer MostFrequentImputer `json:"categorical_imputer"`
	Encoder            OneHotEncoder       `json:"encoder"`
	NumericImputer     MedianImputer       `json:"numeric_imputer"`
	Scaler             StandardScaler      `json:"scaler"`
}

// FitColumnTransformer learns every preprocessing step from the training rows.
func FitColumnTransformer(schema model.FeatureSchema, rows []model.PreparedRow) (*ColumnTransformer, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("column transformer: no rows")
	}
	t := &ColumnTransformer{Schema: schema}

	cat, num, err := t.split(rows)
	if err != nil {
		return nil, err
	}

	if catIdx := schema.CategoricalIndices(); len(catIdx) > 0 {
		names := t.names(catIdx)
		if err := t.CategoricalImputer.Fit(cat, names); err != nil {
			return nil, err
		}
		t.CategoricalImputer.Transform(cat)
		if err := t.Encoder.Fit(cat); err != nil {
			return nil, err
		}
	}

	if numIdx := schema.NumericIndices(); len(numIdx) > 0 {
		names := t.names(numIdx)
		if err := t.NumericImputer.Fit(num, names); err != nil {
			return nil, err
		}
		t.NumericImputer.Transform(num)
		if err := t.Scaler.Fit(num); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Width is the number of columns Transform produces.
func (t *ColumnTransformer) Width() int {
	return t.Encoder.Width() + len(t.Schema.NumericIndices())
}

// FeatureNames labels every output column.
func (t *ColumnTransformer) FeatureNames() []string {
	names := make([]string, 0, t.Width())
	for j, col := range t.Schema.CategoricalIndices() {
		for _, c := range t.Encoder.Categories[j] {
			names = append(names, "cat__"+t.Schema.Features[col].Name+"_"+c)
		}
	}
	for _, col := range t.Schema.NumericIndices() {
		names = append(names, "num__"+t.Schema.Features[col].Name)
	}
	return names
}

// Validate checks that every fitted step holds one entry per feature it serves.
func (t *ColumnTransformer) Validate() error {
	nCat, nNum := len(t.Schema.CategoricalIndices()), len(t.Schema.NumericIndices())
	if err := t.CategoricalImputer.validate(nCat); err != nil {
		return err
	}
	if err := t.Encoder.validate(nCat); err != nil {
		return err
	}
	if err := t.NumericImputer.validate(nNum); err != nil {
		return err
	}
	return t.Scaler.validate(nNum)
}

// Transform produces the design matrix for rows without mutating them.
func (t *ColumnTransformer) Transform(rows []model.PreparedRow) ([][]float64, error) {
	cat, num, err := t.split(rows)
	if err != nil {
		return nil, err
	}
	hasCat := len(t.Schema.CategoricalIndices()) > 0
	hasNum := len(t.Schema.NumericIndices()) > 0
	if hasCat {
		t.CategoricalImputer.Transform(cat)
	}
	if hasNum {
		t.NumericImputer.Transform(num)
		t.Scaler.Transform(num)
	}

	width, catWidth := t.Width(), t.Encoder.Width()
	X := make([][]float64, len(rows))
	for i := range rows {
		X[i] = make([]float64, width)
		if hasCat {
			t.Encoder.Encode(cat[i], X[i][:catWidth])
		}
		if hasNum {
			copy(X[i][catWidth:], num[i])
		}
	}
	return X, nil
}

// split copies rows into a categorical matrix ("" for missing) and a numeric matrix (NaN for missing).
func (t *ColumnTransformer) split(rows []model.PreparedRow) ([][]string, [][]float64, error) {
	catIdx, numIdx := t.Schema.CategoricalIndices(), t.Schema.NumericIndices()
	cat := make([][]string, len(rows))
	num := make([][]float64, len(rows))

	for i, row := range rows {
		if len(row) != t.Schema.Len() {
			return nil, nil, fmt.Errorf("row %d has %d values, schema has %d features", i, len(row), t.Schema.Len())
		}
		cat[i] = make([]string, len(catIdx))
		for j, col := range catIdx {
			if !row[col].Missing {
				cat[i][j] = row[col].Category
			}
		}
		num[i] = make([]float64, len(numIdx))
		for j, col := range numIdx {
			if row[col].Missing {
				num[i][j] = math.NaN()
			} else {
				num[i][j] = row[col].Number
			}
		}
	}
	return cat, num, nil
}

func (t *ColumnTransformer) names(idx []int) []string {
	names := make([]string, len(idx))
	for j, col := range idx {
		names[j] = t.Schema.Features[col].Name
	}
	return names
}
