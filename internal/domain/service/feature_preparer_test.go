package service_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/service"
)

func validRaw() model.RawApplication {
	return model.RawApplication{
		"loan_amnt":      10000.0,
		"term":           "36 months",
		"annual_inc":     60000.0,
		"fico_range_low": 700,
		"dti":            15.0,
	}
}

func TestFeaturePreparer_Prepare(t *testing.T) {
	preparer := service.NewFeaturePreparer(model.DefaultSchema())

	t.Run("returns values in schema order", func(t *testing.T) {
		row, err := preparer.Prepare(validRaw())
		require.NoError(t, err)
		require.Len(t, row, 5)

		want := []float64{10000, 36, 60000, 700, 15}
		for i, v := range want {
			assert.False(t, row[i].Missing)
			assert.Equal(t, v, row[i].Number, "feature %d", i)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		a, err := preparer.Prepare(validRaw())
		require.NoError(t, err)
		b, err := preparer.Prepare(validRaw())
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("parses leading term integer", func(t *testing.T) {
		raw := validRaw()
		raw["term"] = " 60 months"
		row, err := preparer.Prepare(raw)
		require.NoError(t, err)
		assert.Equal(t, 60.0, row[1].Number)
	})

	t.Run("term without digits is a parse error", func(t *testing.T) {
		for _, term := range []string{"N/A", ""} {
			raw := validRaw()
			raw["term"] = term
			_, err := preparer.Prepare(raw)

			var perr *model.ParseError
			require.True(t, errors.As(err, &perr), "term %q", term)
			assert.Equal(t, "term", perr.Field)
		}
	})

	t.Run("accepts numeric strings and json numbers", func(t *testing.T) {
		raw := validRaw()
		raw["loan_amnt"] = "12000.50"
		raw["fico_range_low"] = json.Number("710")
		row, err := preparer.Prepare(raw)
		require.NoError(t, err)
		assert.Equal(t, 12000.5, row[0].Number)
		assert.Equal(t, 710.0, row[3].Number)
	})

	t.Run("rejects fractional integer features", func(t *testing.T) {
		raw := validRaw()
		raw["fico_range_low"] = 700.5
		_, err := preparer.Prepare(raw)

		var cerr *model.TypeConversionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "fico_range_low", cerr.Field)
	})

	t.Run("rejects non numeric values", func(t *testing.T) {
		raw := validRaw()
		raw["annual_inc"] = "lots"
		_, err := preparer.Prepare(raw)

		var cerr *model.TypeConversionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "annual_inc", cerr.Field)
	})

	t.Run("missing tokens are errors at inference", func(t *testing.T) {
		raw := validRaw()
		raw["dti"] = nil
		_, err := preparer.Prepare(raw)
		assert.Error(t, err)
	})

	t.Run("absent keys are a schema mismatch", func(t *testing.T) {
		raw := validRaw()
		delete(raw, "dti")
		delete(raw, "term")
		_, err := preparer.Prepare(raw)

		var serr *model.SchemaMismatchError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, []string{"term", "dti"}, serr.Missing)
	})
}

func TestFeaturePreparer_PrepareRecord(t *testing.T) {
	schema, err := model.NewFeatureSchema(
		model.Feature{Name: "loan_amnt", Kind: model.KindFloat},
		model.Feature{Name: "term", Kind: model.KindTerm},
		model.Feature{Name: "purpose", Kind: model.KindCategorical},
	)
	require.NoError(t, err)
	preparer := service.NewFeaturePreparer(schema)

	t.Run("missing tokens become missing cells", func(t *testing.T) {
		row, err := preparer.PrepareRecord(model.RawApplication{
			"loan_amnt": "NA",
			"term":      "",
			"purpose":   "NaN",
		})
		require.NoError(t, err)
		for i := range row {
			assert.True(t, row[i].Missing, "feature %d", i)
		}
	})

	t.Run("categorical values are trimmed", func(t *testing.T) {
		row, err := preparer.PrepareRecord(model.RawApplication{
			"loan_amnt": "5000",
			"term":      "36 months",
			"purpose":   " car ",
		})
		require.NoError(t, err)
		assert.Equal(t, "car", row[2].Category)
	})

	t.Run("prepare all reports the failing row", func(t *testing.T) {
		_, err := preparer.PrepareAll([]model.RawApplication{
			{"loan_amnt": "5000", "term": "36 months", "purpose": "car"},
			{"loan_amnt": "abc", "term": "36 months", "purpose": "car"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
	})
}
