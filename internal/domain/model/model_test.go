package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-approval/internal/domain/event"
	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

func validApplicationArgs() (decimal.Decimal, string, decimal.Decimal, int, decimal.Decimal) {
	return decimal.NewFromInt(10000), "36 months", decimal.NewFromInt(60000), 700, decimal.NewFromInt(15)
}

func TestNewLoanApplication(t *testing.T) {
	t.Run("accepts a valid application", func(t *testing.T) {
		amount, term, income, fico, dti := validApplicationArgs()
		app, err := model.NewLoanApplication(amount, term, income, fico, dti)
		require.NoError(t, err)

		raw := app.Raw()
		assert.Equal(t, 10000.0, raw["loan_amnt"])
		assert.Equal(t, "36 months", raw["term"])
		assert.Equal(t, 60000.0, raw["annual_inc"])
		assert.Equal(t, 700, raw["fico_range_low"])
		assert.Equal(t, 15.0, raw["dti"])
	})

	tests := []struct {
		name  string
		field string
		apply func(amount, income, dti *decimal.Decimal, term *string, fico *int)
	}{
		{"annual income of zero", "annual_inc", func(_, income, _ *decimal.Decimal, _ *string, _ *int) { *income = decimal.Zero }},
		{"fico below range", "fico_range_low", func(_, _, _ *decimal.Decimal, _ *string, fico *int) { *fico = 299 }},
		{"fico above range", "fico_range_low", func(_, _, _ *decimal.Decimal, _ *string, fico *int) { *fico = 901 }},
		{"negative loan amount", "loan_amnt", func(amount, _, _ *decimal.Decimal, _ *string, _ *int) { *amount = decimal.NewFromInt(-1) }},
		{"negative dti", "dti", func(_, _, dti *decimal.Decimal, _ *string, _ *int) { *dti = decimal.NewFromFloat(-0.5) }},
		{"blank term", "term", func(_, _, _ *decimal.Decimal, term *string, _ *int) { *term = "  " }},
		{"amount that underflows a float", "loan_amnt", func(amount, _, _ *decimal.Decimal, _ *string, _ *int) {
			*amount = decimal.RequireFromString("1e-400")
		}},
		{"income with a huge exponent", "annual_inc", func(_, income, _ *decimal.Decimal, _ *string, _ *int) {
			*income = decimal.RequireFromString("1e10000000")
		}},
		{"dti beyond the decimal range", "dti", func(_, _, dti *decimal.Decimal, _ *string, _ *int) {
			*dti = decimal.RequireFromString("1e400")
		}},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			amount, term, income, fico, dti := validApplicationArgs()
			tt.apply(&amount, &income, &dti, &term, &fico)

			_, err := model.NewLoanApplication(amount, term, income, fico, dti)
			require.Error(t, err)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}

	t.Run("reports every invalid field", func(t *testing.T) {
		_, err := model.NewLoanApplication(decimal.Zero, "", decimal.Zero, 100, decimal.NewFromInt(-1))

		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 5)
	})

	t.Run("accepts small but representable amounts", func(t *testing.T) {
		_, term, income, fico, dti := validApplicationArgs()
		app, err := model.NewLoanApplication(decimal.RequireFromString("0.01"), term, income, fico, dti)
		require.NoError(t, err)
		assert.Equal(t, 0.01, app.Raw()["loan_amnt"])
	})

	t.Run("accepts fico bounds inclusive", func(t *testing.T) {
		amount, term, income, _, dti := validApplicationArgs()
		_, err := model.NewLoanApplication(amount, term, income, model.MinFICO, dti)
		assert.NoError(t, err)
		_, err = model.NewLoanApplication(amount, term, income, model.MaxFICO, dti)
		assert.NoError(t, err)
	})
}

func TestCheckDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"60000", true},
		{"-1", true},
		{"999999999999999", true},
		{"1e15", true},
		{"1e16", false},
		{"-1e16", false},
		{"0.00000000000000000000000000000001", true},
		{"1e-33", false},
		{"1e-400", false},
		{"1e10000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			verr := &model.ValidationError{}
			assert.Equal(t, tt.want, model.CheckDecimal(verr, "loan_amnt", decimal.RequireFromString(tt.in)))
			assert.Equal(t, tt.want, verr.OrNil() == nil)
		})
	}
}

func TestFeatureSchema(t *testing.T) {
	t.Run("default schema order", func(t *testing.T) {
		s := model.DefaultSchema()
		assert.Equal(t, []string{"loan_amnt", "term", "annual_inc", "fico_range_low", "dti"}, s.Names())
		assert.Equal(t, []int{0, 1, 2, 3, 4}, s.NumericIndices())
		assert.Empty(t, s.CategoricalIndices())
	})

	t.Run("rejects duplicates and unknown kinds", func(t *testing.T) {
		_, err := model.NewFeatureSchema(
			model.Feature{Name: "a", Kind: model.KindFloat},
			model.Feature{Name: "a", Kind: model.KindFloat},
		)
		assert.Error(t, err)

		_, err = model.NewFeatureSchema(model.Feature{Name: "a", Kind: "vector"})
		assert.Error(t, err)

		_, err = model.NewFeatureSchema()
		assert.Error(t, err)
	})

	t.Run("equality is order sensitive", func(t *testing.T) {
		a, err := model.NewFeatureSchema(
			model.Feature{Name: "x", Kind: model.KindFloat},
			model.Feature{Name: "purpose", Kind: model.KindCategorical},
		)
		require.NoError(t, err)
		b, err := model.NewFeatureSchema(
			model.Feature{Name: "purpose", Kind: model.KindCategorical},
			model.Feature{Name: "x", Kind: model.KindFloat},
		)
		require.NoError(t, err)

		assert.True(t, a.Equal(a))
		assert.False(t, a.Equal(b))
		assert.Equal(t, []int{1}, a.CategoricalIndices())
	})
}

func TestPrediction_Confidence(t *testing.T) {
	approved := model.Prediction{ProbabilityBad: 0.2, Decision: valueobject.DecisionApproved}
	assert.InDelta(t, 0.8, approved.Confidence(), 1e-12)
	assert.Equal(t, valueobject.ClassGood, approved.ClassLabel())

	rejected := model.Prediction{ProbabilityBad: 0.4, Decision: valueobject.DecisionRejected}
	assert.InDelta(t, 0.4, rejected.Confidence(), 1e-12)
	assert.Equal(t, valueobject.ClassBad, rejected.ClassLabel())
}

func TestTrainingRun(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("complete records a model trained event", func(t *testing.T) {
		run, err := model.NewTrainingRun("csv:loans.csv", now)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusRunning, run.Status())
		assert.Contains(t, run.ModelVersion(), "20260301T120000Z-")

		report := model.EvaluationReport{Accuracy: 0.8, F1: 0.3}
		require.NoError(t, run.Complete("/tmp/model.json", 80, 20, report, now.Add(time.Minute)))

		assert.Equal(t, model.RunStatusCompleted, run.Status())
		assert.Equal(t, 80, run.TrainRows())

		evts := run.ClearEvents()
		require.Len(t, evts, 1)
		trained, ok := evts[0].(event.ModelTrained)
		require.True(t, ok)
		assert.Equal(t, run.ID(), trained.AggregateID())
		assert.Equal(t, "/tmp/model.json", trained.ArtifactPath)
	})

	t.Run("cannot complete twice", func(t *testing.T) {
		run, err := model.NewTrainingRun("csv:loans.csv", now)
		require.NoError(t, err)
		require.NoError(t, run.Complete("/tmp/model.json", 1, 1, model.EvaluationReport{}, now))
		assert.Error(t, run.Complete("/tmp/model.json", 1, 1, model.EvaluationReport{}, now))
	})

	t.Run("requires a dataset source", func(t *testing.T) {
		_, err := model.NewTrainingRun("", now)
		assert.Error(t, err)
	})
}
