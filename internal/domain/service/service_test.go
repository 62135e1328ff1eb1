package service_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/service"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

func TestComputeDTI(t *testing.T) {
	t.Run("computes percentage of monthly income", func(t *testing.T) {
		dti, err := service.ComputeDTI(decimal.NewFromInt(120000), decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.Equal(t, "10.00", dti.StringFixed(2))
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		dti, err := service.ComputeDTI(decimal.NewFromInt(50000), decimal.NewFromInt(1234))
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("29.62").Equal(dti), "got %s", dti)
	})

	t.Run("zero debt is allowed", func(t *testing.T) {
		dti, err := service.ComputeDTI(decimal.NewFromInt(50000), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, dti.IsZero())
	})

	t.Run("rejects non positive income and negative debt", func(t *testing.T) {
		_, err := service.ComputeDTI(decimal.Zero, decimal.NewFromInt(-1))

		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields, 2)
		assert.Equal(t, "annual_inc", verr.Fields[0].Field)
		assert.Equal(t, "monthly_debt_payment", verr.Fields[1].Field)
	})

	t.Run("rejects decimals out of range before dividing", func(t *testing.T) {
		tests := []struct {
			name   string
			income string
			debt   string
			field  string
		}{
			{"tiny income", "1e-400", "500", "annual_inc"},
			{"huge debt", "60000", "1e400", "monthly_debt_payment"},
			{"huge debt exponent", "60000", "1e10000000", "monthly_debt_payment"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := service.ComputeDTI(decimal.RequireFromString(tt.income), decimal.RequireFromString(tt.debt))

				var verr *model.ValidationError
				require.True(t, errors.As(err, &verr))
				require.Len(t, verr.Fields, 1)
				assert.Equal(t, tt.field, verr.Fields[0].Field)
				assert.Equal(t, "is out of range", verr.Fields[0].Message)
			})
		}
	})

	t.Run("extreme but accepted inputs give a finite ratio", func(t *testing.T) {
		dti, err := service.ComputeDTI(decimal.RequireFromString("1e-32"), decimal.RequireFromString("1e15"))
		require.NoError(t, err)
		assert.False(t, math.IsInf(dti.InexactFloat64(), 0))
	})
}

func TestDecisionPolicy(t *testing.T) {
	threshold, err := valueobject.NewDecisionThreshold(0.35)
	require.NoError(t, err)
	policy := service.NewDecisionPolicy(threshold)

	t.Run("approves below threshold", func(t *testing.T) {
		p, err := policy.Decide(0.2, "v1")
		require.NoError(t, err)
		assert.True(t, p.Decision.IsApproved())
		assert.Equal(t, "v1", p.ModelVersion)
		assert.Equal(t, 0.35, p.Threshold)
		assert.InDelta(t, 0.8, p.Confidence(), 1e-12)
	})

	t.Run("rejects at threshold", func(t *testing.T) {
		p, err := policy.Decide(0.35, "v1")
		require.NoError(t, err)
		assert.True(t, p.Decision.IsRejected())
	})

	t.Run("invalid probabilities make the decision unavailable", func(t *testing.T) {
		for _, v := range []float64{math.NaN(), -0.1, 1.1} {
			_, err := policy.Decide(v, "v1")
			assert.True(t, errors.Is(err, model.ErrDecisionUnavailable), "probability %v", v)
		}
	})
}

func TestStratifiedSplit(t *testing.T) {
	labels := make([]int, 100)
	for i := 0; i < 20; i++ {
		labels[i*5] = 1
	}

	t.Run("keeps class proportions", func(t *testing.T) {
		split, err := service.StratifiedSplit(labels, 0.2, 42)
		require.NoError(t, err)
		assert.Len(t, split.Test, 20)
		assert.Len(t, split.Train, 80)

		bad := 0
		for _, i := range split.Test {
			bad += labels[i]
		}
		assert.Equal(t, 4, bad)
	})

	t.Run("is deterministic for a seed", func(t *testing.T) {
		a, err := service.StratifiedSplit(labels, 0.2, 42)
		require.NoError(t, err)
		b, err := service.StratifiedSplit(labels, 0.2, 42)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("partitions every row once", func(t *testing.T) {
		split, err := service.StratifiedSplit(labels, 0.2, 7)
		require.NoError(t, err)
		seen := map[int]bool{}
		for _, i := range append(append([]int{}, split.Train...), split.Test...) {
			assert.False(t, seen[i])
			seen[i] = true
		}
		assert.Len(t, seen, len(labels))
	})

	t.Run("needs two classes", func(t *testing.T) {
		_, err := service.StratifiedSplit([]int{0, 0, 0}, 0.2, 42)
		assert.Error(t, err)
	})

	t.Run("rejects invalid fractions", func(t *testing.T) {
		_, err := service.StratifiedSplit(labels, 1, 42)
		assert.Error(t, err)
	})
}

func TestEvaluate(t *testing.T) {
	yTrue := []int{0, 0, 0, 1, 1}
	yPred := []int{0, 0, 1, 1, 0}

	report, err := service.Evaluate(yTrue, yPred, valueobject.DefaultLabelPolarity)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, report.Accuracy, 1e-12)
	assert.InDelta(t, 0.5, report.F1, 1e-12)
	require.Len(t, report.Classes, 2)
	assert.Equal(t, "Fully Paid", report.Classes[0].Label)
	assert.Equal(t, 3, report.Classes[0].Support)
	assert.Equal(t, "Charged Off", report.Classes[1].Label)
	assert.Equal(t, 2, report.Classes[1].Support)

	_, err = service.Evaluate(yTrue, yPred[:2], valueobject.DefaultLabelPolarity)
	assert.Error(t, err)
}

func TestBinaryPredictions(t *testing.T) {
	assert.Equal(t, []int{0, 1, 1}, service.BinaryPredictions([]float64{0.1, 0.5, 0.9}, 0.5))
}

func TestEncodeLabels(t *testing.T) {
	t.Run("maps polarity", func(t *testing.T) {
		got, err := service.EncodeLabels([]string{"Fully Paid", "Charged Off", " Fully Paid"}, valueobject.DefaultLabelPolarity)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 0}, got)
	})

	t.Run("lists unmapped labels once", func(t *testing.T) {
		_, err := service.EncodeLabels([]string{"Current", "Fully Paid", "Late", "Current"}, valueobject.DefaultLabelPolarity)

		var lerr *model.LabelMappingError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, []string{"Current", "Late"}, lerr.Labels)
		assert.Equal(t, model.TargetColumn, lerr.Column)
	})
}

func TestDescribe(t *testing.T) {
	schema := model.DefaultSchema()
	rows := []model.PreparedRow{
		{model.NumberValue(1000), model.NumberValue(36), model.NumberValue(50000), model.NumberValue(700), model.NumberValue(10)},
		{model.NumberValue(3000), model.NumberValue(60), model.MissingValue(), model.NumberValue(680), model.NumberValue(20)},
	}

	summary := service.Describe(schema, rows, []int{0, 1})
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 1, summary.ClassCounts[0])
	assert.Equal(t, 1, summary.ClassCounts[1])
	require.Len(t, summary.Features, 5)

	amount := summary.Features[0]
	assert.Equal(t, "loan_amnt", amount.Name)
	assert.Equal(t, 2000.0, amount.Mean)
	assert.Equal(t, 1000.0, amount.Min)
	assert.Equal(t, 3000.0, amount.Max)

	income := summary.Features[2]
	assert.Equal(t, 1, income.Count)
	assert.Equal(t, 1, income.Missing)
}
