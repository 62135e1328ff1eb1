package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-approval/internal/application/dto"
	"github.com/bibbank/loan-approval/internal/application/usecase"
	"github.com/bibbank/loan-approval/internal/domain/event"
	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/service"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
	"github.com/bibbank/loan-approval/pkg/auth"
)

func validPredictRequest() dto.PredictRequest {
	return dto.PredictRequest{
		LoanAmount:   decimal.NewFromInt(10000),
		Term:         "36 months",
		AnnualIncome: decimal.NewFromInt(60000),
		FICORangeLow: 700,
		DTI:          decimal.NewFromInt(15),
	}
}

func newPredictLoan(t *testing.T, m *mockModel, pub *mockEventPublisher) *usecase.PredictLoan {
	t.Helper()
	if m.meta.Version == "" {
		m.meta = model.ArtifactMetadata{Version: "v-test", Schema: model.DefaultSchema(), Target: model.TargetColumn}
	}
	threshold, err := valueobject.NewDecisionThreshold(valueobject.DefaultDecisionThreshold)
	require.NoError(t, err)

	uc, err := usecase.NewPredictLoan(m, service.NewDecisionPolicy(threshold), pub, discardLogger())
	require.NoError(t, err)
	return uc
}

func fixedProba(p float64) func([]model.PreparedRow) ([]float64, error) {
	return func(rows []model.PreparedRow) ([]float64, error) {
		return []float64{p}, nil
	}
}

func TestPredictLoan_Execute(t *testing.T) {
	tests := []struct {
		name           string
		probabilityBad float64
		wantResult     string
		wantConfidence float64
	}{
		{name: "low risk is approved", probabilityBad: 0.2, wantResult: "Approved", wantConfidence: 0.8},
		{name: "threshold itself is rejected", probabilityBad: 0.35, wantResult: "Rejected", wantConfidence: 0.35},
		{name: "high risk is rejected", probabilityBad: 0.9, wantResult: "Rejected", wantConfidence: 0.9},
		{name: "certain repayment", probabilityBad: 0, wantResult: "Approved", wantConfidence: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockModel{predictProbaFunc: fixedProba(tt.probabilityBad)}
			pub := &mockEventPublisher{}
			uc := newPredictLoan(t, m, pub)

			resp, err := uc.Execute(context.Background(), validPredictRequest())
			require.NoError(t, err)

			assert.Equal(t, tt.wantResult, resp.Result)
			assert.InDelta(t, tt.wantConfidence, resp.Probability, 1e-12)
			assert.Equal(t, tt.probabilityBad, resp.ProbabilityBad)
			assert.Equal(t, "v-test", resp.ModelVersion)
			assert.Equal(t, 0.35, resp.Threshold)

			require.Len(t, pub.publishedEvents, 1)
			evt, ok := pub.publishedEvents[0].(event.LoanDecisionMade)
			require.True(t, ok)
			assert.Equal(t, resp.PredictionID, evt.AggregateID())
			assert.Equal(t, tt.wantResult, evt.Decision)
		})
	}
}

func TestPredictLoan_PreparesRowInSchemaOrder(t *testing.T) {
	var got model.PreparedRow
	m := &mockModel{predictProbaFunc: func(rows []model.PreparedRow) ([]float64, error) {
		got = rows[0]
		return []float64{0.1}, nil
	}}
	uc := newPredictLoan(t, m, &mockEventPublisher{})

	_, err := uc.Execute(context.Background(), validPredictRequest())
	require.NoError(t, err)

	assert.Equal(t, model.PreparedRow{
		model.NumberValue(10000),
		model.NumberValue(36),
		model.NumberValue(60000),
		model.NumberValue(700),
		model.NumberValue(15),
	}, got)
}

func TestPredictLoan_ValidationError(t *testing.T) {
	m := &mockModel{}
	pub := &mockEventPublisher{}
	uc := newPredictLoan(t, m, pub)

	req := validPredictRequest()
	req.LoanAmount = decimal.Zero
	req.FICORangeLow = 900

	_, err := uc.Execute(context.Background(), req)
	require.Error(t, err)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Zero(t, m.calls, "invalid applications never reach the model")
	assert.Empty(t, pub.publishedEvents)
}

func TestPredictLoan_UnparsableTerm(t *testing.T) {
	uc := newPredictLoan(t, &mockModel{}, &mockEventPublisher{})

	req := validPredictRequest()
	req.Term = "three years"

	_, err := uc.Execute(context.Background(), req)
	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "term", perr.Field)
}

func TestPredictLoan_ModelFailure(t *testing.T) {
	tests := []struct {
		name  string
		proba func([]model.PreparedRow) ([]float64, error)
	}{
		{name: "pipeline error", proba: func([]model.PreparedRow) ([]float64, error) {
			return nil, errors.New("transform: unknown column")
		}},
		{name: "no score", proba: func([]model.PreparedRow) ([]float64, error) { return nil, nil }},
		{name: "probability out of range", proba: fixedProba(1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockEventPublisher{}
			uc := newPredictLoan(t, &mockModel{predictProbaFunc: tt.proba}, pub)

			_, err := uc.Execute(context.Background(), validPredictRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrDecisionUnavailable)
			assert.Empty(t, pub.publishedEvents)
		})
	}
}

func TestPredictLoan_PublishFailureDoesNotFailDecision(t *testing.T) {
	pub := &mockEventPublisher{publishFunc: func(context.Context, ...event.DomainEvent) error {
		return errors.New("broker unavailable")
	}}
	uc := newPredictLoan(t, &mockModel{predictProbaFunc: fixedProba(0.1)}, pub)

	resp, err := uc.Execute(context.Background(), validPredictRequest())
	require.NoError(t, err)
	assert.Equal(t, "Approved", resp.Result)
}

func TestPredictLoan_LogsCaller(t *testing.T) {
	threshold, err := valueobject.NewDecisionThreshold(valueobject.DefaultDecisionThreshold)
	require.NoError(t, err)
	m := &mockModel{
		meta:             model.ArtifactMetadata{Version: "v-test", Schema: model.DefaultSchema(), Target: model.TargetColumn},
		predictProbaFunc: fixedProba(0.1),
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	uc, err := usecase.NewPredictLoan(m, service.NewDecisionPolicy(threshold), &mockEventPublisher{}, logger)
	require.NoError(t, err)

	ctx := auth.ContextWithClaims(context.Background(), &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "loan-portal"},
	})
	_, err = uc.Execute(ctx, validPredictRequest())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"caller":"loan-portal"`)

	buf.Reset()
	_, err = uc.Execute(context.Background(), validPredictRequest())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"caller":"anonymous"`)
}

func TestNewPredictLoan_RejectsUnservableSchema(t *testing.T) {
	schema, err := model.NewFeatureSchema(append(model.DefaultSchema().Features,
		model.Feature{Name: "purpose", Kind: model.KindCategorical})...)
	require.NoError(t, err)

	threshold, err := valueobject.NewDecisionThreshold(0.35)
	require.NoError(t, err)

	m := &mockModel{meta: model.ArtifactMetadata{Version: "v-wide", Schema: schema, Target: model.TargetColumn}}
	_, err = usecase.NewPredictLoan(m, service.NewDecisionPolicy(threshold), &mockEventPublisher{}, discardLogger())

	var mismatch *model.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"purpose"}, mismatch.Missing)
}

func TestComputeDTI_Execute(t *testing.T) {
	uc := usecase.NewComputeDTI()

	resp, err := uc.Execute(context.Background(), dto.ComputeDTIRequest{
		AnnualIncome:       decimal.NewFromInt(60000),
		MonthlyDebtPayment: decimal.NewFromInt(750),
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, resp.DTI)

	_, err = uc.Execute(context.Background(), dto.ComputeDTIRequest{
		AnnualIncome:       decimal.Zero,
		MonthlyDebtPayment: decimal.NewFromInt(-1),
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}
