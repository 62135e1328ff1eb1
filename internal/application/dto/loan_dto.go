package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-approval/internal/domain/model"
)

// PredictRequest is the input DTO for the PredictLoan use case. Field names
// follow the loan book columns.
type PredictRequest struct {
	LoanAmount   decimal.Decimal `json:"loan_amnt"`
	AnnualIncome decimal.Decimal `json:"annual_inc"`
	DTI          decimal.Decimal `json:"dti"`
	Term         string          `json:"term"`
	FICORangeLow int             `json:"fico_range_low"`
}

// PredictResponse is the decision returned to callers. Only the first three
// fields are part of the public JSON contract.
type PredictResponse struct {
	Result         string  `json:"result"`
	Probability    float64 `json:"probability"`
	ProbabilityBad float64 `json:"probability_bad"`

	PredictionID uuid.UUID `json:"-"`
	ModelVersion string    `json:"-"`
	Threshold    float64   `json:"-"`
}

// FromPrediction maps a domain prediction to the response DTO.
func FromPrediction(p model.Prediction) PredictResponse {
	return PredictResponse{
		Result:         p.Decision.String(),
		Probability:    p.Confidence(),
		ProbabilityBad: p.ProbabilityBad,
		PredictionID:   p.ID,
		ModelVersion:   p.ModelVersion,
		Threshold:      p.Threshold,
	}
}

// ComputeDTIRequest is the input DTO for the ComputeDTI use case.
type ComputeDTIRequest struct {
	AnnualIncome       decimal.Decimal `json:"annual_inc"`
	MonthlyDebtPayment decimal.Decimal `json:"monthly_debt_payment"`
}

// ComputeDTIResponse carries the ratio in percent, rounded to two decimals.
type ComputeDTIResponse struct {
	DTI float64 `json:"dti"`
}

// TrainModelRequest is the input DTO for the TrainModel use case.
type TrainModelRequest struct {
	Schema       model.FeatureSchema
	Seed         int64
	TestFraction float64
}

// TrainModelResponse summarises a completed training run.
type TrainModelResponse struct {
	RunID        uuid.UUID              `json:"run_id"`
	ModelVersion string                 `json:"model_version"`
	ArtifactPath string                 `json:"artifact_path"`
	TrainRows    int                    `json:"train_rows"`
	TestRows     int                    `json:"test_rows"`
	Evaluation   model.EvaluationReport `json:"evaluation"`
	StartedAt    time.Time              `json:"started_at"`
	CompletedAt  time.Time              `json:"completed_at"`
}

// FromTrainingRun maps a completed run to the response DTO.
func FromTrainingRun(r *model.TrainingRun) TrainModelResponse {
	return TrainModelResponse{
		RunID:        r.ID(),
		ModelVersion: r.ModelVersion(),
		ArtifactPath: r.ArtifactPath(),
		TrainRows:    r.TrainRows(),
		TestRows:     r.TestRows(),
		Evaluation:   r.Evaluation(),
		StartedAt:    r.StartedAt(),
		CompletedAt:  r.CompletedAt(),
	}
}
