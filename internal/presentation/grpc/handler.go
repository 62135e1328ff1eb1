package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/loan-approval/internal/application/dto"
	"github.com/bibbank/loan-approval/internal/application/usecase"
	"github.com/bibbank/loan-approval/internal/domain/model"
)

// LoanDecisionHandler is the gRPC handler for decision operations.
type LoanDecisionHandler struct {
	UnimplementedLoanDecisionServiceServer

	predict    *usecase.PredictLoan
	computeDTI *usecase.ComputeDTI
	logger     *slog.Logger
}

// NewLoanDecisionHandler creates a new handler with all use-case dependencies.
func NewLoanDecisionHandler(predict *usecase.PredictLoan, computeDTI *usecase.ComputeDTI, logger *slog.Logger) *LoanDecisionHandler {
	return &LoanDecisionHandler{predict: predict, computeDTI: computeDTI, logger: logger}
}

// Predict scores one application.
func (h *LoanDecisionHandler) Predict(ctx context.Context, in *PredictRequest) (*PredictResponse, error) {
	verr := &model.ValidationError{}
	loanAmount, err := parseDecimal(verr, "loan_amnt", in.LoanAmnt)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	annualIncome, err := parseDecimal(verr, "annual_inc", in.AnnualInc)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	dti, err := parseDecimal(verr, "dti", in.Dti)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	if err := verr.OrNil(); err != nil {
		return nil, h.toStatus(ctx, err)
	}

	resp, err := h.predict.Execute(ctx, dto.PredictRequest{
		LoanAmount:   loanAmount,
		Term:         in.Term,
		AnnualIncome: annualIncome,
		FICORangeLow: int(in.FicoRangeLow),
		DTI:          dti,
	})
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}

	return &PredictResponse{
		Result:         resp.Result,
		Probability:    resp.Probability,
		ProbabilityBad: resp.ProbabilityBad,
		PredictionId:   resp.PredictionID.String(),
		ModelVersion:   resp.ModelVersion,
	}, nil
}

// ComputeDTI derives a debt-to-income ratio.
func (h *LoanDecisionHandler) ComputeDTI(ctx context.Context, in *ComputeDTIRequest) (*ComputeDTIResponse, error) {
	verr := &model.ValidationError{}
	annualIncome, err := parseDecimal(verr, "annual_inc", in.AnnualInc)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	monthlyDebt, err := parseDecimal(verr, "monthly_debt_payment", in.MonthlyDebtPayment)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	if err := verr.OrNil(); err != nil {
		return nil, h.toStatus(ctx, err)
	}

	resp, err := h.computeDTI.Execute(ctx, dto.ComputeDTIRequest{
		AnnualIncome:       annualIncome,
		MonthlyDebtPayment: monthlyDebt,
	})
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return &ComputeDTIResponse{Dti: resp.DTI}, nil
}

// parseDecimal records an empty value as a missing field and returns a
// *model.ParseError for malformed input.
func parseDecimal(verr *model.ValidationError, field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		verr.Add(field, "is required")
		return decimal.Decimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &model.ParseError{Field: field, Value: s, Err: err}
	}
	return d, nil
}

// toStatus maps application errors to gRPC status codes.
func (h *LoanDecisionHandler) toStatus(ctx context.Context, err error) error {
	var (
		verr *model.ValidationError
		perr *model.ParseError
		terr *model.TypeConversionError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &perr), errors.As(err, &terr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrDecisionUnavailable):
		h.logger.ErrorContext(ctx, "decision unavailable", "error", err)
		return status.Error(codes.Unavailable, "decision unavailable")
	default:
		h.logger.ErrorContext(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
