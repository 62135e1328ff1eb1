package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-approval/internal/application/dto"
	"github.com/bibbank/loan-approval/internal/application/usecase"
	"github.com/bibbank/loan-approval/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// LoanHandler serves the decision endpoints.
type LoanHandler struct {
	predict    *usecase.PredictLoan
	computeDTI *usecase.ComputeDTI
	logger     *slog.Logger
}

// NewLoanHandler creates the handler.
func NewLoanHandler(predict *usecase.PredictLoan, computeDTI *usecase.ComputeDTI, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{predict: predict, computeDTI: computeDTI, logger: logger}
}

// RegisterRoutes attaches the decision routes to the given mux.
func (h *LoanHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("POST /api/compute-dti", h.handleComputeDTI)
}

// predictBody distinguishes absent fields from zero values.
type predictBody struct {
	LoanAmount   *decimal.Decimal `json:"loan_amnt"`
	Term         json.RawMessage  `json:"term"`
	AnnualIncome *decimal.Decimal `json:"annual_inc"`
	FICORangeLow *int             `json:"fico_range_low"`
	DTI          *decimal.Decimal `json:"dti"`
}

func (b predictBody) toRequest() (dto.PredictRequest, error) {
	verr := &model.ValidationError{}
	if b.LoanAmount == nil {
		verr.Add("loan_amnt", "is required")
	}
	term, present, err := decodeTerm(b.Term)
	if err != nil {
		return dto.PredictRequest{}, err
	}
	if !present {
		verr.Add("term", "is required")
	}
	if b.AnnualIncome == nil {
		verr.Add("annual_inc", "is required")
	}
	if b.FICORangeLow == nil {
		verr.Add("fico_range_low", "is required")
	}
	if b.DTI == nil {
		verr.Add("dti", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return dto.PredictRequest{}, err
	}

	return dto.PredictRequest{
		LoanAmount:   *b.LoanAmount,
		Term:         term,
		AnnualIncome: *b.AnnualIncome,
		FICORangeLow: *b.FICORangeLow,
		DTI:          *b.DTI,
	}, nil
}

// decodeTerm accepts "36 months" or a bare month count.
func decodeTerm(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true, nil
	}
	var months int
	if err := json.Unmarshal(raw, &months); err == nil && months > 0 {
		return strconv.Itoa(months) + " months", true, nil
	}
	return "", true, &model.TypeConversionError{Field: "term", Value: string(raw), Kind: model.KindTerm}
}

type computeDTIBody struct {
	AnnualIncome       *decimal.Decimal `json:"annual_inc"`
	MonthlyDebtPayment *decimal.Decimal `json:"monthly_debt_payment"`
}

func (h *LoanHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body predictBody
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	resp, err := h.predict.Execute(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	w.Header().Set("X-Model-Version", resp.ModelVersion)
	writeJSON(w, http.StatusOK, resp)
}

func (h *LoanHandler) handleComputeDTI(w http.ResponseWriter, r *http.Request) {
	var body computeDTIBody
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	verr := &model.ValidationError{}
	if body.AnnualIncome == nil {
		verr.Add("annual_inc", "is required")
	}
	if body.MonthlyDebtPayment == nil {
		verr.Add("monthly_debt_payment", "is required")
	}
	if err := verr.OrNil(); err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	resp, err := h.computeDTI.Execute(r.Context(), dto.ComputeDTIRequest{
		AnnualIncome:       *body.AnnualIncome,
		MonthlyDebtPayment: *body.MonthlyDebtPayment,
	})
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody reads one JSON object and rejects unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
