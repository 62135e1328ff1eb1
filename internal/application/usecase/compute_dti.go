package usecase

import (
	"context"

	"github.com/bibbank/loan-approval/internal/application/dto"
	"github.com/bibbank/loan-approval/internal/domain/service"
)

// ComputeDTI derives a debt-to-income ratio for clients that only know the
// monthly debt payment.
type ComputeDTI struct{}

// NewComputeDTI creates the use case.
func NewComputeDTI() *ComputeDTI {
	return &ComputeDTI{}
}

// Execute returns the ratio in percent.
func (uc *ComputeDTI) Execute(_ context.Context, req dto.ComputeDTIRequest) (dto.ComputeDTIResponse, error) {
	dti, err := service.ComputeDTI(req.AnnualIncome, req.MonthlyDebtPayment)
	if err != nil {
		return dto.ComputeDTIResponse{}, err
	}
	return dto.ComputeDTIResponse{DTI: dti.InexactFloat64()}, nil
}
