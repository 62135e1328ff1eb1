package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-approval/internal/domain/model"
)

var monthsTimesPercent = decimal.NewFromInt(1200)

// ComputeDTI returns monthly debt as a percentage of monthly income, rounded to two decimals.
//
//	dti = monthlyDebt / (annualIncome / 12) * 100
func ComputeDTI(annualIncome, monthlyDebt decimal.Decimal) (decimal.Decimal, error) {
	verr := &model.ValidationError{}
	if model.CheckDecimal(verr, "annual_inc", annualIncome) && !annualIncome.IsPositive() {
		verr.Add("annual_inc", "must be greater than 0")
	}
	if model.CheckDecimal(verr, "monthly_debt_payment", monthlyDebt) && monthlyDebt.IsNegative() {
		verr.Add("monthly_debt_payment", "must be greater than or equal to 0")
	}
	if err := verr.OrNil(); err != nil {
		return decimal.Decimal{}, err
	}

	dti := monthlyDebt.Mul(monthsTimesPercent).Div(annualIncome).Round(2)
	if f := dti.InexactFloat64(); math.IsNaN(f) || math.IsInf(f, 0) {
		verr.Add("monthly_debt_payment", "produces a ratio out of range")
		return decimal.Decimal{}, verr
	}
	return dti, nil
}
