package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FICO bounds accepted at the boundary.
const (
	MinFICO = 300
	MaxFICO = 850
)

// ApplicationFields are the loan book columns Raw populates.
var ApplicationFields = []string{"loan_amnt", "term", "annual_inc", "fico_range_low", "dti"}

// LoanApplication is a validated applicant record ready for feature preparation.
type LoanApplication struct {
	loanAmount   decimal.Decimal
	term         string
	annualIncome decimal.Decimal
	ficoRangeLow int
	dti          decimal.Decimal
}

// NewLoanApplication validates all fields at once and returns a *ValidationError
// listing every failure.
func NewLoanApplication(
	loanAmount decimal.Decimal,
	term string,
	annualIncome decimal.Decimal,
	ficoRangeLow int,
	dti decimal.Decimal,
) (*LoanApplication, error) {
	verr := &ValidationError{}

	if CheckDecimal(verr, "loan_amnt", loanAmount) && !positive(loanAmount) {
		verr.Add("loan_amnt", "must be greater than 0")
	}
	if strings.TrimSpace(term) == "" {
		verr.Add("term", "is required")
	}
	if CheckDecimal(verr, "annual_inc", annualIncome) && !positive(annualIncome) {
		verr.Add("annual_inc", "must be greater than 0")
	}
	if ficoRangeLow < MinFICO || ficoRangeLow > MaxFICO {
		verr.Add("fico_range_low", "must be between 300 and 850")
	}
	if CheckDecimal(verr, "dti", dti) && (dti.IsNegative() || !finite(dti.InexactFloat64())) {
		verr.Add("dti", "must be greater than or equal to 0")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return &LoanApplication{
		loanAmount:   loanAmount,
		term:         term,
		annualIncome: annualIncome,
		ficoRangeLow: ficoRangeLow,
		dti:          dti,
	}, nil
}

// positive checks the decimal and the float the model will see.
func positive(d decimal.Decimal) bool {
	f := d.InexactFloat64()
	return d.IsPositive() && f > 0 && finite(f)
}

func (a *LoanApplication) LoanAmount() decimal.Decimal { return a.loanAmount }
func (a *LoanApplication) Term() string { return a.term }
func (a *LoanApplication) AnnualIncome() decimal.Decimal { return a.annualIncome }
func (a *LoanApplication) FICORangeLow() int { return a.ficoRangeLow }
func (a *LoanApplication) DTI() decimal.Decimal { return a.dti }

// Raw exposes the application under the loan book's column names.
func (a *LoanApplication) Raw() RawApplication {
	return RawApplication{
		"loan_amnt":      a.loanAmount.InexactFloat64(),
		"term":           a.term,
		"annual_inc":     a.annualIncome.InexactFloat64(),
		"fico_range_low": a.ficoRangeLow,
		"dti":            a.dti.InexactFloat64(),
	}
}
