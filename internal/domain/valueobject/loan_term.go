package valueobject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidTerm is returned when a term string carries no leading month count.
var ErrInvalidTerm = errors.New("term must start with a month count")

// LoanTerm is the repayment period of a loan in whole months.
type LoanTerm struct {
	months int
}

// NewLoanTerm creates a LoanTerm from a month count.
func NewLoanTerm(months int) (LoanTerm, error) {
	if months <= 0 {
		return LoanTerm{}, fmt.Errorf("%w: got %d", ErrInvalidTerm, months)
	}
	return LoanTerm{months: months}, nil
}

// ParseLoanTerm extracts the leading integer token from strings such as
// "36 months" or " 60 months".
func ParseLoanTerm(s string) (LoanTerm, error) {
	trimmed := strings.TrimSpace(s)
	end := 0
	for end < len(trimmed) && unicode.IsDigit(rune(trimmed[end])) {
		end++
	}
	if end == 0 {
		return LoanTerm{}, fmt.Errorf("%w: %q", ErrInvalidTerm, s)
	}

	months, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return LoanTerm{}, fmt.Errorf("%w: %q", ErrInvalidTerm, s)
	}
	return NewLoanTerm(months)
}

// Months returns the number of months.
func (t LoanTerm) Months() int { return t.months }

// IsZero returns true if the term has not been initialised.
func (t LoanTerm) IsZero() bool { return t.months == 0 }

// String renders the term the way the loan book writes it.
func (t LoanTerm) String() string {
	return fmt.Sprintf("%d months", t.months)
}
