package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pkgpostgres "github.com/bibbank/loan-approval/pkg/postgres"
)

// LoanRecord is one row of the loan_records table. Nil fields are stored as NULL.
type LoanRecord struct {
	LoanAmnt     *string
	Term         *string
	AnnualInc    *string
	FICORangeLow *int
	DTI          *string
	LoanStatus   string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// SyntheticLoanRecords returns n complete records alternating between
// "Fully Paid" and "Charged Off".
func SyntheticLoanRecords(n int) []LoanRecord {
	records := make([]LoanRecord, n)
	for i := range records {
		status := "Fully Paid"
		term := " 36 months"
		if i%2 == 1 {
			status = "Charged Off"
			term = " 60 months"
		}
		records[i] = LoanRecord{
			LoanAmnt:     Ptr(fmt.Sprintf("%d.00", 5000+500*i)),
			Term:         Ptr(term),
			AnnualInc:    Ptr(fmt.Sprintf("%d.00", 40000+1500*i)),
			FICORangeLow: Ptr(660 + 2*i),
			DTI:          Ptr(fmt.Sprintf("%d.50", 5+i%30)),
			LoanStatus:   status,
		}
	}
	return records
}

// SeedLoanRecords inserts records into loan_records in a single transaction.
func SeedLoanRecords(ctx context.Context, t *testing.T, pool *pgxpool.Pool, records []LoanRecord) {
	t.Helper()

	err := pkgpostgres.WithTransaction(ctx, pool, func(tx pgx.Tx) error {
		for _, r := range records {
			if _, err := tx.Exec(ctx, `
				INSERT INTO loan_records (loan_amnt, term, annual_inc, fico_range_low, dti, loan_status)
				VALUES ($1::numeric, $2, $3::numeric, $4, $5::numeric, $6)`,
				r.LoanAmnt, r.Term, r.AnnualInc, r.FICORangeLow, r.DTI, r.LoanStatus,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed loan records: %v", err)
	}
}
