package app

import (
	"context"
	"testing"
	"time"

	"circulation_recall_daemon/internal/domain/calendar"
	"circulation_recall_daemon/internal/domain/item"
	"circulation_recall_daemon/internal/domain/loan"
	"circulation_recall_daemon/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	report database.ConsistencyReport
	err    error
}

func (c *fakeChecker) Check(context.Context, time.Time) (database.ConsistencyReport, error) {
	return c.report, c.err
}

func newLoanService(t *testing.T, loans *fakeLoanRepo, items *fakeItemRepo, checker ConsistencyChecker) *LoanService {
	t.Helper()
	cal, err := calendar.New(calendar.DefaultWorkingDays, []string{"2024-04-22"})
	require.NoError(t, err)
	return NewLoanService(loans, items, cal, checker, testLogger())
}

func TestLoanService_Renew(t *testing.T) {
	loans := newFakeLoanRepo(
		&loan.Loan{ID: 1, Barcode: "B1", DueDate: dueOn("2024-03-01"), Status: loan.StatusExpired,
			OverdueLetterNumber: 2, OverdueLetterDate: "2024-03-15"},
		&loan.Loan{ID: 2, Barcode: "REF", DueDate: dueOn("2024-03-01"), Status: loan.StatusOnLoan},
	)
	items := newFakeItemRepo(
		&item.Item{Barcode: "B1", LoanPeriod: item.LoanPeriodFourWeeks},
		&item.Item{Barcode: "REF", LoanPeriod: item.LoanPeriodReference},
	)
	svc := newLoanService(t, loans, items, &fakeChecker{})

	// 2024-03-23 + 30 days is Monday 2024-04-22, a holiday.
	renewed, err := svc.Renew(context.Background(), "B1", time.Date(2024, 3, 23, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-04-23", renewed.DueDate.Time.Format("2006-01-02"))
	assert.Equal(t, loan.StatusOnLoan, loans.loans[1].Status)
	assert.Equal(t, 1, loans.loans[1].NumberOfRenewals)
	assert.Equal(t, 2, loans.loans[1].OverdueLetterNumber, "renewal keeps the letter counter")

	_, err = svc.Renew(context.Background(), "REF", time.Now())
	assert.ErrorIs(t, err, ErrNotRenewable)

	_, err = svc.Renew(context.Background(), "NONE", time.Now())
	assert.ErrorIs(t, err, database.ErrLoanNotFound)
}

func TestLoanService_Check(t *testing.T) {
	loans := newFakeLoanRepo()
	want := database.ConsistencyReport{MultipleActiveLoans: 2}
	svc := newLoanService(t, loans, newFakeItemRepo(), &fakeChecker{report: want})

	got, err := svc.Check(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	svc = newLoanService(t, loans, newFakeItemRepo(), &fakeChecker{err: errBoom})
	_, err = svc.Check(context.Background(), time.Now())
	assert.ErrorIs(t, err, errBoom)
}
