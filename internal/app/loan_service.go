package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circulation_recall_daemon/internal/domain/calendar"
	"circulation_recall_daemon/internal/domain/item"
	"circulation_recall_daemon/internal/domain/loan"
	"circulation_recall_daemon/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// ErrNotRenewable is returned for reference copies, which are never lent.
var ErrNotRenewable = errors.New("item cannot be renewed")

// ConsistencyChecker counts contradictory item and loan rows.
type ConsistencyChecker interface {
	Check(ctx context.Context, today time.Time) (database.ConsistencyReport, error)
}

type LoanService struct {
	loanRepo loan.Repository
	itemRepo item.Repository
	calendar *calendar.Calendar
	checker  ConsistencyChecker
	logger   *logrus.Entry
}

func NewLoanService(lr loan.Repository, ir item.Repository, cal *calendar.Calendar, checker ConsistencyChecker, logger *logrus.Entry) *LoanService {
	return &LoanService{
		loanRepo: lr,
		itemRepo: ir,
		calendar: cal,
		checker:  checker,
		logger:   logger,
	}
}

// Renew extends the active loan of a copy by its loan period, counted from today
// and moved off holidays. The overdue letter counter is kept.
func (s *LoanService) Renew(ctx context.Context, barcode string, today time.Time) (*loan.Loan, error) {
	l, err := s.loanRepo.GetActiveByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to find active loan for %s: %w", barcode, err)
	}
	it, err := s.itemRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", barcode, err)
	}
	if it.LoanPeriod == item.LoanPeriodReference {
		return nil, ErrNotRenewable
	}

	due := s.calendar.DueDate(today, calendar.LoanPeriodDays(it.LoanPeriod))
	if err := s.loanRepo.Renew(ctx, l.ID, due); err != nil {
		return nil, fmt.Errorf("failed to renew loan %d: %w", l.ID, err)
	}
	l.DueDate.Time, l.DueDate.Valid = due, true
	l.NumberOfRenewals++
	l.Status = loan.StatusOnLoan

	s.logger.WithFields(logrus.Fields{
		"loan_id":  l.ID,
		"barcode":  barcode,
		"due_date": due.Format("2006-01-02"),
	}).Info("Loan renewed")
	return l, nil
}

// Check runs the consistency report and logs any anomaly.
func (s *LoanService) Check(ctx context.Context, today time.Time) (database.ConsistencyReport, error) {
	report, err := s.checker.Check(ctx, today)
	if err != nil {
		return report, fmt.Errorf("consistency check failed: %w", err)
	}
	overdue, err := s.loanRepo.CountOverdue(ctx, today)
	if err != nil {
		return report, fmt.Errorf("failed to count overdue loans: %w", err)
	}
	log := s.logger.WithFields(logrus.Fields{
		"on_loan_unknown_status": report.OnLoanWithUnknownLoanStatus,
		"on_shelf_active_loan":   report.OnShelfWithActiveLoan,
		"multiple_active_loans":  report.MultipleActiveLoans,
		"expired_not_yet_due":    report.ExpiredNotYetDue,
		"overdue_loans":          overdue,
	})
	if report.Clean() {
		log.Info("Database is consistent")
	} else {
		log.Warn("Database inconsistencies found")
	}
	return report, nil
}
