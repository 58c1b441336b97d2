package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"circulation_recall_daemon/internal/domain/recall"
)

// ConsistencyReport counts rows that contradict each other between items and loans.
type ConsistencyReport struct {
	OnLoanWithUnknownLoanStatus int
	OnShelfWithActiveLoan       int
	MultipleActiveLoans         int
	ExpiredNotYetDue            int
}

// Clean reports whether no anomaly was found.
func (c ConsistencyReport) Clean() bool {
	return c == ConsistencyReport{}
}

type ConsistencyChecker struct {
	db *sql.DB
}

func NewConsistencyChecker(db *sql.DB) *ConsistencyChecker {
	return &ConsistencyChecker{db: db}
}

func (c *ConsistencyChecker) Check(ctx context.Context, today time.Time) (ConsistencyReport, error) {
	var report ConsistencyReport
	checks := []struct {
		name  string
		query string
		args  []any
		dest  *int
	}{
		{
			name: "items on loan with unknown loan status",
			query: `SELECT COUNT(*) FROM crc_items i JOIN crc_loans l ON l.barcode = i.barcode
                    WHERE i.status = 'on loan' AND l.status NOT IN ('on loan', 'expired', 'returned')`,
			dest: &report.OnLoanWithUnknownLoanStatus,
		},
		{
			name: "items on shelf with an active loan",
			query: `SELECT COUNT(DISTINCT i.barcode) FROM crc_items i JOIN crc_loans l ON l.barcode = i.barcode
                    WHERE i.status = 'on shelf' AND l.status IN ('on loan', 'expired')`,
			dest: &report.OnShelfWithActiveLoan,
		},
		{
			name: "items with more than one active loan",
			query: `SELECT COUNT(*) FROM (SELECT barcode FROM crc_loans
                    WHERE status IN ('on loan', 'expired') GROUP BY barcode HAVING COUNT(*) > 1) dup`,
			dest: &report.MultipleActiveLoans,
		},
		{
			name:  "expired loans not yet due",
			query: `SELECT COUNT(*) FROM crc_loans WHERE status = 'expired' AND due_date >= $1`,
			args:  []any{recall.DateOnly(today)},
			dest:  &report.ExpiredNotYetDue,
		},
	}

	for _, check := range checks {
		if err := c.db.QueryRowContext(ctx, check.query, check.args...).Scan(check.dest); err != nil {
			return ConsistencyReport{}, fmt.Errorf("error counting %s: %w", check.name, err)
		}
	}
	return report, nil
}
