// internal/domain/loan/loan.go
package loan

import (
	"database/sql"
	"time"

	"circulation_recall_daemon/internal/domain/recall"
)

// Status of a loan row. Corresponds to crc_loans.status.
type Status string

const (
	StatusOnLoan   Status = "on loan"
	StatusExpired  Status = "expired"
	StatusReturned Status = "returned"
)

// Loan is a copy of an item lent to a borrower.
type Loan struct {
	ID                  int64
	BorrowerID          int64
	Barcode             string
	LoanedOn            time.Time
	DueDate             sql.NullTime
	Status              Status
	NumberOfRenewals    int
	OverdueLetterNumber int
	OverdueLetterDate   string // YYYY-MM-DD as stored, empty when no letter was sent yet
	Notes               sql.NullString
}

// RecallState derives the escalation input from the persisted row.
func (l *Loan) RecallState() recall.State {
	return recall.State{
		Count:          l.OverdueLetterNumber,
		LastLetterDate: l.OverdueLetterDate,
		Expired:        l.Status == StatusExpired,
	}
}

// Active reports whether the loan still counts against the item.
func (l *Loan) Active() bool {
	return l.Status == StatusOnLoan || l.Status == StatusExpired
}
