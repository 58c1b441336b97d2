package loan

import (
	"context"
	"time"
)

// Repository defines the operations on local loans used by the recall sweep and the CLI.
type Repository interface {
	// ListOverdue returns loans that are on loan with a due date before today, and
	// loans already flagged expired. Order is whatever storage returns.
	ListOverdue(ctx context.Context, today time.Time) ([]*Loan, error)
	// MarkExpired flags an on-loan row as expired.
	MarkExpired(ctx context.Context, loanID int64) error
	// RecordRecallLetter increments the overdue letter counter by one and sets the
	// letter date, in a single statement. It returns the new counter value.
	RecordRecallLetter(ctx context.Context, loanID int64, sentOn time.Time) (int, error)
	GetActiveByBarcode(ctx context.Context, barcode string) (*Loan, error)
	// Renew moves the due date, bumps number_of_renewals and sets the status back to on loan.
	// The overdue letter counter is left untouched.
	Renew(ctx context.Context, loanID int64, newDueDate time.Time) error
	CountOverdue(ctx context.Context, today time.Time) (int, error)
}

// ILLRepository defines the operations on inter-library loan requests used by the sweep.
type ILLRepository interface {
	// ListOverdue returns book and article requests on loan with a due date before today.
	ListOverdue(ctx context.Context, today time.Time) ([]*ILLRequest, error)
	RecordRecallLetter(ctx context.Context, illID int64, sentOn time.Time) (int, error)
}
