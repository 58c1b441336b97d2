package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"circulation_recall_daemon/internal/domain/loan"
	"circulation_recall_daemon/internal/domain/recall"

	"github.com/lib/pq"
)

// loanColumns is shared by every loan SELECT. The letter date is read back as text
// so that the recall policy sees exactly what is stored.
const loanColumns = `id, borrower_id, barcode, loaned_on, due_date, status, number_of_renewals,
	overdue_letter_number, COALESCE(to_char(overdue_letter_date, 'YYYY-MM-DD'), ''), notes`

type PostgresLoanRepository struct {
	db *sql.DB
}

func NewPostgresLoanRepository(db *sql.DB) *PostgresLoanRepository {
	return &PostgresLoanRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*loan.Loan, error) {
	l := &loan.Loan{}
	err := row.Scan(&l.ID, &l.BorrowerID, &l.Barcode, &l.LoanedOn, &l.DueDate, &l.Status,
		&l.NumberOfRenewals, &l.OverdueLetterNumber, &l.OverdueLetterDate, &l.Notes)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *PostgresLoanRepository) ListOverdue(ctx context.Context, today time.Time) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM crc_loans
              WHERE (status = $1 AND due_date < $2) OR status = $3
              ORDER BY due_date, id`
	rows, err := r.db.QueryContext(ctx, query, loan.StatusOnLoan, recall.DateOnly(today), loan.StatusExpired)
	if err != nil {
		return nil, fmt.Errorf("error listing overdue loans: %w", err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning overdue loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue loans: %w", err)
	}
	return loans, nil
}

func (r *PostgresLoanRepository) MarkExpired(ctx context.Context, loanID int64) error {
	query := `UPDATE crc_loans SET status = $2 WHERE id = $1 AND status = ANY($3)`
	result, err := r.db.ExecContext(ctx, query, loanID, loan.StatusExpired,
		pq.Array([]string{string(loan.StatusOnLoan), string(loan.StatusExpired)}))
	if err != nil {
		return fmt.Errorf("error marking loan %d expired: %w", loanID, err)
	}
	return expectOneRow(result, ErrLoanNotFound)
}

func (r *PostgresLoanRepository) RecordRecallLetter(ctx context.Context, loanID int64, sentOn time.Time) (int, error) {
	query := `UPDATE crc_loans
              SET overdue_letter_number = overdue_letter_number + 1, overdue_letter_date = $2
              WHERE id = $1
              RETURNING overdue_letter_number`
	var count int
	err := r.db.QueryRowContext(ctx, query, loanID, recall.DateOnly(sentOn)).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrLoanNotFound
		}
		return 0, fmt.Errorf("error recording recall letter for loan %d: %w", loanID, err)
	}
	return count, nil
}

func (r *PostgresLoanRepository) GetActiveByBarcode(ctx context.Context, barcode string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM crc_loans
              WHERE barcode = $1 AND status = ANY($2)
              ORDER BY loaned_on DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, barcode,
		pq.Array([]string{string(loan.StatusOnLoan), string(loan.StatusExpired)}))
	l, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("error getting active loan by barcode: %w", err)
	}
	return l, nil
}

func (r *PostgresLoanRepository) Renew(ctx context.Context, loanID int64, newDueDate time.Time) error {
	query := `UPDATE crc_loans
              SET due_date = $2, number_of_renewals = number_of_renewals + 1, status = $3
              WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, loanID, recall.DateOnly(newDueDate), loan.StatusOnLoan)
	if err != nil {
		return fmt.Errorf("error renewing loan %d: %w", loanID, err)
	}
	return expectOneRow(result, ErrLoanNotFound)
}

func (r *PostgresLoanRepository) CountOverdue(ctx context.Context, today time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM crc_loans WHERE (status = $1 AND due_date < $2) OR status = $3`
	var n int
	if err := r.db.QueryRowContext(ctx, query, loan.StatusOnLoan, recall.DateOnly(today), loan.StatusExpired).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting overdue loans: %w", err)
	}
	return n, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
