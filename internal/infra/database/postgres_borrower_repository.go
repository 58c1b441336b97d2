package database

import (
	"context"
	"database/sql"
	"fmt"

	"circulation_recall_daemon/internal/domain/borrower"
)

type PostgresBorrowerRepository struct {
	db *sql.DB
}

func NewPostgresBorrowerRepository(db *sql.DB) *PostgresBorrowerRepository {
	return &PostgresBorrowerRepository{db: db}
}

const borrowerColumns = `id, ccid, name, email, phone, address, mailbox, notes, created_at, updated_at`

func scanBorrower(row rowScanner) (*borrower.Borrower, error) {
	b := &borrower.Borrower{}
	err := row.Scan(&b.ID, &b.CCID, &b.Name, &b.Email, &b.Phone, &b.Address, &b.Mailbox,
		&b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PostgresBorrowerRepository) GetByID(ctx context.Context, id int64) (*borrower.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM crc_borrowers WHERE id = $1`
	b, err := scanBorrower(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBorrowerNotFound
		}
		return nil, fmt.Errorf("error getting borrower by ID: %w", err)
	}
	return b, nil
}

func (r *PostgresBorrowerRepository) ListWithCCID(ctx context.Context) ([]*borrower.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM crc_borrowers
              WHERE ccid IS NOT NULL AND ccid <> '' ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing borrowers with ccid: %w", err)
	}
	defer rows.Close()

	var borrowers []*borrower.Borrower
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning borrower: %w", err)
		}
		borrowers = append(borrowers, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating borrowers: %w", err)
	}
	return borrowers, nil
}

func (r *PostgresBorrowerRepository) Update(ctx context.Context, b *borrower.Borrower) error {
	query := `UPDATE crc_borrowers
              SET name = $1, email = $2, phone = $3, address = $4, mailbox = $5, updated_at = NOW()
              WHERE id = $6
              RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, b.Name, b.Email, b.Phone, b.Address, b.Mailbox, b.ID).Scan(&b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrBorrowerNotFound
		}
		return fmt.Errorf("error updating borrower %d: %w", b.ID, err)
	}
	return nil
}
