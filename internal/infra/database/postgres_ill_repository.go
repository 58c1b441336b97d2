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

type PostgresILLRepository struct {
	db *sql.DB
}

func NewPostgresILLRepository(db *sql.DB) *PostgresILLRepository {
	return &PostgresILLRepository{db: db}
}

func (r *PostgresILLRepository) ListOverdue(ctx context.Context, today time.Time) ([]*loan.ILLRequest, error) {
	query := `SELECT id, borrower_id, library_id, status, request_type, due_date, item_info,
                     overdue_letter_number, COALESCE(to_char(overdue_letter_date, 'YYYY-MM-DD'), '')
              FROM crc_ill_requests
              WHERE status = $1 AND due_date < $2 AND request_type = ANY($3)
              ORDER BY due_date, id`
	rows, err := r.db.QueryContext(ctx, query, loan.ILLStatusOnLoan, recall.DateOnly(today),
		pq.Array([]string{loan.ILLTypeBook, loan.ILLTypeArticle}))
	if err != nil {
		return nil, fmt.Errorf("error listing overdue ILL requests: %w", err)
	}
	defer rows.Close()

	var requests []*loan.ILLRequest
	for rows.Next() {
		req := &loan.ILLRequest{}
		if err := rows.Scan(&req.ID, &req.BorrowerID, &req.LibraryID, &req.Status, &req.RequestType,
			&req.DueDate, &req.ItemInfo, &req.OverdueLetterNumber, &req.OverdueLetterDate); err != nil {
			return nil, fmt.Errorf("error scanning overdue ILL request: %w", err)
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue ILL requests: %w", err)
	}
	return requests, nil
}

func (r *PostgresILLRepository) RecordRecallLetter(ctx context.Context, illID int64, sentOn time.Time) (int, error) {
	query := `UPDATE crc_ill_requests
              SET overdue_letter_number = overdue_letter_number + 1, overdue_letter_date = $2
              WHERE id = $1
              RETURNING overdue_letter_number`
	var count int
	err := r.db.QueryRowContext(ctx, query, illID, recall.DateOnly(sentOn)).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrILLRequestNotFound
		}
		return 0, fmt.Errorf("error recording recall letter for ILL request %d: %w", illID, err)
	}
	return count, nil
}
