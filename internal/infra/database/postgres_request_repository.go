package database

import (
	"context"
	"database/sql"
	"fmt"

	"circulation_recall_daemon/internal/domain/request"

	"github.com/lib/pq"
)

type PostgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

func (r *PostgresRequestRepository) ListQueuedBarcodes(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT barcode FROM crc_loan_requests WHERE status = ANY($1) ORDER BY barcode`
	rows, err := r.db.QueryContext(ctx, query,
		pq.Array([]string{string(request.StatusPending), string(request.StatusWaiting)}))
	if err != nil {
		return nil, fmt.Errorf("error listing queued barcodes: %w", err)
	}
	defer rows.Close()

	var barcodes []string
	for rows.Next() {
		var barcode string
		if err := rows.Scan(&barcode); err != nil {
			return nil, fmt.Errorf("error scanning queued barcode: %w", err)
		}
		barcodes = append(barcodes, barcode)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queued barcodes: %w", err)
	}
	return barcodes, nil
}

func (r *PostgresRequestRepository) List(ctx context.Context, recordID int64, description string, status request.Status) ([]*request.HoldRequest, error) {
	query := `SELECT q.id, q.borrower_id, q.record_id, q.barcode, q.status, q.request_date
              FROM crc_loan_requests q
              JOIN crc_items i ON i.barcode = q.barcode
              WHERE q.record_id = $1 AND i.description = $2 AND q.status = $3
              ORDER BY q.request_date, q.id`
	rows, err := r.db.QueryContext(ctx, query, recordID, description, status)
	if err != nil {
		return nil, fmt.Errorf("error listing %s requests for record %d: %w", status, recordID, err)
	}
	defer rows.Close()

	var requests []*request.HoldRequest
	for rows.Next() {
		req := &request.HoldRequest{}
		if err := rows.Scan(&req.ID, &req.BorrowerID, &req.RecordID, &req.Barcode, &req.Status, &req.RequestDate); err != nil {
			return nil, fmt.Errorf("error scanning hold request: %w", err)
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hold requests: %w", err)
	}
	return requests, nil
}

func (r *PostgresRequestRepository) UpdateStatus(ctx context.Context, id int64, status request.Status) error {
	query := `UPDATE crc_loan_requests SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("error updating hold request %d: %w", id, err)
	}
	return expectOneRow(result, ErrRequestNotFound)
}
