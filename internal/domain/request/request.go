// internal/domain/request/request.go
package request

import (
	"context"
	"time"
)

// Status of a hold request in the queue for a record.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPending   Status = "pending"
	StatusProposed  Status = "proposed"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

// HoldRequest is a borrower waiting for any copy of a record.
type HoldRequest struct {
	ID          int64
	BorrowerID  int64
	RecordID    int64
	Barcode     string
	Status      Status
	RequestDate time.Time
}

type Repository interface {
	// ListQueuedBarcodes returns the barcodes that have pending or waiting requests.
	ListQueuedBarcodes(ctx context.Context) ([]string, error)
	// List returns the requests for a record/description with the given status, oldest first.
	List(ctx context.Context, recordID int64, description string, status Status) ([]*HoldRequest, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
