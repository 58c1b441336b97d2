// internal/domain/item/item.go
package item

import "context"

// Status of a physical copy. Corresponds to crc_items.status.
type Status string

const (
	StatusOnShelf     Status = "on shelf"
	StatusOnLoan      Status = "on loan"
	StatusInProcess   Status = "in process"
	StatusUnderReview Status = "under review"
	StatusCancelled   Status = "cancelled"
	StatusNotArrived  Status = "not arrived"
	StatusOnOrder     Status = "on order"
	StatusClaimed     Status = "claimed"
	StatusMissing     Status = "missing"
)

// Loan periods as stored on the copy.
const (
	LoanPeriodFourWeeks = "4 weeks"
	LoanPeriodOneWeek   = "1 week"
	LoanPeriodReference = "Reference"
)

// Item is one copy of a bibliographic record together with the descriptive
// fields printed in recall letters.
type Item struct {
	Barcode     string
	RecordID    int64
	LibraryID   int64
	Description string // volume/issue, distinguishes copies that are not interchangeable
	LoanPeriod  string
	Status      Status
	Title       string
	Author      string
	Year        string
	ISBN        string
	Publisher   string
}

// Available reports whether the copy can satisfy a hold request right now.
func (i *Item) Available() bool {
	return i.Status == StatusOnShelf || i.Status == StatusInProcess
}

type Repository interface {
	GetByBarcode(ctx context.Context, barcode string) (*Item, error)
	// ListCopies returns all copies of a record sharing the same description.
	ListCopies(ctx context.Context, recordID int64, description string) ([]*Item, error)
}
