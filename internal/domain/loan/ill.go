package loan

import (
	"database/sql"

	"circulation_recall_daemon/internal/domain/recall"
)

// ILLStatus is the state of an inter-library loan request.
type ILLStatus string

const (
	ILLStatusNew       ILLStatus = "new"
	ILLStatusRequested ILLStatus = "requested"
	ILLStatusOnLoan    ILLStatus = "on loan"
	ILLStatusReturned  ILLStatus = "returned"
	ILLStatusReceived  ILLStatus = "received"
	ILLStatusCancelled ILLStatus = "cancelled"
)

// Request types that are recalled when overdue. Purchases and proposals share the
// table but are never lent out.
const (
	ILLTypeBook    = "book"
	ILLTypeArticle = "article"
)

// ILLRequest is a document borrowed from another library on behalf of a borrower.
type ILLRequest struct {
	ID                  int64
	BorrowerID          int64
	LibraryID           sql.NullInt64
	Status              ILLStatus
	RequestType         string
	DueDate             sql.NullTime
	ItemInfo            string // raw versioned JSON, see ParseItemInfo
	OverdueLetterNumber int
	OverdueLetterDate   string
}

func (r *ILLRequest) RecallState() recall.State {
	return recall.State{
		Count:          r.OverdueLetterNumber,
		LastLetterDate: r.OverdueLetterDate,
		Expired:        r.Status == ILLStatusOnLoan,
	}
}
