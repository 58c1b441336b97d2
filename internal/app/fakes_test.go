package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"circulation_recall_daemon/internal/domain/borrower"
	"circulation_recall_daemon/internal/domain/item"
	"circulation_recall_daemon/internal/domain/loan"
	"circulation_recall_daemon/internal/domain/recall"
	"circulation_recall_daemon/internal/domain/request"
	"circulation_recall_daemon/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func testLogger() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

type fakeLoanRepo struct {
	mu         sync.Mutex
	loans      map[int64]*loan.Loan
	order      []int64
	listErr    error
	recordErr  map[int64]error
	expireErr  error
	recorded   []int64
	onRecord   func(id int64)
	renewedDue map[int64]time.Time
	// honourCtx makes writes fail on a done context like the Postgres repository.
	honourCtx bool
	listCtx   context.Context
}

func newFakeLoanRepo(loans ...*loan.Loan) *fakeLoanRepo {
	r := &fakeLoanRepo{loans: map[int64]*loan.Loan{}, recordErr: map[int64]error{}, renewedDue: map[int64]time.Time{}}
	for _, l := range loans {
		r.loans[l.ID] = l
		r.order = append(r.order, l.ID)
	}
	return r
}

func (r *fakeLoanRepo) ListOverdue(ctx context.Context, today time.Time) ([]*loan.Loan, error) {
	r.listCtx = ctx
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*loan.Loan
	for _, id := range r.order {
		l := r.loans[id]
		if l.Status == loan.StatusExpired || (l.Status == loan.StatusOnLoan && l.DueDate.Valid && l.DueDate.Time.Before(recall.DateOnly(today))) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) MarkExpired(ctx context.Context, id int64) error {
	if r.honourCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if r.expireErr != nil {
		return r.expireErr
	}
	r.loans[id].Status = loan.StatusExpired
	return nil
}

func (r *fakeLoanRepo) RecordRecallLetter(ctx context.Context, id int64, sentOn time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onRecord != nil {
		r.onRecord(id)
	}
	if r.honourCtx && ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err := r.recordErr[id]; err != nil {
		return 0, err
	}
	l, ok := r.loans[id]
	if !ok {
		return 0, database.ErrLoanNotFound
	}
	l.OverdueLetterNumber++
	l.OverdueLetterDate = sentOn.Format(recall.DateLayout)
	r.recorded = append(r.recorded, id)
	return l.OverdueLetterNumber, nil
}

func (r *fakeLoanRepo) GetActiveByBarcode(_ context.Context, barcode string) (*loan.Loan, error) {
	for _, id := range r.order {
		if l := r.loans[id]; l.Barcode == barcode && l.Active() {
			cp := *l
			return &cp, nil
		}
	}
	return nil, database.ErrLoanNotFound
}

func (r *fakeLoanRepo) Renew(_ context.Context, id int64, due time.Time) error {
	l, ok := r.loans[id]
	if !ok {
		return database.ErrLoanNotFound
	}
	l.DueDate.Time, l.DueDate.Valid = due, true
	l.NumberOfRenewals++
	l.Status = loan.StatusOnLoan
	r.renewedDue[id] = due
	return nil
}

func (r *fakeLoanRepo) CountOverdue(ctx context.Context, today time.Time) (int, error) {
	loans, err := r.ListOverdue(ctx, today)
	return len(loans), err
}

type fakeILLRepo struct {
	requests []*loan.ILLRequest
	listErr  error
	recorded []int64
}

func (r *fakeILLRepo) ListOverdue(context.Context, time.Time) ([]*loan.ILLRequest, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.requests, nil
}

func (r *fakeILLRepo) RecordRecallLetter(_ context.Context, id int64, sentOn time.Time) (int, error) {
	for _, req := range r.requests {
		if req.ID == id {
			req.OverdueLetterNumber++
			req.OverdueLetterDate = sentOn.Format(recall.DateLayout)
			r.recorded = append(r.recorded, id)
			return req.OverdueLetterNumber, nil
		}
	}
	return 0, database.ErrILLRequestNotFound
}

type fakeBorrowerRepo struct {
	borrowers map[int64]*borrower.Borrower
	updateErr error
	updated   []int64
}

func newFakeBorrowerRepo(bs ...*borrower.Borrower) *fakeBorrowerRepo {
	r := &fakeBorrowerRepo{borrowers: map[int64]*borrower.Borrower{}}
	for _, b := range bs {
		r.borrowers[b.ID] = b
	}
	return r
}

func (r *fakeBorrowerRepo) GetByID(_ context.Context, id int64) (*borrower.Borrower, error) {
	b, ok := r.borrowers[id]
	if !ok {
		return nil, database.ErrBorrowerNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBorrowerRepo) ListWithCCID(context.Context) ([]*borrower.Borrower, error) {
	var out []*borrower.Borrower
	for _, b := range r.borrowers {
		if b.CCID.Valid {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBorrowerRepo) Update(_ context.Context, b *borrower.Borrower) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := *b
	r.borrowers[b.ID] = &cp
	r.updated = append(r.updated, b.ID)
	return nil
}

type fakeItemRepo struct {
	items map[string]*item.Item
	err   error
}

func newFakeItemRepo(items ...*item.Item) *fakeItemRepo {
	r := &fakeItemRepo{items: map[string]*item.Item{}}
	for _, it := range items {
		r.items[it.Barcode] = it
	}
	return r
}

func (r *fakeItemRepo) GetByBarcode(_ context.Context, barcode string) (*item.Item, error) {
	if r.err != nil {
		return nil, r.err
	}
	it, ok := r.items[barcode]
	if !ok {
		return nil, database.ErrItemNotFound
	}
	return it, nil
}

func (r *fakeItemRepo) ListCopies(_ context.Context, recordID int64, description string) ([]*item.Item, error) {
	var out []*item.Item
	for _, it := range r.items {
		if it.RecordID == recordID && it.Description == description {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeRequestRepo struct {
	requests []*request.HoldRequest
	items    *fakeItemRepo
}

func (r *fakeRequestRepo) ListQueuedBarcodes(context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, q := range r.requests {
		if (q.Status == request.StatusPending || q.Status == request.StatusWaiting) && !seen[q.Barcode] {
			seen[q.Barcode] = true
			out = append(out, q.Barcode)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeRequestRepo) List(_ context.Context, recordID int64, description string, status request.Status) ([]*request.HoldRequest, error) {
	var out []*request.HoldRequest
	for _, q := range r.requests {
		it := r.items.items[q.Barcode]
		if q.RecordID == recordID && it != nil && it.Description == description && q.Status == status {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return older(out[i], out[j]) })
	return out, nil
}

func (r *fakeRequestRepo) UpdateStatus(_ context.Context, id int64, status request.Status) error {
	for _, q := range r.requests {
		if q.ID == id {
			q.Status = status
			return nil
		}
	}
	return database.ErrRequestNotFound
}

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

type fakeSender struct {
	sent   []sentMail
	fail   map[string]error
	onSend func()
}

func (s *fakeSender) Send(to []string, subject, body string) error {
	if s.onSend != nil {
		s.onSend()
	}
	if s.fail != nil {
		if err := s.fail[to[0]]; err != nil {
			return err
		}
	}
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeDirectory struct {
	entries map[string]*borrower.Entry
	err     error
}

func (d *fakeDirectory) Lookup(_ context.Context, ccid string) (*borrower.Entry, error) {
	if d.err != nil {
		return nil, d.err
	}
	e, ok := d.entries[ccid]
	if !ok {
		return nil, borrower.ErrNotInDirectory
	}
	return e, nil
}

var errBoom = errors.New("boom")
