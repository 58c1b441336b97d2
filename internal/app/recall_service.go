// internal/app/recall_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"circulation_recall_daemon/internal/domain/borrower"
	"circulation_recall_daemon/internal/domain/item"
	"circulation_recall_daemon/internal/domain/loan"
	"circulation_recall_daemon/internal/domain/mailer"
	"circulation_recall_daemon/internal/domain/recall"
	"circulation_recall_daemon/internal/infra/mail"
	"circulation_recall_daemon/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlaceholderTitle is printed when the item description cannot be resolved.
const PlaceholderTitle = "(title unavailable)"

// rowTimeout bounds the work on a single row once it has started. A started row
// is not cancelled with the sweep so that a delivered letter is always recorded.
const rowTimeout = 30 * time.Second

// ErrNoEmail is recorded when a borrower has no address to send a letter to.
var ErrNoEmail = errors.New("borrower has no email address")

// LetterRenderer turns a template key and letter data into subject and body.
type LetterRenderer interface {
	Render(key string, letter mail.Letter) (string, string, error)
}

// Control lets the host stop a running sweep. The zero value is ready to use
// and a nil *Control never stops.
type Control struct {
	stop             atomic.Bool
	stopAfterCurrent atomic.Bool
}

// Stop asks the sweep to stop at the next batch checkpoint.
func (c *Control) Stop() { c.stop.Store(true) }

// StopAfterCurrent asks the sweep to stop as soon as the row in flight has
// finished its state update.
func (c *Control) StopAfterCurrent() { c.stopAfterCurrent.Store(true) }

func (c *Control) stopRequested() bool {
	return c != nil && c.stop.Load()
}

func (c *Control) stopAfterCurrentRequested() bool {
	return c != nil && c.stopAfterCurrent.Load()
}

// SweepReport summarises one sweep over loans or ILL requests.
type SweepReport struct {
	RunID               string
	Kind                recall.Kind
	Date                time.Time
	Total               int
	Processed           int
	Sent                int
	Skipped             int
	DeliveryFailures    int
	PersistenceFailures int
	TitleFallbacks      int
	Cancelled           int // rows not started because the sweep was cancelled
	Stopped             bool
	Duration            time.Duration
}

func (r SweepReport) String() string {
	s := fmt.Sprintf("%s sweep %s: processed %d of %d, sent %d, skipped %d, delivery failures %d, persistence failures %d, title fallbacks %d",
		r.Kind, r.Date.Format(recall.DateLayout), r.Processed, r.Total, r.Sent, r.Skipped,
		r.DeliveryFailures, r.PersistenceFailures, r.TitleFallbacks)
	if r.Cancelled > 0 {
		s += fmt.Sprintf(", not started after cancellation %d", r.Cancelled)
	}
	if r.Stopped {
		s += " (stopped)"
	}
	return s
}

// RecallService sends overdue recall letters for loans and ILL requests.
type RecallService struct {
	loanRepo     loan.Repository
	illRepo      loan.ILLRepository
	borrowerRepo borrower.Repository
	itemRepo     item.Repository
	renderer     LetterRenderer
	loanSender   mailer.Sender
	illSender    mailer.Sender
	batchSize    int
	logger       *logrus.Entry
}

func NewRecallService(
	lr loan.Repository,
	ir loan.ILLRepository,
	br borrower.Repository,
	itr item.Repository,
	renderer LetterRenderer,
	loanSender mailer.Sender,
	illSender mailer.Sender,
	batchSize int,
	logger *logrus.Entry,
) *RecallService {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &RecallService{
		loanRepo:     lr,
		illRepo:      ir,
		borrowerRepo: br,
		itemRepo:     itr,
		renderer:     renderer,
		loanSender:   loanSender,
		illSender:    illSender,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// recallRow is the part of a loan or ILL request the sweep works on.
type recallRow struct {
	id         int64
	borrowerID int64
	state      recall.State
	dueDate    sql.NullTime
	// prepare runs before the decision, used to flag on-loan rows as expired.
	prepare func(ctx context.Context) error
	item    func(ctx context.Context) (mail.ItemFields, error)
	record  func(ctx context.Context, sentOn time.Time) (int, error)
}

// SweepLoans sends recall letters for overdue local loans.
func (s *RecallService) SweepLoans(ctx context.Context, today time.Time, ctrl *Control) (SweepReport, error) {
	loans, err := s.loanRepo.ListOverdue(ctx, today)
	if err != nil {
		metrics.SweepRuns.WithLabelValues(string(recall.KindLoan), "failed").Inc()
		return SweepReport{Kind: recall.KindLoan, Date: recall.DateOnly(today)}, fmt.Errorf("failed to list overdue loans: %w", err)
	}

	rows := make([]recallRow, 0, len(loans))
	for _, l := range loans {
		row := recallRow{
			id:         l.ID,
			borrowerID: l.BorrowerID,
			state:      l.RecallState(),
			dueDate:    l.DueDate,
			item: func(ctx context.Context) (mail.ItemFields, error) {
				it, err := s.itemRepo.GetByBarcode(ctx, l.Barcode)
				if err != nil {
					return mail.ItemFields{}, err
				}
				return mail.ItemFields{Title: it.Title, Year: it.Year, Author: it.Author, ISBN: it.ISBN, Publisher: it.Publisher}, nil
			},
			record: func(ctx context.Context, sentOn time.Time) (int, error) {
				return s.loanRepo.RecordRecallLetter(ctx, l.ID, sentOn)
			},
		}
		if l.Status == loan.StatusOnLoan {
			row.prepare = func(ctx context.Context) error {
				return s.loanRepo.MarkExpired(ctx, l.ID)
			}
		}
		rows = append(rows, row)
	}
	return s.sweep(ctx, recall.KindLoan, rows, today, s.loanSender, ctrl)
}

// SweepILLs sends recall letters for overdue inter-library loans.
func (s *RecallService) SweepILLs(ctx context.Context, today time.Time, ctrl *Control) (SweepReport, error) {
	requests, err := s.illRepo.ListOverdue(ctx, today)
	if err != nil {
		metrics.SweepRuns.WithLabelValues(string(recall.KindILL), "failed").Inc()
		return SweepReport{Kind: recall.KindILL, Date: recall.DateOnly(today)}, fmt.Errorf("failed to list overdue ILL requests: %w", err)
	}

	rows := make([]recallRow, 0, len(requests))
	for _, r := range requests {
		rows = append(rows, recallRow{
			id:         r.ID,
			borrowerID: r.BorrowerID,
			state:      r.RecallState(),
			dueDate:    r.DueDate,
			item: func(context.Context) (mail.ItemFields, error) {
				info, err := loan.ParseItemInfo(r.ItemInfo)
				if err != nil {
					return mail.ItemFields{}, err
				}
				return mail.ItemFields{
					Title:     info.Get("title"),
					Year:      info.Get("year"),
					Author:    info.Get("author"),
					ISBN:      info.Get("isbn"),
					Publisher: info.Get("publisher"),
				}, nil
			},
			record: func(ctx context.Context, sentOn time.Time) (int, error) {
				return s.illRepo.RecordRecallLetter(ctx, r.ID, sentOn)
			},
		})
	}
	return s.sweep(ctx, recall.KindILL, rows, today, s.illSender, ctrl)
}

func (s *RecallService) sweep(ctx context.Context, kind recall.Kind, rows []recallRow, today time.Time, sender mailer.Sender, ctrl *Control) (SweepReport, error) {
	start := time.Now()
	report := SweepReport{
		RunID: uuid.NewString(),
		Kind:  kind,
		Date:  recall.DateOnly(today),
		Total: len(rows),
	}
	log := s.logger.WithFields(logrus.Fields{"run_id": report.RunID, "kind": kind})
	log.WithField("total", report.Total).Info("Starting recall sweep")

	var sweepErr error
	for i, row := range rows {
		if i > 0 && i%s.batchSize == 0 {
			log.Infof("Recall sweep progress: processed %d of %d", report.Processed, report.Total)
			if err := ctx.Err(); err != nil {
				log.WithError(err).Warn("Recall sweep cancelled at checkpoint")
				report.Stopped = true
				sweepErr = err
				break
			}
			if ctrl.stopRequested() {
				log.Warn("Recall sweep stopped at checkpoint")
				report.Stopped = true
				break
			}
		}

		if ctx.Err() != nil {
			report.Cancelled++
			continue
		}
		s.processRow(ctx, kind, row, today, sender, &report, log)
		report.Processed++

		if ctrl.stopAfterCurrentRequested() && report.Processed < report.Total {
			log.Warn("Recall sweep stopped after current row")
			report.Stopped = true
			break
		}
	}

	if report.Cancelled > 0 && sweepErr == nil {
		// cancelled within the last batch
		log.WithError(ctx.Err()).Warn("Recall sweep cancelled")
		report.Stopped = true
		sweepErr = ctx.Err()
	}

	report.Duration = time.Since(start)
	metrics.SweepDuration.WithLabelValues(string(kind)).Observe(report.Duration.Seconds())
	outcome := "ok"
	if report.Stopped {
		outcome = "stopped"
	}
	metrics.SweepRuns.WithLabelValues(string(kind), outcome).Inc()

	log.WithFields(logrus.Fields{
		"processed":            report.Processed,
		"total":                report.Total,
		"sent":                 report.Sent,
		"skipped":              report.Skipped,
		"delivery_failures":    report.DeliveryFailures,
		"persistence_failures": report.PersistenceFailures,
		"title_fallbacks":      report.TitleFallbacks,
		"cancelled":            report.Cancelled,
	}).Info("Recall sweep finished")
	return report, sweepErr
}

// processRow handles a single loan or ILL request. Failures are counted on the
// report and never returned.
func (s *RecallService) processRow(sweepCtx context.Context, kind recall.Kind, row recallRow, today time.Time, sender mailer.Sender, report *SweepReport, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(sweepCtx), rowTimeout)
	defer cancel()
	rowLog := log.WithField(string(kind)+"_id", row.id)

	if row.prepare != nil {
		if err := row.prepare(ctx); err != nil {
			rowLog.WithError(err).Error("Failed to flag row as expired")
			report.PersistenceFailures++
			metrics.RecallPersistenceFailures.WithLabelValues(string(kind)).Inc()
		}
	}

	tier := recall.DecideState(row.state, today)
	if tier == recall.TierNone {
		rowLog.WithFields(logrus.Fields{"count": row.state.Count, "last_letter_date": row.state.LastLetterDate}).
			Debug("No recall letter due")
		report.Skipped++
		return
	}
	rowLog = rowLog.WithField("tier", tier.String())

	b, err := s.borrowerRepo.GetByID(ctx, row.borrowerID)
	if err == nil && b.Email == "" {
		err = ErrNoEmail
	}
	if err != nil {
		rowLog.WithError(err).WithField("borrower_id", row.borrowerID).Error("Cannot address recall letter")
		s.deliveryFailed(kind, report)
		return
	}

	fields, err := row.item(ctx)
	if err != nil || fields.Title == "" {
		if err != nil {
			rowLog.WithError(err).Warn("Item details unavailable, using placeholder title")
		}
		fields.Title = PlaceholderTitle
		report.TitleFallbacks++
		metrics.RecallTitleFallbacks.WithLabelValues(string(kind)).Inc()
	}

	letter := mail.Letter{
		BorrowerName:    b.Name,
		Item:            fields,
		PreviousLetters: row.state.Count,
	}
	if row.dueDate.Valid {
		letter.DueDate = row.dueDate.Time.Format(recall.DateLayout)
	}
	subject, body, err := s.renderer.Render(tier.TemplateKey(kind), letter)
	if err != nil {
		rowLog.WithError(err).Error("Failed to render recall letter")
		s.deliveryFailed(kind, report)
		return
	}

	if err := sender.Send([]string{b.Email}, subject, body); err != nil {
		rowLog.WithError(err).Error("Failed to deliver recall letter, will retry next sweep")
		s.deliveryFailed(kind, report)
		return
	}

	count, err := row.record(ctx, today)
	if err != nil {
		rowLog.WithError(err).Error("Recall letter sent but counter update failed")
		report.PersistenceFailures++
		metrics.RecallPersistenceFailures.WithLabelValues(string(kind)).Inc()
		return
	}
	report.Sent++
	metrics.RecallLettersSent.WithLabelValues(string(kind), tier.String()).Inc()
	rowLog.WithField("letter_number", count).Info("Recall letter sent")
}

func (s *RecallService) deliveryFailed(kind recall.Kind, report *SweepReport) {
	report.DeliveryFailures++
	metrics.RecallDeliveryFailures.WithLabelValues(string(kind)).Inc()
}
