package app

import (
	"context"
	"errors"
	"fmt"

	"circulation_recall_daemon/internal/domain/borrower"
	"circulation_recall_daemon/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// SyncReport summarises a borrower refresh from the directory.
type SyncReport struct {
	Checked  int
	Updated  int
	Missing  int
	Failures int
}

func (r SyncReport) String() string {
	return fmt.Sprintf("borrower sync: checked %d, updated %d, missing %d, failures %d",
		r.Checked, r.Updated, r.Missing, r.Failures)
}

type BorrowerService struct {
	borrowerRepo borrower.Repository
	directory    borrower.Directory
	logger       *logrus.Entry
}

func NewBorrowerService(br borrower.Repository, dir borrower.Directory, logger *logrus.Entry) *BorrowerService {
	return &BorrowerService{
		borrowerRepo: br,
		directory:    dir,
		logger:       logger,
	}
}

// SyncFromDirectory refreshes contact details of every borrower that has a
// directory id. A failure for one borrower does not stop the others.
func (s *BorrowerService) SyncFromDirectory(ctx context.Context) (SyncReport, error) {
	var report SyncReport
	borrowers, err := s.borrowerRepo.ListWithCCID(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list borrowers: %w", err)
	}
	s.logger.WithField("count", len(borrowers)).Info("Syncing borrowers from directory")

	for _, b := range borrowers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		log := s.logger.WithFields(logrus.Fields{"borrower_id": b.ID, "ccid": b.CCID.String})

		entry, err := s.directory.Lookup(ctx, b.CCID.String)
		if err != nil {
			if errors.Is(err, borrower.ErrNotInDirectory) {
				log.Warn("Borrower not found in directory, skipping")
				report.Missing++
				continue
			}
			log.WithError(err).Error("Directory lookup failed")
			report.Failures++
			continue
		}

		if !b.Apply(*entry) {
			continue
		}
		if err := s.borrowerRepo.Update(ctx, b); err != nil {
			log.WithError(err).Error("Failed to update borrower")
			report.Failures++
			continue
		}
		report.Updated++
		metrics.BorrowersUpdated.Inc()
		log.Info("Borrower updated from directory")
	}

	s.logger.WithFields(logrus.Fields{
		"checked":  report.Checked,
		"updated":  report.Updated,
		"missing":  report.Missing,
		"failures": report.Failures,
	}).Info("Borrower sync finished")
	return report, nil
}
