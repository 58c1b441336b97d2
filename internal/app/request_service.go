package app

import (
	"context"
	"fmt"

	"circulation_recall_daemon/internal/domain/item"
	"circulation_recall_daemon/internal/domain/request"
	"circulation_recall_daemon/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// QueueReport summarises a hold request queue update.
type QueueReport struct {
	Queues      int
	Transitions int
	Failures    int
}

func (r QueueReport) String() string {
	return fmt.Sprintf("request queues: %d queues, %d transitions, %d failures", r.Queues, r.Transitions, r.Failures)
}

type RequestService struct {
	requestRepo request.Repository
	itemRepo    item.Repository
	logger      *logrus.Entry
}

func NewRequestService(rr request.Repository, ir item.Repository, logger *logrus.Entry) *RequestService {
	return &RequestService{
		requestRepo: rr,
		itemRepo:    ir,
		logger:      logger,
	}
}

type queueKey struct {
	recordID    int64
	description string
}

// UpdateAll recomputes every hold request queue. When a copy of the record is
// available the oldest request is pending and the others wait; otherwise all wait.
func (s *RequestService) UpdateAll(ctx context.Context) (QueueReport, error) {
	var report QueueReport
	barcodes, err := s.requestRepo.ListQueuedBarcodes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list queued barcodes: %w", err)
	}

	seen := make(map[queueKey]bool)
	for _, barcode := range barcodes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		it, err := s.itemRepo.GetByBarcode(ctx, barcode)
		if err != nil {
			s.logger.WithError(err).WithField("barcode", barcode).Error("Failed to load requested item")
			report.Failures++
			continue
		}
		key := queueKey{recordID: it.RecordID, description: it.Description}
		if seen[key] {
			continue
		}
		seen[key] = true
		report.Queues++

		n, err := s.updateQueue(ctx, key)
		report.Transitions += n
		if err != nil {
			s.logger.WithError(err).WithField("record_id", key.recordID).Error("Failed to update request queue")
			report.Failures++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"queues":      report.Queues,
		"transitions": report.Transitions,
		"failures":    report.Failures,
	}).Info("Request queue update finished")
	return report, nil
}

func (s *RequestService) updateQueue(ctx context.Context, key queueKey) (int, error) {
	copies, err := s.itemRepo.ListCopies(ctx, key.recordID, key.description)
	if err != nil {
		return 0, fmt.Errorf("failed to list copies: %w", err)
	}
	available := false
	for _, c := range copies {
		if c.Available() {
			available = true
			break
		}
	}

	pending, err := s.requestRepo.List(ctx, key.recordID, key.description, request.StatusPending)
	if err != nil {
		return 0, err
	}
	waiting, err := s.requestRepo.List(ctx, key.recordID, key.description, request.StatusWaiting)
	if err != nil {
		return 0, err
	}
	queue := mergeByAge(pending, waiting)

	transitions := 0
	for i, req := range queue {
		want := request.StatusWaiting
		if available && i == 0 {
			want = request.StatusPending
		}
		if req.Status == want {
			continue
		}
		if err := s.requestRepo.UpdateStatus(ctx, req.ID, want); err != nil {
			return transitions, fmt.Errorf("failed to move request %d to %s: %w", req.ID, want, err)
		}
		transitions++
		metrics.HoldRequestTransitions.WithLabelValues(string(want)).Inc()
	}
	return transitions, nil
}

// mergeByAge merges two oldest-first lists into one oldest-first list.
func mergeByAge(a, b []*request.HoldRequest) []*request.HoldRequest {
	out := make([]*request.HoldRequest, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if older(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func older(x, y *request.HoldRequest) bool {
	if x.RequestDate.Equal(y.RequestDate) {
		return x.ID < y.ID
	}
	return x.RequestDate.Before(y.RequestDate)
}
