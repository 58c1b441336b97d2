package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"circulation_recall_daemon/internal/domain/recall"

	"github.com/sirupsen/logrus"
)

// ErrSweepInProgress is returned when a recall sweep is requested while one is running.
var ErrSweepInProgress = errors.New("a recall sweep is already running")

// Job names, shared by the CLI flags, the scheduler and the metrics labels.
const (
	JobOverdueLetters  = "overdue-letters"
	JobUpdateBorrowers = "update-borrowers"
	JobUpdateRequests  = "update-requests"
)

// Jobs runs the daemon's sweeps. The CLI, the scheduler and the operator bot
// all go through it so that at most one recall sweep writes letter counters.
type Jobs struct {
	recalls   *RecallService
	borrowers *BorrowerService
	requests  *RequestService
	history   *History
	logger    *logrus.Entry

	mu      sync.Mutex
	current *Control
	running sync.WaitGroup
}

func NewJobs(rs *RecallService, bs *BorrowerService, qs *RequestService, history *History, logger *logrus.Entry) *Jobs {
	return &Jobs{
		recalls:   rs,
		borrowers: bs,
		requests:  qs,
		history:   history,
		logger:    logger,
	}
}

// RunOverdueLetters sweeps loans then ILL requests. A listing failure in one
// sweep does not prevent the other.
func (j *Jobs) RunOverdueLetters(ctx context.Context, today time.Time) ([]SweepReport, error) {
	ctrl, err := j.begin()
	if err != nil {
		return nil, err
	}
	defer j.end()

	var reports []SweepReport
	var errs []error
	var summaries []string
	sweeps := []struct {
		kind recall.Kind
		run  func(context.Context, time.Time, *Control) (SweepReport, error)
	}{
		{recall.KindLoan, j.recalls.SweepLoans},
		{recall.KindILL, j.recalls.SweepILLs},
	}
	for _, sw := range sweeps {
		report, err := sw.run(ctx, today, ctrl)
		if err != nil {
			j.logger.WithError(err).WithField("kind", sw.kind).Error("Recall sweep failed")
			errs = append(errs, err)
			summaries = append(summaries, fmt.Sprintf("%s sweep failed: %v", sw.kind, err))
		} else {
			summaries = append(summaries, report.String())
		}
		reports = append(reports, report)
		if report.Stopped {
			break
		}
	}
	j.history.Add(JobOverdueLetters, summaries...)
	return reports, errors.Join(errs...)
}

// StopCurrent asks a running recall sweep to stop once its in-flight row is done.
func (j *Jobs) StopCurrent() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current != nil {
		j.current.StopAfterCurrent()
	}
}

func (j *Jobs) begin() (*Control, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current != nil {
		return nil, ErrSweepInProgress
	}
	j.current = &Control{}
	j.running.Add(1)
	return j.current, nil
}

func (j *Jobs) end() {
	j.mu.Lock()
	j.current = nil
	j.mu.Unlock()
	j.running.Done()
}

// Wait blocks until every job started through Jobs has returned. The host calls
// it on shutdown before closing the database.
func (j *Jobs) Wait() {
	j.running.Wait()
}

func (j *Jobs) RunUpdateBorrowers(ctx context.Context) (SyncReport, error) {
	j.running.Add(1)
	defer j.running.Done()
	report, err := j.borrowers.SyncFromDirectory(ctx)
	if err != nil {
		j.history.Add(JobUpdateBorrowers, fmt.Sprintf("borrower sync failed: %v", err))
		return report, err
	}
	j.history.Add(JobUpdateBorrowers, report.String())
	return report, nil
}

func (j *Jobs) RunUpdateRequests(ctx context.Context) (QueueReport, error) {
	j.running.Add(1)
	defer j.running.Done()
	report, err := j.requests.UpdateAll(ctx)
	if err != nil {
		j.history.Add(JobUpdateRequests, fmt.Sprintf("request queue update failed: %v", err))
		return report, err
	}
	j.history.Add(JobUpdateRequests, report.String())
	return report, nil
}

// Run dispatches a job by name.
func (j *Jobs) Run(ctx context.Context, job string, today time.Time) error {
	switch job {
	case JobOverdueLetters:
		_, err := j.RunOverdueLetters(ctx, today)
		return err
	case JobUpdateBorrowers:
		_, err := j.RunUpdateBorrowers(ctx)
		return err
	case JobUpdateRequests:
		_, err := j.RunUpdateRequests(ctx)
		return err
	default:
		return fmt.Errorf("unknown job %q", job)
	}
}

// History keeps the latest outcomes of each job for the operator.
type History struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string][]HistoryEntry
	runs    int
	limit   int
}

// HistoryEntry is one line of a job outcome. Entries written together share Run.
type HistoryEntry struct {
	Run     int
	At      time.Time
	Summary string
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 1
	}
	return &History{now: time.Now, entries: make(map[string][]HistoryEntry), limit: limit}
}

// Add records the summaries of one run of job.
func (h *History) Add(job string, summaries ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs++
	at := h.now()
	list := h.entries[job]
	for _, s := range summaries {
		list = append(list, HistoryEntry{Run: h.runs, At: at, Summary: s})
	}
	if len(list) > h.limit {
		list = list[len(list)-h.limit:]
	}
	h.entries[job] = list
}

// Latest returns the recorded entries of a job, oldest first.
func (h *History) Latest(job string) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HistoryEntry(nil), h.entries[job]...)
}

// LastRun returns the entries written by the most recent run of job.
func (h *History) LastRun(job string) []HistoryEntry {
	entries := h.Latest(job)
	if len(entries) == 0 {
		return nil
	}
	last := entries[len(entries)-1].Run
	i := len(entries) - 1
	for i > 0 && entries[i-1].Run == last {
		i--
	}
	return entries[i:]
}
