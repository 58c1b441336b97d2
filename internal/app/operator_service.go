package app

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrAdminNotAuthorized is returned when someone other than the operator issues a command.
var ErrAdminNotAuthorized = errors.New("performing user is not authorized as an admin")

// OperatorService backs the operator bot commands.
type OperatorService struct {
	jobs            *Jobs
	history         *History
	adminTelegramID int64
	timeout         time.Duration // bound of a triggered sweep, none when zero
	today           func() time.Time
}

func NewOperatorService(jobs *Jobs, history *History, adminID int64, timeout time.Duration) *OperatorService {
	return &OperatorService{
		jobs:            jobs,
		history:         history,
		adminTelegramID: adminID,
		timeout:         timeout,
		today:           time.Now,
	}
}

func (s *OperatorService) IsAdmin(userID int64) bool {
	return userID == s.adminTelegramID
}

// Status describes the latest outcome of every job.
func (s *OperatorService) Status(performingAdminID int64) (string, error) {
	if !s.IsAdmin(performingAdminID) {
		return "", ErrAdminNotAuthorized
	}
	var b strings.Builder
	for _, job := range []string{JobOverdueLetters, JobUpdateBorrowers, JobUpdateRequests} {
		b.WriteString(job)
		b.WriteString(":\n")
		entries := s.history.Latest(job)
		if len(entries) == 0 {
			b.WriteString("  no run yet\n")
			continue
		}
		for _, e := range entries {
			b.WriteString("  ")
			b.WriteString(e.At.Format("2006-01-02 15:04"))
			b.WriteString(" ")
			b.WriteString(e.Summary)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// RunRecalls starts a loan and ILL recall sweep for today and returns its summary.
func (s *OperatorService) RunRecalls(ctx context.Context, performingAdminID int64) (string, error) {
	if !s.IsAdmin(performingAdminID) {
		return "", ErrAdminNotAuthorized
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	reports, err := s.jobs.RunOverdueLetters(ctx, s.today())
	if errors.Is(err, ErrSweepInProgress) {
		return "", err
	}
	lines := make([]string, 0, len(reports)+1)
	for _, r := range reports {
		lines = append(lines, r.String())
	}
	if err != nil {
		lines = append(lines, "errors: "+err.Error())
	}
	return strings.Join(lines, "\n"), nil
}
