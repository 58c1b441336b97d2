package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobRunner executes a named job for a given day.
type JobRunner interface {
	Run(ctx context.Context, job string, today time.Time) error
}

// Stopper is implemented by runners that can wind a running job down after
// its current unit of work.
type Stopper interface {
	StopCurrent()
}

// defaultStopGrace is how long Stop waits for running jobs before cancelling them.
const defaultStopGrace = 30 * time.Second

// Job binds a job name to its cron spec.
type Job struct {
	Name string
	Spec string
}

// SweepScheduler triggers the daemon's sweeps on their cron specs.
type SweepScheduler struct {
	cronEngine *cron.Cron
	runner     JobRunner
	jobs       []Job
	timeout    time.Duration
	logger     *logrus.Entry
	onFinished func(job string, err error)
	now        func() time.Time
	stopGrace  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSweepScheduler(runner JobRunner, jobs []Job, timeout time.Duration, logger *logrus.Entry) *SweepScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &SweepScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		runner:    runner,
		jobs:      jobs,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
		stopGrace: defaultStopGrace,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnFinished registers a callback invoked after every scheduled run.
func (s *SweepScheduler) OnFinished(fn func(job string, err error)) {
	s.onFinished = fn
}

func (s *SweepScheduler) Start() error {
	s.logger.Info("Starting sweep scheduler...")
	for _, job := range s.jobs {
		if job.Spec == "" {
			s.logger.WithField("job", job.Name).Info("Job has no cron spec, not scheduled")
			continue
		}
		name := job.Name
		if _, err := s.cronEngine.AddFunc(job.Spec, func() { s.runJob(name) }); err != nil {
			return fmt.Errorf("could not add %s cron job: %w", name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": name, "spec": job.Spec}).Info("Job scheduled")
	}
	s.cronEngine.Start()
	s.logger.Info("Sweep scheduler started with jobs.")
	return nil
}

func (s *SweepScheduler) runJob(name string) {
	log := s.logger.WithField("job", name)
	log.Info("Cron job triggered")
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := s.now()
	err := s.runner.Run(ctx, name, start)
	if err != nil {
		log.WithError(err).Error("Scheduled job failed")
	} else {
		log.WithField("duration", time.Since(start).String()).Info("Scheduled job finished")
	}
	if s.onFinished != nil {
		s.onFinished(name, err)
	}
}

// Stop asks running jobs to stop after their current row and waits for them.
// Jobs still running after the grace period are cancelled.
func (s *SweepScheduler) Stop() {
	s.logger.Info("Stopping sweep scheduler...")
	if stopper, ok := s.runner.(Stopper); ok {
		stopper.StopCurrent()
	}
	done := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	select {
	case <-done.Done():
	case <-time.After(s.stopGrace):
		s.logger.WithField("grace", s.stopGrace.String()).Warn("Jobs still running after grace period, cancelling")
	}
	s.cancel()
	<-done.Done()
	s.logger.Info("Sweep scheduler gracefully stopped.")
}
