package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circulation_recall_daemon/internal/app"

	"github.com/spf13/cobra"
)

type sweepOptions struct {
	overdueLetters  bool
	updateBorrowers bool
	updateRequests  bool
	date            string
	batchSize       int
}

func (o sweepOptions) selected() []string {
	var jobs []string
	// Borrowers first so that letters go to refreshed addresses.
	if o.updateBorrowers {
		jobs = append(jobs, app.JobUpdateBorrowers)
	}
	if o.updateRequests {
		jobs = append(jobs, app.JobUpdateRequests)
	}
	if o.overdueLetters {
		jobs = append(jobs, app.JobOverdueLetters)
	}
	return jobs
}

func newSweepCommand() *cobra.Command {
	var opts sweepOptions

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the selected sweeps once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs := opts.selected()
			if len(jobs) == 0 {
				return fmt.Errorf("select at least one of --overdue-letters, --update-borrowers, --update-requests")
			}
			today, err := parseDay(opts.date, time.Now)
			if err != nil {
				return err
			}
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if opts.batchSize > 0 {
				rt.cfg.SweepBatchSize = opts.batchSize
			}

			d, err := newDaemon(rt.cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, stop := interruptContext(cmd.Context(), d.jobs.StopCurrent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var failed []string
			for _, job := range jobs {
				if err := d.jobs.Run(ctx, job, today); err != nil {
					failed = append(failed, job)
				}
				for _, e := range d.history.LastRun(job) {
					fmt.Fprintln(cmd.OutOrStdout(), e.Summary)
				}
				if ctx.Err() != nil {
					break
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("jobs failed: %v", failed)
			}
			return ctx.Err()
		},
	}

	cmd.Flags().BoolVar(&opts.overdueLetters, "overdue-letters", false, "Send overdue recall letters for loans and ILL requests")
	cmd.Flags().BoolVar(&opts.updateBorrowers, "update-borrowers", false, "Refresh borrower contact details from the directory")
	cmd.Flags().BoolVar(&opts.updateRequests, "update-requests", false, "Recompute hold request queues")
	cmd.Flags().StringVar(&opts.date, "date", "", "Run as if today were this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Rows between cancellation checkpoints (default from SWEEP_BATCH_SIZE)")

	return cmd
}

// interruptContext returns a context cancelled on the first of sigs. onSignal
// runs before the cancellation so that a running recall sweep can finish its
// current row.
func interruptContext(parent context.Context, onSignal func(), sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			onSignal()
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
