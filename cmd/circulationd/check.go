package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report rows where items and loans contradict each other",
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := parseDay(date, time.Now)
			if err != nil {
				return err
			}
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			d, err := newDaemon(rt.cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			report, err := d.loans.Check(cmd.Context(), today)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "items on loan with unknown loan status: %d\n", report.OnLoanWithUnknownLoanStatus)
			fmt.Fprintf(out, "items on shelf with an active loan:     %d\n", report.OnShelfWithActiveLoan)
			fmt.Fprintf(out, "items with several active loans:        %d\n", report.MultipleActiveLoans)
			fmt.Fprintf(out, "expired loans not yet due:              %d\n", report.ExpiredNotYetDue)
			if !report.Clean() {
				return fmt.Errorf("database is inconsistent")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Reference date (YYYY-MM-DD), default today")
	return cmd
}
