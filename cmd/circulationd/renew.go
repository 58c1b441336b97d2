package main

import (
	"fmt"
	"time"

	"circulation_recall_daemon/internal/domain/recall"

	"github.com/spf13/cobra"
)

func newRenewCommand() *cobra.Command {
	var barcode, date string

	cmd := &cobra.Command{
		Use:   "renew",
		Short: "Renew the active loan of a copy",
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

			l, err := d.loans.Renew(cmd.Context(), barcode, today)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loan %d renewed until %s (renewal %d)\n",
				l.ID, l.DueDate.Time.Format(recall.DateLayout), l.NumberOfRenewals)
			return nil
		},
	}
	cmd.Flags().StringVar(&barcode, "barcode", "", "Barcode of the loaned copy")
	cmd.Flags().StringVar(&date, "date", "", "Renew as of this date (YYYY-MM-DD), default today")
	_ = cmd.MarkFlagRequired("barcode")
	return cmd
}
