package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/worker"
)

func sheetsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets mirror",
	}
	cmd.AddCommand(pushSheetsCmd(opts))
	return cmd
}

func pushSheetsCmd(opts *rootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Write every transaction in a date range to the spreadsheet",
		Long:  `Backfill the spreadsheet mirror, e.g. after the sheets worker missed events. Without flags the current month is pushed.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			mirror := opts.app.backend.Mirror
			if mirror == nil {
				return errors.New("Google Sheets is not configured (set GOOGLE_SPREADSHEET_ID)")
			}

			rng := core.MonthRange(core.DateOf(time.Now()))
			if from != "" {
				if rng.Start, err = core.ParseDate(from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if to != "" {
				if rng.End, err = core.ParseDate(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}

			w := worker.NewSyncWorker(opts.app.backend.Store, mirror, opts.app.cfg.SyncBatchSize)
			pushed, err := w.PushRange(cmd.Context(), userID, rng)
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d transaction(s) for %s\n", pushed, rng)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD")
	return cmd
}
