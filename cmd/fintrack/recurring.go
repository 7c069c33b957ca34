package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func recurringCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Materialize recurring transactions",
	}
	cmd.AddCommand(processRecurringCmd(opts))
	return cmd
}

func processRecurringCmd(opts *rootOptions) *cobra.Command {
	var (
		today string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Create today's occurrence of every due recurring transaction",
		Long: `Create one occurrence, dated today, for each recurring transaction whose next
occurrence is on or before today, and move its schedule forward by one period.
A schedule several periods behind stays due after a run, so each further run
that day creates one more occurrence until the next date moves past today.
Once it has, running again creates nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDayOr(today)
			if err != nil {
				return fmt.Errorf("--today: %w", err)
			}

			if all {
				created, err := opts.app.recurrence.ProcessAll(cmd.Context(), day)
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d occurrence(s) for %s\n", created, day)
				return err
			}

			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			created, err := opts.app.recurrence.Process(cmd.Context(), userID, day)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d occurrence(s) for %s\n", created, day)
			return err
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "processing day YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&all, "all", false, "process every user with due templates")
	return cmd
}
