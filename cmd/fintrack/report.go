package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func reportCmd(opts *rootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize income and expenses over a date range",
		Long:  `Print totals by category and by month for the range. Without flags the current month is used.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
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

			report, err := opts.app.reports.Build(cmd.Context(), userID, rng)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Report %s\n", report.Range)
			if report.NoData {
				fmt.Fprintln(out, "No transactions in this range.")
				return nil
			}
			fmt.Fprintf(out, "Income:  %s\nExpense: %s\nBalance: %s\n\n", report.TotalIncome, report.TotalExpense, report.Balance)

			if len(report.CategoryTotals) > 0 {
				tw := newTable(out)
				fmt.Fprintln(tw, "CATEGORY\tEXPENSE")
				for _, c := range report.CategoryTotals {
					fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Total)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE")
			for _, m := range report.MonthlyTotals {
				fmt.Fprintf(tw, "%04d-%02d\t%s\t%s\n", m.Year, m.Month, m.Income, m.Expense)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD")
	return cmd
}
