package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func dashboardCmd(opts *rootOptions) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show this month's totals, recent transactions and budget alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			day, err := parseDayOr(today)
			if err != nil {
				return fmt.Errorf("--today: %w", err)
			}
			d, err := opts.app.dashboard.Build(cmd.Context(), userID, day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Month %s\n", d.Month)
			fmt.Fprintf(out, "Income:  %s\nExpense: %s\nBalance: %s\n", d.Income, d.Expense, d.Balance)

			fmt.Fprintln(out, "\nRecent transactions")
			if len(d.Recent) == 0 {
				fmt.Fprintln(out, "  none")
			} else if err := writeTransactions(out, d.Recent); err != nil {
				return err
			}

			fmt.Fprintln(out, "\nBudget alerts")
			if len(d.Alerts) == 0 {
				fmt.Fprintln(out, "  none")
				return nil
			}
			for _, a := range d.Alerts {
				fmt.Fprintf(out, "  %s: spent %s of %s (over by %s)\n", a.CategoryName, a.Spent, a.Budget, a.Overspend)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "reference day YYYY-MM-DD (default today)")
	return cmd
}
