package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func budgetsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage budgets and check spending against them",
	}

	cmd.AddCommand(listBudgetsCmd(opts))
	cmd.AddCommand(addBudgetCmd(opts))
	cmd.AddCommand(editBudgetCmd(opts))
	cmd.AddCommand(deleteBudgetCmd(opts))
	cmd.AddCommand(budgetStatusCmd(opts))

	return cmd
}

type budgetFlags struct {
	category int64
	amount   string
	start    string
	end      string
	inactive bool
}

func (f *budgetFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.category, "category", 0, "category id")
	cmd.Flags().StringVar(&f.amount, "amount", "", "budget amount, e.g. 300")
	cmd.Flags().StringVar(&f.start, "start", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "last day YYYY-MM-DD")
	cmd.Flags().BoolVar(&f.inactive, "inactive", false, "keep the budget but skip it in evaluations")
}

func (f *budgetFlags) apply(cmd *cobra.Command, b *core.Budget, all bool) error {
	set := func(name string) bool { return all || cmd.Flags().Changed(name) }

	if set("category") {
		b.CategoryID = f.category
	}
	if set("amount") {
		m, err := core.ParseAmount(f.amount)
		if err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		b.Amount = m
	}
	if set("start") {
		d, err := parseOptionalDate(f.start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		b.StartDate = d
	}
	if set("end") {
		d, err := parseOptionalDate(f.end)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		b.EndDate = d
	}
	if set("inactive") {
		b.Active = !f.inactive
	}
	return nil
}

func listBudgetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets, latest window first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			budgets, err := opts.app.budgets.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No budgets found.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tCATEGORY\tAMOUNT\tWINDOW\tACTIVE")
			for _, b := range budgets {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", b.ID, b.CategoryName, b.Amount, b.Window(), b.Active)
			}
			return tw.Flush()
		},
	}
}

func addBudgetCmd(opts *rootOptions) *cobra.Command {
	flags := &budgetFlags{}

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a budget for a category and date window",
		Example: `  fintrack budgets add --user 1 --category 3 --amount 300 --start 2024-01-01 --end 2024-01-31`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			var b core.Budget
			if err := flags.apply(cmd, &b, true); err != nil {
				return err
			}
			created, err := opts.app.budgets.Create(cmd.Context(), userID, b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added budget %d\n", created.ID)
			return nil
		},
	}

	flags.register(cmd)
	for _, name := range []string{"category", "amount", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func editBudgetCmd(opts *rootOptions) *cobra.Command {
	flags := &budgetFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := opts.app.budgets.Get(cmd.Context(), userID, id)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &b, false); err != nil {
				return err
			}
			if _, err := opts.app.budgets.Update(cmd.Context(), userID, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated budget %d\n", id)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func deleteBudgetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.app.budgets.Delete(cmd.Context(), userID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted budget %d\n", id)
			return nil
		},
	}
}

func budgetStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show spending against every active budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			statuses, err := opts.app.evaluator.Status(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active budgets.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tCATEGORY\tWINDOW\tBUDGET\tSPENT\tREMAINING\t")
			for _, s := range statuses {
				flag := ""
				if s.Overspent {
					flag = "OVER"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					s.Budget.ID, s.Budget.CategoryName, s.Budget.Window(), s.Budget.Amount, s.Spent, s.Remaining, flag)
			}
			return tw.Flush()
		},
	}
}
