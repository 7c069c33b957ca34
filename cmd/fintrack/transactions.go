package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

func transactionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Manage transactions",
	}

	cmd.AddCommand(listTransactionsCmd(opts))
	cmd.AddCommand(addTransactionCmd(opts))
	cmd.AddCommand(editTransactionCmd(opts))
	cmd.AddCommand(deleteTransactionCmd(opts))
	cmd.AddCommand(exportTransactionsCmd(opts))

	return cmd
}

// txFlags are the editable transaction fields shared by add and edit.
type txFlags struct {
	amount      string
	date        string
	typ         string
	category    int64
	description string
	recurring   bool
	frequency   string
	next        string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&f.date, "date", "", "date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.typ, "type", "", "income or expense")
	cmd.Flags().Int64Var(&f.category, "category", 0, "category id (0 for none)")
	cmd.Flags().StringVar(&f.description, "description", "", "free text")
	cmd.Flags().BoolVar(&f.recurring, "recurring", false, "repeat this transaction")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&f.next, "next", "", "next occurrence YYYY-MM-DD (default one period after date)")
}

// apply copies the flags the user set onto t. With all set, every flag is
// applied.
func (f *txFlags) apply(cmd *cobra.Command, t *core.Transaction, all bool) error {
	set := func(name string) bool { return all || cmd.Flags().Changed(name) }

	if set("amount") {
		m, err := core.ParseAmount(f.amount)
		if err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		t.Amount = m
	}
	if set("date") {
		d, err := parseDayOr(f.date)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		t.Date = d
	}
	if set("type") {
		typ, err := core.ParseTransactionType(f.typ)
		if err != nil {
			return fmt.Errorf("--type: %w", err)
		}
		t.Type = typ
	}
	if set("category") {
		t.CategoryID = f.category
	}
	if set("description") {
		t.Description = f.description
	}
	if set("recurring") {
		t.Recurring = f.recurring
		if !f.recurring {
			t.Frequency = ""
			t.NextDate = core.Date{}
		}
	}
	if set("frequency") {
		t.Frequency = core.Frequency(f.frequency)
	}
	if set("next") {
		d, err := parseOptionalDate(f.next)
		if err != nil {
			return fmt.Errorf("--next: %w", err)
		}
		t.NextDate = d
	}
	return nil
}

func listTransactionsCmd(opts *rootOptions) *cobra.Command {
	var (
		from, to, typ, query string
		category             int64
		limit, offset        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			f := ledger.TransactionFilter{CategoryID: category, Query: query, Limit: limit, Offset: offset}
			if f.Start, err = parseOptionalDate(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if f.End, err = parseOptionalDate(to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if typ != "" {
				if f.Type, err = core.ParseTransactionType(typ); err != nil {
					return fmt.Errorf("--type: %w", err)
				}
			}

			txns, err := opts.app.transactions.List(cmd.Context(), userID, f)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions found.")
				return nil
			}
			return writeTransactions(cmd.OutOrStdout(), txns)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD")
	cmd.Flags().StringVar(&typ, "type", "", "income or expense")
	cmd.Flags().Int64Var(&category, "category", 0, "category id")
	cmd.Flags().StringVarP(&query, "query", "q", "", "match description, category or amount")
	cmd.Flags().IntVar(&limit, "limit", services.DefaultPageSize, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

func addTransactionCmd(opts *rootOptions) *cobra.Command {
	flags := &txFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  fintrack tx add --user 1 --type expense --amount 12.50 --category 3 --description lunch
  fintrack tx add --user 1 --type income --amount 2500 --recurring --frequency monthly`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			var t core.Transaction
			if err := flags.apply(cmd, &t, true); err != nil {
				return err
			}
			created, err := opts.app.transactions.Create(cmd.Context(), userID, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added transaction %d\n", created.ID)
			if created.IsTemplate() {
				fmt.Fprintf(cmd.OutOrStdout(), "Next occurrence: %s\n", created.NextDate)
			}
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func editTransactionCmd(opts *rootOptions) *cobra.Command {
	flags := &txFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a transaction",
		Long:  `Change the fields given as flags; the others keep their stored values.`,
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
			t, err := opts.app.transactions.Get(cmd.Context(), userID, id)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &t, false); err != nil {
				return err
			}
			if _, err := opts.app.transactions.Update(cmd.Context(), userID, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated transaction %d\n", id)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func deleteTransactionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
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
			if err := opts.app.transactions.Delete(cmd.Context(), userID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
			return nil
		},
	}
}

func exportTransactionsCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every transaction as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.requireUser()
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return opts.app.transactions.Export(cmd.Context(), userID, w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")
	return cmd
}
