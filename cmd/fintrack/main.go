package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

var version = "dev"

// rootOptions carries the global flags and the lazily built application
// shared by every subcommand of one invocation.
type rootOptions struct {
	userID int64
	app    *application
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "fintrack",
		Short:         "Personal finance ledger",
		Long:          `fintrack records income and expenses, evaluates budgets, materializes recurring transactions and builds reports.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.app = app
			return nil
		},
	}

	root.PersistentFlags().Int64Var(&opts.userID, "user", 0, "id of the user owning the data")

	root.AddCommand(categoriesCmd(opts))
	root.AddCommand(transactionsCmd(opts))
	root.AddCommand(budgetsCmd(opts))
	root.AddCommand(recurringCmd(opts))
	root.AddCommand(reportCmd(opts))
	root.AddCommand(dashboardCmd(opts))
	root.AddCommand(sheetsCmd(opts))

	return root
}

// run executes one command line and releases the application afterwards.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if opts.app != nil {
		if cerr := opts.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// requireUser returns the --user flag or an error when it is missing.
func (o *rootOptions) requireUser() (int64, error) {
	if o.userID <= 0 {
		return 0, errors.New("--user is required")
	}
	return o.userID, nil
}

// describe renders domain errors as one line per problem.
func describe(err error) string {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		msg := "invalid input:"
		for _, f := range verr.Fields {
			msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
		}
		return msg
	case errors.Is(err, core.ErrNotFound):
		return "not found: " + err.Error()
	case errors.Is(err, core.ErrConflict):
		return "conflict: " + err.Error()
	}
	return err.Error()
}
