package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tine/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Chain    string
}

// JournalReport is the JSON payload of the journal command.
type JournalReport struct {
	Dispatches     []journal.Dispatch      `json:"dispatches"`
	FailedAttempts []journal.FailedAttempt `json:"failed_attempts,omitempty"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal --db <file>",
		Short: "List recorded dispatches from a journal database",
		Long: `List every dispatch recorded in a journal database, in seq order.

With --verbose, failed duplication attempts are listed too. --chain
restricts the failed-attempt listing to one chain token.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (required)")
	cmd.Flags().StringVar(&opts.Chain, "chain", "", "restrict failed attempts to one chain token")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	j, err := journal.Open(opts.Database)
	if err != nil {
		_ = formatter.Error("E211", fmt.Sprintf("cannot open journal: %v", err))
		return WrapExitError(ExitCommandError, "cannot open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	report := JournalReport{}
	report.Dispatches, err = j.ListDispatches(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot read journal", err)
	}
	if opts.Verbose || opts.Chain != "" {
		report.FailedAttempts, err = j.ListFailedAttempts(ctx, opts.Chain)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot read journal", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	if len(report.Dispatches) == 0 {
		fmt.Fprintln(formatter.Writer, "no dispatches recorded")
	}
	for _, d := range report.Dispatches {
		switch d.Outcome {
		case "parent":
			fmt.Fprintf(formatter.Writer, "%4d  %s  parent  child_pid=%d  attempts=%d\n",
				d.Seq, d.ChainToken, d.ChildPID, d.Attempts)
		case "failed":
			fmt.Fprintf(formatter.Writer, "%4d  %s  failed  attempts=%d  error=%q\n",
				d.Seq, d.ChainToken, d.Attempts, d.Error)
		default:
			fmt.Fprintf(formatter.Writer, "%4d  %s  %s  attempts=%d\n",
				d.Seq, d.ChainToken, d.Outcome, d.Attempts)
		}
	}
	for _, a := range report.FailedAttempts {
		fmt.Fprintf(formatter.Writer, "%4d  %s  attempt %d failed: %s\n",
			a.Seq, a.ChainToken, a.Attempt, a.Error)
	}
	return nil
}
