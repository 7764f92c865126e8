package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/reverb/internal/journal"
)

// TraceCmdOptions holds flags for the trace command.
type TraceCmdOptions struct {
	*RootOptions
	Journal  string
	Pass     int64
	Reaction string
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read a recorded pass journal",
		Long: `Read back passes and per-record outcomes from a journal written by
'reverb run --journal'.

Without filters, lists all passes. With --pass, lists that pass's record
outcomes. With --reaction, lists every outcome of one reaction across all
passes.

Example:
  reverb trace --journal ./trace.db
  reverb trace --journal ./trace.db --pass 3
  reverb trace --journal ./trace.db --reaction damage`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite pass journal (required)")
	cmd.Flags().Int64Var(&opts.Pass, "pass", 0, "show outcomes for one pass")
	cmd.Flags().StringVar(&opts.Reaction, "reaction", "", "show outcomes for one reaction id")
	_ = cmd.MarkFlagRequired("journal")

	return cmd
}

func runTrace(cmd *cobra.Command, opts *TraceCmdOptions) error {
	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	out := &OutputFormatter{Format: opts.Format, Writer: w}

	switch {
	case opts.Pass > 0:
		executions, err := j.ListExecutions(ctx, opts.Pass)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		if opts.Format == "json" {
			return out.Success(executions)
		}
		printExecutions(w, executions)
		return nil

	case opts.Reaction != "":
		executions, err := j.ListReaction(ctx, opts.Reaction)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		if opts.Format == "json" {
			return out.Success(executions)
		}
		printExecutions(w, executions)
		return nil

	default:
		passes, err := j.ListPasses(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		if opts.Format == "json" {
			return out.Success(passes)
		}
		for _, p := range passes {
			phase := p.Phase
			if phase == "" {
				phase = "all"
			}
			fmt.Fprintf(w, "pass %d phase=%s executed=%d failures=%d fresh=%d\n",
				p.Seq, phase, p.Executed, p.Failures, p.Fresh)
		}
		return nil
	}
}

func printExecutions(w io.Writer, executions []journal.ExecutionRow) {
	for _, e := range executions {
		switch e.Outcome {
		case "failed":
			fmt.Fprintf(w, "pass %d: %s failed: %s\n", e.PassSeq, e.ReactionID, e.FailureCode)
		default:
			fmt.Fprintf(w, "pass %d: %s [%s] executed writes=%s\n", e.PassSeq, e.ReactionID, e.Kind, e.Writes)
		}
	}
}
