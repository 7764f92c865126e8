package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reverb/internal/harness"
	"github.com/roach88/reverb/internal/journal"
	"github.com/roach88/reverb/internal/scenario"
)

// RunCmdOptions holds flags for the run command.
type RunCmdOptions struct {
	*RootOptions
	Journal string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its pass trace",
		Long: `Run a scenario file against a fresh world and scheduler.

The scenario's entities are spawned, its reactions registered, and one
scheduler pass executed per tick with scripted mutations applied between
passes. The resulting trace is printed; with --journal, every pass is also
recorded to a SQLite journal readable by 'reverb trace'.

Example:
  reverb run demo.yaml
  reverb run demo.yaml --journal ./trace.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite pass journal (optional)")

	return cmd
}

func runScenario(cmd *cobra.Command, opts *RunCmdOptions, path string) error {
	configureLogging(opts.Verbose)

	sc, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Info("scenario loaded",
		"name", sc.Name,
		"ticks", sc.Ticks,
		"entities", len(sc.Entities),
		"reactions", len(sc.Reactions),
	)

	var harnessOpts []harness.Option
	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		harnessOpts = append(harnessOpts, harness.WithJournal(j))
	}

	result, err := harness.Run(cmd.Context(), sc, harnessOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario run failed", err)
	}

	return printRunResult(cmd.OutOrStdout(), opts.Format, result)
}

// printRunResult renders a harness result as text or canonical JSON.
func printRunResult(w io.Writer, format string, result *harness.Result) error {
	if format == "json" {
		data, err := result.Canonical()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to serialize trace", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		return nil
	}

	fmt.Fprintf(w, "scenario: %s\n", result.ScenarioName)
	for _, pass := range result.Passes {
		fmt.Fprintf(w, "pass %d (fresh=%d)\n", pass.Pass, pass.Fresh)
		for _, o := range pass.Outcomes {
			switch o.Outcome {
			case "executed":
				fmt.Fprintf(w, "  %s [%s] executed", o.Reaction, o.Kind)
				for _, write := range o.Writes {
					fmt.Fprintf(w, " %s.%s=%v", write.Entity, write.Type, write.Value)
				}
				fmt.Fprintln(w)
			case "failed":
				fmt.Fprintf(w, "  %s failed: %s\n", o.Reaction, o.FailureCode)
			}
		}
	}
	return nil
}

// configureLogging sets the default slog handler based on the verbose flag.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
