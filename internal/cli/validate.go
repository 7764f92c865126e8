package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reverb/internal/scenario"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario file without running it",
		Long: `Validate a scenario file against the embedded CUE schema and check
referential integrity (script ops and targets must name declared entities
and reactions).

Exit code 0 if valid, 1 otherwise.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "scenario invalid", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("scenario %q valid: %d entities, %d reactions, %d ticks",
				sc.Name, len(sc.Entities), len(sc.Reactions), sc.Ticks))
		},
	}
	return cmd
}
