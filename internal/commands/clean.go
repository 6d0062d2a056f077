package commands

import (
	"github.com/spf13/cobra"

	"github.com/peaceflow/peace/internal/engine"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Tear down the demo flow's items toward their clean state",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			cc, err := resolveContext(cmd)
			if err != nil {
				return err
			}
			result, progressCh, err := engine.Clean(cmd.Context(), cc, engine.Options{DryRun: dryRun})
			for range progressCh {
			}
			if err != nil {
				return err
			}
			return printOutcomes(cmd, "clean", result)
		},
	}
}
