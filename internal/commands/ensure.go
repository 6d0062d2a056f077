package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peaceflow/peace/internal/engine"
)

// NewEnsureCmd creates the ensure command.
func NewEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Drive the demo flow's items toward their desired state",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			cc, err := resolveContext(cmd)
			if err != nil {
				return err
			}
			result, progressCh, err := engine.Ensure(cmd.Context(), cc, engine.Options{DryRun: dryRun})
			for range progressCh {
			}
			if err != nil {
				return err
			}
			return printOutcomes(cmd, "ensure", result)
		},
	}
}

func printOutcomes(cmd *cobra.Command, verb string, result engine.Result) error {
	failed := 0
	for _, o := range result.Outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStderr(), "✗ %s: %v\n", o.ItemID, o.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %v\n", o.ItemID, o.State)
	}
	if failed > 0 {
		return fmt.Errorf("%s failed for %d item(s)", verb, failed)
	}
	return nil
}
