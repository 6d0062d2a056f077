package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peaceflow/peace/internal/engine"
)

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show the difference between saved and desired state for the demo flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := resolveContext(cmd)
			if err != nil {
				return err
			}
			diffs, err := engine.Diff(cc)
			if err != nil {
				return err
			}
			for _, e := range diffs.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", e.ID, e.Value)
			}
			return nil
		},
	}
}
