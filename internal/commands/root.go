// Package commands implements the peace CLI, a thin cobra driver over
// the command engine (internal/engine) and command-context builder
// (internal/cmdctx). Argument parsing nuance and terminal rendering
// beyond plain text are out of scope (spec §1 non-goals); each command
// resolves a workspace, builds a single-profile single-flow context
// against the demo flow, and reports the engine's Result.
//
// Grounded on jmgilman-sow/internal/commands/root.go's NewRootCmd /
// persistent-flag pattern.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/peaceflow/peace/internal/config"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "peace",
		Short:        "Declarative flow automation engine",
		Long:         `peace drives a flow of declaratively specified items toward their desired state and back, tracking progress and persisting results between runs.`,
		Version:      config.Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("app", "peace_demo", "application name under .peace/")
	rootCmd.PersistentFlags().String("profile", "default", "profile to operate against")
	rootCmd.PersistentFlags().String("workspace", "", "explicit workspace root (default: current directory)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "ensure/clean: compute the result without mutating managed items or persisting state")

	rootCmd.AddCommand(NewEnsureCmd())
	rootCmd.AddCommand(NewCleanCmd())
	rootCmd.AddCommand(NewDiffCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("peace %s\n", config.Version)
			if config.BuildDate != "unknown" {
				cmd.Printf("Built: %s\n", config.BuildDate)
			}
			if config.Commit != "none" {
				cmd.Printf("Commit: %s\n", config.Commit)
			}
		},
	}
}
