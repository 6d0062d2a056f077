package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/peaceflow/peace/internal/cmdctx"
	"github.com/peaceflow/peace/internal/demoitems"
	"github.com/peaceflow/peace/internal/flow"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/typeregistry"
	"github.com/peaceflow/peace/internal/workspace"
)

const demoFlowID = itemspec.FlowID("demo")

// buildDemoGraph assembles the flow exercised by the CLI: a Marker item
// ensuring a file exists, followed by a LocalCommand item that runs once
// the marker is in place (spec supplemental feature 5).
func buildDemoGraph() (*flow.Graph, error) {
	b := flow.NewBuilder(demoFlowID)
	marker := demoitems.NewMarker(itemspec.ID("marker"), ".peace-marker", "managed by peace")
	cmdItem := demoitems.NewLocalCommand(itemspec.ID("local_command"))

	if err := b.AddItem(marker); err != nil {
		return nil, err
	}
	if err := b.AddItem(cmdItem); err != nil {
		return nil, err
	}
	if err := b.AddEdge(marker.ID(), cmdItem.ID()); err != nil {
		return nil, err
	}
	return b.Build()
}

// resolveContext resolves the workspace root from the --workspace flag
// (or the current directory), changes into it so item specs may use
// relative paths (spec §5 "Environment"), and builds a
// SingleProfileSingleFlow command context against the demo flow.
func resolveContext(cmd *cobra.Command) (*cmdctx.Context, error) {
	appFlag, _ := cmd.Flags().GetString("app")
	profileFlag, _ := cmd.Flags().GetString("profile")
	workspaceFlag, _ := cmd.Flags().GetString("workspace")

	app, err := itemspec.NewAppName(appFlag)
	if err != nil {
		return nil, err
	}
	profile, err := itemspec.NewProfile(profileFlag)
	if err != nil {
		return nil, err
	}

	root, err := resolveRoot(workspaceFlag)
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(root.Path); err != nil {
		return nil, err
	}

	graph, err := buildDemoGraph()
	if err != nil {
		return nil, err
	}

	return cmdctx.New(app, root).
		WithProfile(profile).
		WithFlow(demoFlowID, graph).
		WithStateRegistries(typeregistry.New(), typeregistry.New()).
		Build()
}

func resolveRoot(explicit string) (*workspace.Root, error) {
	if explicit != "" {
		return workspace.FromPath(explicit)
	}
	return workspace.FromCwd()
}
