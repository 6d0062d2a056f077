package cmdctx

import (
	"github.com/peaceflow/peace/internal/flow"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/progress"
	"github.com/peaceflow/peace/internal/resources"
	"github.com/peaceflow/peace/internal/states"
	"github.com/peaceflow/peace/internal/storage"
	"github.com/peaceflow/peace/internal/typeregistry"
	"github.com/peaceflow/peace/internal/workspace"
)

// Context is the built, runtime-validated configuration every engine
// command (component I) runs against. Only the fields meaningful for
// Scope are populated; callers switch on Scope before reading
// scope-specific fields, matching spec §4.8's "exposes, per scope,
// exactly the fields that are meaningful."
type Context struct {
	Scope Scope

	App    itemspec.AppName
	Root   *workspace.Root
	Layout workspace.Layout

	WorkspaceParams *storage.Params

	// Single-profile scopes.
	Profile       itemspec.Profile
	ProfileParams *storage.Params

	// Multi-profile scopes.
	Profiles       []itemspec.Profile
	ProfileParamsByProfile map[itemspec.Profile]*storage.Params

	// *SingleFlow scopes.
	Flow       *flow.Graph
	FlowParams *storage.Params

	// SingleProfileSingleFlow only.
	Resources   resources.Map[resources.SetUp]
	StatesSaved states.Map[states.Saved]
	Trackers    map[itemspec.ID]*progress.Tracker

	// MultiProfileSingleFlow only: saved states per profile, never
	// inserted into a shared Resources map because tagged state types
	// may differ between profiles (spec §4.8 step 8).
	StatesSavedByProfile map[itemspec.Profile]states.Map[states.Saved]

	stateRegs, desiredRegs *typeregistry.Registry
}

// StateRegistry returns the current/ensured/cleaned type registry this
// context was built with, for components (like engine.Diff) that need
// to revive states stored outside the context's own StatesSaved.
func (c *Context) StateRegistry() *typeregistry.Registry { return c.stateRegs }

// DesiredRegistry returns the desired-state type registry this context
// was built with.
func (c *Context) DesiredRegistry() *typeregistry.Registry { return c.desiredRegs }

// DefaultStallWindow is used when the builder is not given an explicit
// stall window for per-item progress trackers.
const DefaultStallWindow = progress.DefaultStallWindow
