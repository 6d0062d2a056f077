package cmdctx

import (
	"os"
	"reflect"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/peaceflow/peace/internal/flow"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/peaceerrors"
	"github.com/peaceflow/peace/internal/progress"
	"github.com/peaceflow/peace/internal/resources"
	"github.com/peaceflow/peace/internal/states"
	"github.com/peaceflow/peace/internal/storage"
	"github.com/peaceflow/peace/internal/typeregistry"
	"github.com/peaceflow/peace/internal/workspace"
)

// Builder accumulates the choices spec §4.8 names before Build validates
// them into one of the five legal scopes. Zero value is not usable; use
// New.
type Builder struct {
	app  itemspec.AppName
	root *workspace.Root

	profileSel ProfileSelection
	flowSel    FlowSelection
	flowGraph  *flow.Graph

	stateRegs, desiredRegs *typeregistry.Registry

	workspaceParamsRegistry *typeregistry.Registry
	profileParamsRegistry   *typeregistry.Registry
	flowParamsRegistry      *typeregistry.Registry

	workspaceParamsOverride *storage.Params
	profileParamsOverride   *storage.Params
	flowParamsOverride      *storage.Params

	stallWindow time.Duration
}

// New starts a Builder for app, rooted at root.
func New(app itemspec.AppName, root *workspace.Root) *Builder {
	return &Builder{
		app:         app,
		root:        root,
		profileSel:  ProfileNotSelected{},
		flowSel:     FlowNotSelected{},
		stallWindow: progress.DefaultStallWindow,
	}
}

// WithProfile selects exactly one profile literally.
func (b *Builder) WithProfile(p itemspec.Profile) *Builder {
	b.profileSel = ProfileSelected{Profile: p}
	return b
}

// WithProfileFromWorkspaceParam selects the single active profile by
// looking key up in the deserialized workspace params.
func (b *Builder) WithProfileFromWorkspaceParam(key string) *Builder {
	b.profileSel = ProfileFromWorkspaceParam{Key: key}
	return b
}

// WithProfileFilter selects every profile directory under the app dir
// for which predicate returns true (a multi-profile scope).
func (b *Builder) WithProfileFilter(predicate func(itemspec.Profile) bool) *Builder {
	b.profileSel = ProfileFilter{Predicate: predicate}
	return b
}

// WithFlow selects flowID, whose item graph has already been built as
// graph (graph construction — registering item specs and edges — is the
// caller's responsibility; the builder only validates the selection is
// legal for the resolved scope).
func (b *Builder) WithFlow(flowID itemspec.FlowID, graph *flow.Graph) *Builder {
	b.flowSel = FlowSelected{Flow: flowID}
	b.flowGraph = graph
	return b
}

// WithStateRegistries supplies the current/ensured/cleaned and desired
// type registries used to revive saved states from disk.
func (b *Builder) WithStateRegistries(stateRegs, desiredRegs *typeregistry.Registry) *Builder {
	b.stateRegs = stateRegs
	b.desiredRegs = desiredRegs
	return b
}

// WithParamsRegistries supplies the type registries used to revive
// workspace/profile/flow params from disk. Any of the three may be nil
// if that params scope is statically empty (spec §3).
func (b *Builder) WithParamsRegistries(workspaceRegs, profileRegs, flowRegs *typeregistry.Registry) *Builder {
	b.workspaceParamsRegistry = workspaceRegs
	b.profileParamsRegistry = profileRegs
	b.flowParamsRegistry = flowRegs
	return b
}

// WithWorkspaceParamsOverride supplies caller overrides merged over the
// on-disk workspace params and persisted back (spec §4.8 step 5, "never
// overwrite with empty").
func (b *Builder) WithWorkspaceParamsOverride(p *storage.Params) *Builder {
	b.workspaceParamsOverride = p
	return b
}

// WithProfileParamsOverride is WithWorkspaceParamsOverride's profile-scoped
// counterpart.
func (b *Builder) WithProfileParamsOverride(p *storage.Params) *Builder {
	b.profileParamsOverride = p
	return b
}

// WithFlowParamsOverride is WithWorkspaceParamsOverride's flow-scoped
// counterpart.
func (b *Builder) WithFlowParamsOverride(p *storage.Params) *Builder {
	b.flowParamsOverride = p
	return b
}

// WithStallWindow overrides the default per-item progress stall window
// (Open Question 1: configurable, default 5s).
func (b *Builder) WithStallWindow(d time.Duration) *Builder {
	b.stallWindow = d
	return b
}

// Build validates the accumulated selections resolve to one of the five
// legal scopes (spec §4.8) and runs the staged build sequence, returning
// a fully populated Context or a peaceerrors.Configuration describing
// why the combination is illegal.
func (b *Builder) Build() (*Context, error) {
	scope, err := b.resolveScope()
	if err != nil {
		return nil, err
	}

	layout := workspace.NewLayout(b.app)
	ctx := &Context{Scope: scope, App: b.app, Root: b.root, Layout: layout, stateRegs: b.stateRegs, desiredRegs: b.desiredRegs}

	// Step 1 (directories already computed via Layout) + step 2: load and
	// merge workspace params.
	workspaceParams, err := loadAndMerge(b.root.FS, layout.WorkspaceParamsPath(), b.workspaceParamsRegistry, b.workspaceParamsOverride)
	if err != nil {
		return nil, err
	}
	ctx.WorkspaceParams = workspaceParams

	// Step 3: resolve profile(s).
	switch sel := b.profileSel.(type) {
	case ProfileNotSelected:
		// nothing to resolve
	case ProfileSelected:
		ctx.Profile = sel.Profile
	case ProfileFromWorkspaceParam:
		v, ok := workspaceParams.Get(sel.Key)
		if !ok {
			return nil, &peaceerrors.Configuration{Reason: "workspace param key not found for profile selection: " + sel.Key}
		}
		profileStr, ok := v.(string)
		if !ok {
			return nil, &peaceerrors.Configuration{Reason: "workspace param for profile selection is not a string: " + sel.Key}
		}
		p, err := itemspec.NewProfile(profileStr)
		if err != nil {
			return nil, err
		}
		ctx.Profile = p
	case ProfileFilter:
		all, err := listProfiles(b.root.FS, layout.AppDir())
		if err != nil {
			return nil, err
		}
		for _, p := range all {
			if sel.Predicate == nil || sel.Predicate(p) {
				ctx.Profiles = append(ctx.Profiles, p)
			}
		}
	}

	if scope == ScopeSingleProfileSingleFlow || scope == ScopeMultiProfileSingleFlow {
		ctx.Flow = b.flowGraph
	}

	// Step 4: create required directories (skipped for multi-profile
	// scopes, spec §4.8 step 4 "nothing new is being created").
	isSingleProfile := scope == ScopeSingleProfileNoFlow || scope == ScopeSingleProfileSingleFlow
	if isSingleProfile {
		if err := b.root.FS.MkdirAll(layout.ProfileDir(ctx.Profile), 0o755); err != nil {
			return nil, &peaceerrors.StorageIO{Path: layout.ProfileDir(ctx.Profile), Err: err}
		}
		if scope == ScopeSingleProfileSingleFlow {
			flowID := b.flowSel.(FlowSelected).Flow
			if err := workspace.EnsureFlowDir(b.root.FS, layout, ctx.Profile, flowID); err != nil {
				return nil, err
			}
		}
	}

	// Step 5: load profile params, merge overrides, persist.
	if isSingleProfile {
		profileParams, err := loadAndMerge(b.root.FS, layout.ProfileParamsPath(ctx.Profile), b.profileParamsRegistry, b.profileParamsOverride)
		if err != nil {
			return nil, err
		}
		ctx.ProfileParams = profileParams
	} else if scope == ScopeMultiProfileNoFlow || scope == ScopeMultiProfileSingleFlow {
		ctx.ProfileParamsByProfile = make(map[itemspec.Profile]*storage.Params, len(ctx.Profiles))
		for _, p := range ctx.Profiles {
			params, err := loadAndMerge(b.root.FS, layout.ProfileParamsPath(p), b.profileParamsRegistry, nil)
			if err != nil {
				return nil, err
			}
			ctx.ProfileParamsByProfile[p] = params
		}
	}

	// Step 6: load flow params (single-profile-single-flow only — a flow
	// is only ever addressed with a resolved single directory to read
	// overrides against).
	if scope == ScopeSingleProfileSingleFlow {
		flowID := b.flowSel.(FlowSelected).Flow
		flowParams, err := loadAndMerge(b.root.FS, layout.FlowParamsPath(ctx.Profile, flowID), b.flowParamsRegistry, b.flowParamsOverride)
		if err != nil {
			return nil, err
		}
		ctx.FlowParams = flowParams
	}

	// Steps 7/8: per-scope Resources/states wiring.
	switch scope {
	case ScopeSingleProfileSingleFlow:
		if err := b.buildSingleProfileSingleFlow(ctx, layout); err != nil {
			return nil, err
		}
	case ScopeMultiProfileSingleFlow:
		if err := b.buildMultiProfileSingleFlow(ctx, layout); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

func (b *Builder) resolveScope() (Scope, error) {
	_, profileSelected := b.profileSel.(ProfileSelected)
	_, profileFromParam := b.profileSel.(ProfileFromWorkspaceParam)
	_, profileFilter := b.profileSel.(ProfileFilter)
	_, profileNotSelected := b.profileSel.(ProfileNotSelected)
	_, flowSelected := b.flowSel.(FlowSelected)
	_, flowNotSelected := b.flowSel.(FlowNotSelected)

	singleProfile := profileSelected || profileFromParam

	switch {
	case profileNotSelected && flowNotSelected:
		return ScopeNoProfileNoFlow, nil
	case profileNotSelected && flowSelected:
		return 0, &peaceerrors.Configuration{Reason: "a flow cannot be selected without a profile"}
	case singleProfile && flowNotSelected:
		return ScopeSingleProfileNoFlow, nil
	case profileFilter && flowNotSelected:
		return ScopeMultiProfileNoFlow, nil
	case singleProfile && flowSelected:
		if b.flowGraph == nil {
			return 0, &peaceerrors.Configuration{Reason: "flow selected without a built item graph"}
		}
		return ScopeSingleProfileSingleFlow, nil
	case profileFilter && flowSelected:
		if b.flowGraph == nil {
			return 0, &peaceerrors.Configuration{Reason: "flow selected without a built item graph"}
		}
		return ScopeMultiProfileSingleFlow, nil
	default:
		return 0, &peaceerrors.Configuration{Reason: "unreachable profile/flow selection combination"}
	}
}

func (b *Builder) buildSingleProfileSingleFlow(ctx *Context, layout workspace.Layout) error {
	flowID := b.flowSel.(FlowSelected).Flow
	empty := resources.New()

	resources.Insert(empty, resources.Filesystem{FS: ctx.Root.FS})
	insertParams(empty, ctx.WorkspaceParams)
	insertParams(empty, ctx.ProfileParams)
	insertParams(empty, ctx.FlowParams)

	for _, item := range ctx.Flow.ItemsInOrder() {
		if err := item.Setup(empty); err != nil {
			return &peaceerrors.ItemFailure{ItemID: string(item.ID()), Cause: err}
		}
		item.StateRegister(b.stateRegs, b.desiredRegs)
	}

	ctx.Resources = resources.IntoSetUp(empty)

	saved, err := storage.ReadStates(b.root.FS, layout.StatesSavedPath(ctx.Profile, flowID), flowID, b.stateRegs)
	if err != nil {
		return err
	}
	ctx.StatesSaved = saved

	ctx.Trackers = make(map[itemspec.ID]*progress.Tracker, ctx.Flow.Len())
	for _, item := range ctx.Flow.ItemsInOrder() {
		ctx.Trackers[item.ID()] = progress.NewTracker(string(item.ID()), b.stallWindow, nil)
	}

	return nil
}

func (b *Builder) buildMultiProfileSingleFlow(ctx *Context, layout workspace.Layout) error {
	flowID := b.flowSel.(FlowSelected).Flow
	ctx.StatesSavedByProfile = make(map[itemspec.Profile]states.Map[states.Saved], len(ctx.Profiles))
	for _, p := range ctx.Profiles {
		saved, err := storage.ReadStates(b.root.FS, layout.StatesSavedPath(p, flowID), flowID, b.stateRegs)
		if err != nil {
			return err
		}
		ctx.StatesSavedByProfile[p] = saved
	}
	return nil
}

// insertParams boxes every entry of p into empty by its Go runtime type,
// since the Resources map is keyed by type rather than by the string key
// params are stored under on disk (spec §4.8 step 6).
func insertParams(empty resources.Map[resources.Empty], p *storage.Params) {
	if p == nil {
		return
	}
	for _, key := range p.Keys() {
		v, _ := p.Get(key)
		if v == nil {
			continue
		}
		resources.InsertRaw(empty, reflect.TypeOf(v), v)
	}
}

// loadAndMerge reads path via registry (an empty, valid Params if the
// file is absent; a nil registry is replaced by an empty one, so a
// present file with entries then fails to decode), merges override's entries on
// top (override wins, spec §4.8 step 5 "never overwrite with empty" — an
// empty override leaves the loaded value untouched since it simply has
// no keys to merge), and persists the merged result back to disk,
// skipping the write entirely when override is empty so an
// unconfigured params scope never gets an on-disk file.
func loadAndMerge(fs billy.Filesystem, path string, registry *typeregistry.Registry, override *storage.Params) (*storage.Params, error) {
	if registry == nil {
		registry = typeregistry.New()
	}
	loaded, err := storage.ReadParams(fs, path, registry)
	if err != nil {
		return nil, err
	}
	if override == nil || len(override.Keys()) == 0 {
		return loaded, nil
	}
	for _, key := range override.Keys() {
		v, _ := override.Get(key)
		tag, ok := override.Tag(key)
		if !ok || tag == "" {
			tag = reflect.TypeOf(v).Name()
		}
		loaded.Set(key, tag, v)
	}
	if err := storage.WriteParams(fs, path, loaded); err != nil {
		return nil, err
	}
	return loaded, nil
}

// listProfiles lists the directories directly under appDir, each naming
// a profile, for the ProfileFilter selection.
func listProfiles(fs billy.Filesystem, appDir string) ([]itemspec.Profile, error) {
	infos, err := fs.ReadDir(appDir)
	if err != nil {
		if billyIsNotExist(err) {
			return nil, nil
		}
		return nil, &peaceerrors.StorageIO{Path: appDir, Err: err}
	}
	var out []itemspec.Profile
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		p, err := itemspec.NewProfile(info.Name())
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func billyIsNotExist(err error) bool {
	return err != nil && (err.Error() == "file does not exist" || os.IsNotExist(err))
}
