// Package workspace resolves the workspace root directory (spec §5
// "Directory discovery") and lays out the on-disk `.peace/<app>/...`
// path hierarchy (spec §6 "On-disk layout") under it.
//
// Grounded on jmgilman-sow/libs/project/state's sentinel-based root
// discovery pattern, adapted from a single project file to the
// profile/flow-scoped directory tree spec §6 describes.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/peaceerrors"
)

// Root is a resolved workspace root: a directory plus a filesystem
// rooted at it, ready for internal/storage to read and write under.
type Root struct {
	Path string
	FS   billy.Filesystem
}

// FromCwd resolves the workspace root as the current working directory.
func FromCwd() (*Root, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, &peaceerrors.Workspace{Reason: "cannot read current directory: " + err.Error()}
	}
	return fromPath(dir)
}

// FromPath resolves the workspace root as the given explicit path.
func FromPath(path string) (*Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &peaceerrors.Workspace{Reason: "cannot resolve path: " + err.Error()}
	}
	return fromPath(abs)
}

// FromSentinel walks upward from the current working directory looking
// for the first ancestor containing sentinelFile, and resolves that
// ancestor as the workspace root.
func FromSentinel(sentinelFile string) (*Root, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, &peaceerrors.Workspace{Reason: "cannot read current directory: " + err.Error()}
	}

	for {
		candidate := filepath.Join(dir, sentinelFile)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return fromPath(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, &peaceerrors.Workspace{Reason: "sentinel file not found in any ancestor: " + sentinelFile}
		}
		dir = parent
	}
}

func fromPath(dir string) (*Root, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &peaceerrors.Workspace{Reason: "workspace root unreadable: " + err.Error()}
	}
	if !info.IsDir() {
		return nil, &peaceerrors.Workspace{Reason: "workspace root is not a directory: " + dir}
	}
	return &Root{Path: dir, FS: osfs.New(dir)}, nil
}

// Layout computes the `.peace/<app>/...` path hierarchy for one app,
// profile, and flow (spec §6's On-disk layout table). Paths returned are
// relative to Root.FS, which is itself rooted at Root.Path.
type Layout struct {
	app itemspec.AppName
}

// NewLayout returns a Layout for the given application name.
func NewLayout(app itemspec.AppName) Layout { return Layout{app: app} }

// AppDir is the root of this app's on-disk state: `.peace/<app>`.
func (l Layout) AppDir() string {
	return filepath.Join(".peace", string(l.app))
}

// WorkspaceParamsPath is `.peace/<app>/workspace_params.yaml`.
func (l Layout) WorkspaceParamsPath() string {
	return filepath.Join(l.AppDir(), "workspace_params.yaml")
}

// ProfileDir is `.peace/<app>/<profile>`.
func (l Layout) ProfileDir(profile itemspec.Profile) string {
	return filepath.Join(l.AppDir(), string(profile))
}

// ProfileParamsPath is `.peace/<app>/<profile>/profile_params.yaml`.
func (l Layout) ProfileParamsPath(profile itemspec.Profile) string {
	return filepath.Join(l.ProfileDir(profile), "profile_params.yaml")
}

// FlowDir is `.peace/<app>/<profile>/<flow>`.
func (l Layout) FlowDir(profile itemspec.Profile, flow itemspec.FlowID) string {
	return filepath.Join(l.ProfileDir(profile), string(flow))
}

// FlowParamsPath is `.peace/<app>/<profile>/<flow>/flow_params.yaml`.
func (l Layout) FlowParamsPath(profile itemspec.Profile, flow itemspec.FlowID) string {
	return filepath.Join(l.FlowDir(profile, flow), "flow_params.yaml")
}

// StatesSavedPath is `.peace/<app>/<profile>/<flow>/states_saved.yaml`.
func (l Layout) StatesSavedPath(profile itemspec.Profile, flow itemspec.FlowID) string {
	return filepath.Join(l.FlowDir(profile, flow), "states_saved.yaml")
}

// StatesDesiredPath is `.peace/<app>/<profile>/<flow>/states_desired.yaml`.
func (l Layout) StatesDesiredPath(profile itemspec.Profile, flow itemspec.FlowID) string {
	return filepath.Join(l.FlowDir(profile, flow), "states_desired.yaml")
}

// EnsureFlowDir creates the flow directory (and its ancestors) on fs if
// it does not already exist.
func EnsureFlowDir(fs billy.Filesystem, l Layout, profile itemspec.Profile, flow itemspec.FlowID) error {
	if err := fs.MkdirAll(l.FlowDir(profile, flow), 0o755); err != nil {
		return &peaceerrors.StorageIO{Path: l.FlowDir(profile, flow), Err: err}
	}
	return nil
}
