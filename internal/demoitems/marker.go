// Package demoitems provides illustrative, file-system-backed item specs
// used for end-to-end exercise of the command engine: Marker (ensures or
// cleans a marker file) and LocalCommand (runs a local shell command to
// converge state). Neither is exposed through the CLI directly; cmd/peace
// wires them into a demo flow for smoke-testing ensure/clean/diff.
//
// Grounded on jmgilman-sow/libs/project/state/backend_yaml.go's
// ReadFile/WriteFile/Rename usage pattern, adapted from its
// jmgilman/go/fs/core wrapper onto the public go-billy/v5 filesystem (see
// DESIGN.md).
package demoitems

import (
	"errors"
	"os"

	"github.com/go-git/go-billy/v5/util"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/resources"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// MarkerParams configures a Marker item: the path (relative to the
// workspace root) of the file to ensure exists, and its contents.
type MarkerParams struct {
	Path     string `yaml:"path"`
	Contents string `yaml:"contents"`
}

// MarkerState describes whether the marker file is present and, if so,
// its contents.
type MarkerState struct {
	Present  bool   `yaml:"present"`
	Contents string `yaml:"contents"`
}

// MarkerDiff describes the change StateDiffExec found between two
// MarkerStates.
type MarkerDiff struct {
	WillCreate        bool `yaml:"willCreate"`
	WillRemove        bool `yaml:"willRemove"`
	ContentsWillChange bool `yaml:"contentsWillChange"`
}

type markerData struct {
	fs     resources.Filesystem
	params MarkerParams
}

// markerSpec implements itemspec.Spec for the Marker item.
type markerSpec struct {
	id           itemspec.ID
	defaultPath  string
	defaultBody  string
}

// NewMarker constructs the runtime-erased Marker item spec registered
// under id, reading a file at defaultPath (overridable via params)
// containing defaultBody.
func NewMarker(id itemspec.ID, defaultPath, defaultBody string) rt.ItemSpecRt {
	spec := &markerSpec{id: id, defaultPath: defaultPath, defaultBody: defaultBody}
	build := func(r resources.Map[resources.SetUp]) (markerData, error) {
		fsRes, ok := resources.Get[resources.Filesystem](r)
		if !ok {
			return markerData{}, errors.New("demoitems: no filesystem resource available")
		}
		params, _ := resources.Get[MarkerParams](r)
		return markerData{fs: fsRes, params: params}, nil
	}
	return rt.New[MarkerState, MarkerDiff, MarkerParams, markerData, struct{}](
		spec, build, "marker", "marker",
	)
}

func (s *markerSpec) ID() itemspec.ID { return s.id }

func (s *markerSpec) Setup(r resources.Map[resources.Empty]) error {
	if _, ok := resources.Get[MarkerParams](r); !ok {
		resources.Insert(r, MarkerParams{Path: s.defaultPath, Contents: s.defaultBody})
	}
	return nil
}

func (s *markerSpec) StateRegister(stateRegs, desiredRegs *typeregistry.Registry) {
	typeregistry.RegisterValue[MarkerState](stateRegs, "marker")
	typeregistry.RegisterValue[MarkerState](desiredRegs, "marker")
}

func (s *markerSpec) StateClean(resources.Map[resources.SetUp]) (MarkerState, error) {
	return MarkerState{Present: false}, nil
}

func (s *markerSpec) StateCurrentTryExec(ctx itemspec.OpCtx, d markerData) (MarkerState, bool, error) {
	state, err := s.StateCurrentExec(ctx, d)
	return state, true, err
}

func (s *markerSpec) StateCurrentExec(_ itemspec.OpCtx, d markerData) (MarkerState, error) {
	data, err := util.ReadFile(d.fs.FS, d.params.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return MarkerState{Present: false}, nil
		}
		return MarkerState{}, err
	}
	return MarkerState{Present: true, Contents: string(data)}, nil
}

func (s *markerSpec) StateDesiredTryExec(ctx itemspec.OpCtx, d markerData) (MarkerState, bool, error) {
	state, err := s.StateDesiredExec(ctx, d)
	return state, true, err
}

func (s *markerSpec) StateDesiredExec(_ itemspec.OpCtx, d markerData) (MarkerState, error) {
	return MarkerState{Present: true, Contents: d.params.Contents}, nil
}

func (s *markerSpec) StateDiffExec(_ markerData, current, desired MarkerState) (MarkerDiff, error) {
	return MarkerDiff{
		WillCreate:         !current.Present && desired.Present,
		WillRemove:         current.Present && !desired.Present,
		ContentsWillChange: current.Present && desired.Present && current.Contents != desired.Contents,
	}, nil
}

func (s *markerSpec) ApplyCheck(_ markerData, current, desired MarkerState, diff MarkerDiff) (itemspec.OpCheckStatus, error) {
	if current.Present == desired.Present && current.Contents == desired.Contents {
		return itemspec.ExecNotRequired(), nil
	}
	return itemspec.ExecRequired(nil), nil
}

func (s *markerSpec) ApplyExecDry(_ itemspec.OpCtx, _ markerData, _, desired MarkerState, _ MarkerDiff) (MarkerState, error) {
	return desired, nil
}

func (s *markerSpec) ApplyExec(_ itemspec.OpCtx, d markerData, _, desired MarkerState, _ MarkerDiff) (MarkerState, error) {
	if err := util.WriteFile(d.fs.FS, d.params.Path, []byte(desired.Contents), 0o644); err != nil {
		return MarkerState{}, err
	}
	return desired, nil
}

func (s *markerSpec) CleanCheck(_ markerData, current MarkerState) (itemspec.OpCheckStatus, error) {
	if !current.Present {
		return itemspec.ExecNotRequired(), nil
	}
	return itemspec.ExecRequired(nil), nil
}

func (s *markerSpec) CleanExecDry(_ itemspec.OpCtx, _ markerData, _ MarkerState) (MarkerState, error) {
	return MarkerState{Present: false}, nil
}

func (s *markerSpec) CleanExec(_ itemspec.OpCtx, d markerData, _ MarkerState) (MarkerState, error) {
	if err := d.fs.FS.Remove(d.params.Path); err != nil && !os.IsNotExist(err) {
		return MarkerState{}, err
	}
	return MarkerState{Present: false}, nil
}

var _ itemspec.Spec[MarkerState, MarkerDiff, MarkerParams, markerData] = (*markerSpec)(nil)
