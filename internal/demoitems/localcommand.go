package demoitems

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/resources"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// LocalCommandParams configures a LocalCommand item: a probe command
// whose exit code reports whether the managed condition currently holds,
// and an apply command run to converge toward it when it doesn't.
type LocalCommandParams struct {
	ProbeCommand string   `yaml:"probeCommand"`
	ProbeArgs    []string `yaml:"probeArgs"`
	ApplyCommand string   `yaml:"applyCommand"`
	ApplyArgs    []string `yaml:"applyArgs"`
}

// LocalCommandState reports whether the probe command exited zero.
type LocalCommandState struct {
	Satisfied bool   `yaml:"satisfied"`
	Output    string `yaml:"output"`
}

// LocalCommandDiff describes whether applying is needed.
type LocalCommandDiff struct {
	NeedsApply bool `yaml:"needsApply"`
}

type localCommandData struct {
	params LocalCommandParams
}

type localCommandSpec struct {
	id itemspec.ID
}

// NewLocalCommand constructs the runtime-erased LocalCommand item spec
// registered under id, adapted from jmgilman-sow/libs/exec's
// LocalExecutor (Command/Exists/RunContext) directly onto os/exec since
// the teacher's exec library is a separate, unpublished nested module
// (see DESIGN.md).
func NewLocalCommand(id itemspec.ID) rt.ItemSpecRt {
	spec := &localCommandSpec{id: id}
	build := func(r resources.Map[resources.SetUp]) (localCommandData, error) {
		params, _ := resources.Get[LocalCommandParams](r)
		return localCommandData{params: params}, nil
	}
	return rt.New[LocalCommandState, LocalCommandDiff, LocalCommandParams, localCommandData, struct{}](
		spec, build, "local_command", "local_command",
	)
}

func (s *localCommandSpec) ID() itemspec.ID { return s.id }

func (s *localCommandSpec) Setup(r resources.Map[resources.Empty]) error {
	if _, ok := resources.Get[LocalCommandParams](r); !ok {
		resources.Insert(r, LocalCommandParams{})
	}
	return nil
}

func (s *localCommandSpec) StateRegister(stateRegs, desiredRegs *typeregistry.Registry) {
	typeregistry.RegisterValue[LocalCommandState](stateRegs, "local_command")
	typeregistry.RegisterValue[LocalCommandState](desiredRegs, "local_command")
}

func (s *localCommandSpec) StateClean(resources.Map[resources.SetUp]) (LocalCommandState, error) {
	return LocalCommandState{Satisfied: false}, nil
}

func (s *localCommandSpec) StateCurrentTryExec(ctx itemspec.OpCtx, d localCommandData) (LocalCommandState, bool, error) {
	state, err := s.StateCurrentExec(ctx, d)
	return state, true, err
}

func (s *localCommandSpec) StateCurrentExec(ctx itemspec.OpCtx, d localCommandData) (LocalCommandState, error) {
	if d.params.ProbeCommand == "" {
		return LocalCommandState{Satisfied: false}, nil
	}
	stdout, _, err := runContext(ctx.Context(), d.params.ProbeCommand, d.params.ProbeArgs...)
	return LocalCommandState{Satisfied: err == nil, Output: stdout}, nil
}

func (s *localCommandSpec) StateDesiredTryExec(ctx itemspec.OpCtx, d localCommandData) (LocalCommandState, bool, error) {
	state, err := s.StateDesiredExec(ctx, d)
	return state, true, err
}

func (s *localCommandSpec) StateDesiredExec(itemspec.OpCtx, localCommandData) (LocalCommandState, error) {
	return LocalCommandState{Satisfied: true}, nil
}

func (s *localCommandSpec) StateDiffExec(_ localCommandData, current, desired LocalCommandState) (LocalCommandDiff, error) {
	return LocalCommandDiff{NeedsApply: current.Satisfied != desired.Satisfied}, nil
}

func (s *localCommandSpec) ApplyCheck(_ localCommandData, current, desired LocalCommandState, diff LocalCommandDiff) (itemspec.OpCheckStatus, error) {
	if !diff.NeedsApply {
		return itemspec.ExecNotRequired(), nil
	}
	return itemspec.ExecRequired(nil), nil
}

func (s *localCommandSpec) ApplyExecDry(_ itemspec.OpCtx, _ localCommandData, _, desired LocalCommandState, _ LocalCommandDiff) (LocalCommandState, error) {
	return desired, nil
}

func (s *localCommandSpec) ApplyExec(ctx itemspec.OpCtx, d localCommandData, _, desired LocalCommandState, _ LocalCommandDiff) (LocalCommandState, error) {
	if d.params.ApplyCommand == "" {
		return desired, nil
	}
	stdout, stderr, err := runContext(ctx.Context(), d.params.ApplyCommand, d.params.ApplyArgs...)
	if err != nil {
		return LocalCommandState{}, &commandFailure{command: d.params.ApplyCommand, stderr: stderr, cause: err}
	}
	return LocalCommandState{Satisfied: true, Output: stdout}, nil
}

func (s *localCommandSpec) CleanCheck(_ localCommandData, current LocalCommandState) (itemspec.OpCheckStatus, error) {
	if !current.Satisfied {
		return itemspec.ExecNotRequired(), nil
	}
	return itemspec.ExecRequired(nil), nil
}

func (s *localCommandSpec) CleanExecDry(_ itemspec.OpCtx, _ localCommandData, _ LocalCommandState) (LocalCommandState, error) {
	return LocalCommandState{Satisfied: false}, nil
}

func (s *localCommandSpec) CleanExec(_ itemspec.OpCtx, _ localCommandData, _ LocalCommandState) (LocalCommandState, error) {
	return LocalCommandState{Satisfied: false}, nil
}

var _ itemspec.Spec[LocalCommandState, LocalCommandDiff, LocalCommandParams, localCommandData] = (*localCommandSpec)(nil)

// runContext executes name with args, returning stdout/stderr, mirroring
// LocalExecutor.RunContext's stdout/stderr capture via bytes.Buffer.
func runContext(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

type commandFailure struct {
	command string
	stderr  string
	cause   error
}

func (e *commandFailure) Error() string {
	msg := "command " + e.command + " failed: " + e.cause.Error()
	if e.stderr != "" {
		msg += ": " + e.stderr
	}
	return msg
}

func (e *commandFailure) Unwrap() error { return e.cause }
