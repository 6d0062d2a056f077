// Package engine implements the command engine (spec §4.9): Diff,
// Ensure, and Clean, the standalone procedures that drive a built
// cmdctx.Context's flow graph to completion.
//
// Grounded on crate/rt/src/cmds/ensure_cmd.rs's exec/exec_dry pair
// sharing one exec_internal, and crate/rt/src/cmds/states_desired_display_cmd.rs
// for the StatesDesired supplemental command (SPEC_FULL.md supplemental
// feature 2).
package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/peaceflow/peace/internal/cmdctx"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/progress"
	"github.com/peaceflow/peace/internal/states"
	"github.com/peaceflow/peace/internal/storage"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// ProgressCountMax bounds the progress channel's buffer, matching the
// original crate's PROGRESS_COUNT_MAX constant verbatim (spec §4.9 step
// 2, "progress channel (bounded, 256)").
const ProgressCountMax = 256

// Outcome is one item's final result from an Ensure or Clean run (spec
// §4.9 step 3's "outcome" concept): either the item's resulting state
// (on success, including the no-op "already matches desired" case) or
// the error it failed with.
type Outcome struct {
	ItemID itemspec.ID
	State  typeregistry.Boxed
	Err    error
}

// Options configures one Ensure or Clean invocation.
type Options struct {
	// DryRun runs ApplyExecDry/CleanExecDry instead of the real
	// ApplyExec/CleanExec, never mutating managed items nor persisting
	// states to disk (supplemental feature 1).
	DryRun bool
	// ErrorReporting is not read by the engine itself; it is carried for
	// callers that decide whether to format diagnostics around a returned
	// error (supplemental feature 4). peaceerrors.StatesDeserialize
	// carries a line and column, not a source excerpt.
	ErrorReporting bool
	// Logger receives per-item and per-run lifecycle events. Defaults to
	// a no-op logger ("logger is injected, never global").
	Logger *zap.Logger
}

// Result is the outcome of one Ensure or Clean run: every item's
// terminal outcome, in completion order, plus the resulting States map
// (already persisted to disk unless Options.DryRun was set).
type Result struct {
	Outcomes []Outcome
	States   states.Map[states.Saved]
}

// Progress is returned alongside a running Ensure/Clean call's result so
// a caller can render updates as they arrive; it is closed once the run
// completes.
type Progress <-chan progress.UpdateAndID

// Diff reads states_saved.yaml and states_desired.yaml from disk, diffs
// each item's saved state against its desired state, and returns the
// resulting StateDiffs map without mutating anything (spec §4.9 "Diff").
func Diff(cc *cmdctx.Context) (states.Map[states.SavedDiffs], error) {
	flowID := cc.Flow.ID()
	saved, err := storage.ReadStates(cc.Root.FS, cc.Layout.StatesSavedPath(cc.Profile, flowID), flowID, cc.StateRegistry())
	if err != nil {
		return states.Map[states.SavedDiffs]{}, err
	}
	desired, err := storage.ReadStates(cc.Root.FS, cc.Layout.StatesDesiredPath(cc.Profile, flowID), flowID, cc.DesiredRegistry())
	if err != nil {
		return states.Map[states.SavedDiffs]{}, err
	}

	b := states.NewBuilder()
	for _, item := range cc.Flow.ItemsInOrder() {
		current, _ := saved.Get(item.ID())
		des, _ := desired.Get(item.ID())
		diff, err := item.StateDiffExec(cc.Resources, current, des)
		if err != nil {
			return states.Map[states.SavedDiffs]{}, err
		}
		b.Insert(item.ID(), item.DiffTag(), diff)
	}

	return states.IntoSavedDiffs(states.Freeze(b)), nil
}

// StatesDesired discovers every item's desired state and returns it
// without diffing or persisting (supplemental feature 2,
// states_desired_display_cmd.rs).
func StatesDesired(ctx context.Context, cc *cmdctx.Context) (states.Map[states.Desired], error) {
	b := states.NewBuilder()
	for _, item := range cc.Flow.ItemsInOrder() {
		opCtx := itemspec.NewOpCtx(ctx, item.ID(), nil)
		desired, err := item.StateDesiredExec(opCtx, cc.Resources)
		if err != nil {
			return states.Map[states.Desired]{}, err
		}
		b.Insert(item.ID(), item.StateTag(), desired)
	}
	return states.IntoDesired(states.Freeze(b)), nil
}

// checkFn/applyFn abstract over the Ensure (apply) and Clean operation
// families so execInternal can drive either (component I design note:
// "Ensure/Clean share execInternal").
type desiredFn func(opCtx itemspec.OpCtx, item rt.ItemSpecRt, cc *cmdctx.Context) (typeregistry.Boxed, error)
type checkFn func(item rt.ItemSpecRt, cc *cmdctx.Context, current, desired typeregistry.Boxed) (itemspec.OpCheckStatus, typeregistry.Boxed, error)
type applyFn func(opCtx itemspec.OpCtx, item rt.ItemSpecRt, cc *cmdctx.Context, current, desired, diff typeregistry.Boxed, dry bool) (typeregistry.Boxed, error)

func execInternal(ctx context.Context, cc *cmdctx.Context, opts Options, discoverDesired desiredFn, check checkFn, apply applyFn) (Result, Progress, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := cc.Flow.Len()
	logger.Info("command started", zap.String("flow", string(cc.Flow.ID())), zap.Bool("dry_run", opts.DryRun), zap.Int("items", n))
	progressCh := make(chan progress.UpdateAndID, ProgressCountMax)
	progressOut := make(chan progress.UpdateAndID, ProgressCountMax)
	// Outcomes channel sized to the item count: spec §4.9 calls this
	// "unbounded" because the producer side never blocks on it in
	// practice — capacity n guarantees that here since at most n
	// outcomes are ever sent before the producer side finishes.
	outcomes := make(chan Outcome, n)

	savedByID := make(map[itemspec.ID]typeregistry.Boxed, n)
	for _, e := range cc.StatesSaved.Entries() {
		savedByID[e.ID] = e.Value
	}

	resultStates := states.NewBuilder()
	for _, e := range cc.StatesSaved.Entries() {
		resultStates.Insert(e.ID, e.Tag, e.Value)
	}

	var mu sync.Mutex
	var collected []Outcome

	// Progress fan-through: let the caller observe updates live while
	// execInternal still owns draining progressCh into progressOut.
	go func() {
		for u := range progressCh {
			progressOut <- u
		}
		close(progressOut)
	}()

	doneCollecting := make(chan struct{})
	go func() {
		defer close(doneCollecting)
		for o := range outcomes {
			mu.Lock()
			collected = append(collected, o)
			mu.Unlock()
			if o.State != nil {
				tag := resolveStateTag(cc, o.ItemID)
				resultStates.Insert(o.ItemID, tag, o.State)
			}
		}
	}()

	walkErr := cc.Flow.WalkConcurrent(ctx, 0, func(egCtx context.Context, i int) error {
		item := cc.Flow.ItemAt(i)
		tracker := cc.Trackers[item.ID()]
		sender := progress.NewSender(string(item.ID()), progressCh)
		opCtx := itemspec.NewOpCtx(egCtx, item.ID(), sender)

		logger.Debug("item discovering desired state", zap.String("item", string(item.ID())))
		current := savedByID[item.ID()]
		desired, err := discoverDesired(opCtx, item, cc)
		if err != nil {
			logger.Error("item desired-state discovery failed", zap.String("item", string(item.ID())), zap.Error(err))
			outcomes <- Outcome{ItemID: item.ID(), Err: err}
			return err
		}

		status, diff, err := check(item, cc, current, desired)
		if err != nil {
			logger.Error("item check failed", zap.String("item", string(item.ID())), zap.Error(err))
			outcomes <- Outcome{ItemID: item.ID(), Err: err}
			return err
		}

		if tracker != nil {
			_ = tracker.Dispatch()
		}

		if !status.Required() {
			logger.Debug("item already at desired state", zap.String("item", string(item.ID())))
			if tracker != nil {
				_ = tracker.Complete(progress.Success)
			}
			outcomes <- Outcome{ItemID: item.ID(), State: current}
			return nil
		}

		if tracker != nil {
			if limit, hasLimit := status.ProgressLimit(); hasLimit {
				_ = tracker.ApplyLimit(&limit)
			} else {
				_ = tracker.ApplyLimit(nil)
			}
		}

		logger.Debug("item executing", zap.String("item", string(item.ID())), zap.Bool("dry_run", opts.DryRun))
		result, err := apply(opCtx, item, cc, current, desired, diff, opts.DryRun)
		if err != nil {
			logger.Error("item execution failed", zap.String("item", string(item.ID())), zap.Error(err))
			if tracker != nil {
				_ = tracker.Complete(progress.Fail)
			}
			outcomes <- Outcome{ItemID: item.ID(), Err: err}
			return err
		}

		if tracker != nil {
			_ = tracker.Complete(progress.Success)
		}
		outcomes <- Outcome{ItemID: item.ID(), State: result}
		return nil
	})

	close(outcomes)
	<-doneCollecting
	close(progressCh)

	final := states.Freeze(resultStates)

	if !opts.DryRun {
		flowID := cc.Flow.ID()
		if err := storage.WriteStates(cc.Root.FS, cc.Layout.StatesSavedPath(cc.Profile, flowID), final); err != nil {
			logger.Error("failed to persist states", zap.Error(err))
			return Result{States: final, Outcomes: collected}, progressOut, err
		}
	}

	if walkErr != nil {
		logger.Warn("command finished with errors", zap.Error(walkErr))
	} else {
		logger.Info("command finished", zap.Int("outcomes", len(collected)))
	}

	return Result{States: final, Outcomes: collected}, progressOut, walkErr
}

func resolveStateTag(cc *cmdctx.Context, id itemspec.ID) string {
	for _, item := range cc.Flow.ItemsInOrder() {
		if item.ID() == id {
			return item.StateTag()
		}
	}
	return ""
}
