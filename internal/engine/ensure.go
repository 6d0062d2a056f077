package engine

import (
	"context"

	"github.com/peaceflow/peace/internal/cmdctx"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// Ensure drives every item in cc.Flow toward its desired state (spec
// §4.9 "Ensure/Clean"). Items already matching desired report a Success
// outcome carrying their unchanged saved state without invoking
// ApplyExec. Returns the run's Result and a Progress channel callers may
// range over concurrently to render per-item updates; Progress closes
// once the run finishes.
func Ensure(ctx context.Context, cc *cmdctx.Context, opts Options) (Result, Progress, error) {
	discoverDesired := func(opCtx itemspec.OpCtx, item rt.ItemSpecRt, cc *cmdctx.Context) (typeregistry.Boxed, error) {
		return item.StateDesiredExec(opCtx, cc.Resources)
	}
	check := func(item rt.ItemSpecRt, cc *cmdctx.Context, current, desired typeregistry.Boxed) (itemspec.OpCheckStatus, typeregistry.Boxed, error) {
		diff, err := item.StateDiffExec(cc.Resources, current, desired)
		if err != nil {
			return itemspec.OpCheckStatus{}, nil, err
		}
		status, err := item.ApplyCheck(cc.Resources, current, desired, diff)
		return status, diff, err
	}
	apply := func(opCtx itemspec.OpCtx, item rt.ItemSpecRt, cc *cmdctx.Context, current, desired, diff typeregistry.Boxed, dry bool) (typeregistry.Boxed, error) {
		if dry {
			return item.ApplyExecDry(opCtx, cc.Resources, current, desired, diff)
		}
		return item.ApplyExec(opCtx, cc.Resources, current, desired, diff)
	}
	return execInternal(ctx, cc, opts, discoverDesired, check, apply)
}
