package engine

import (
	"context"

	"github.com/peaceflow/peace/internal/cmdctx"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// Clean tears down every item in cc.Flow toward its clean (absent) state
// (spec §4.9 "Ensure/Clean"). The "desired" state an item is driven
// toward is its own StateClean result rather than a discovered desired
// state; diff is unused (CleanCheck/CleanExec compare only against
// current).
func Clean(ctx context.Context, cc *cmdctx.Context, opts Options) (Result, Progress, error) {
	discoverDesired := func(opCtx itemspec.OpCtx, item rt.ItemSpecRt, cc *cmdctx.Context) (typeregistry.Boxed, error) {
		return item.StateClean(cc.Resources)
	}
	check := func(item rt.ItemSpecRt, cc *cmdctx.Context, current, desired typeregistry.Boxed) (itemspec.OpCheckStatus, typeregistry.Boxed, error) {
		status, err := item.CleanCheck(cc.Resources, current)
		return status, nil, err
	}
	apply := func(opCtx itemspec.OpCtx, item rt.ItemSpecRt, cc *cmdctx.Context, current, desired, diff typeregistry.Boxed, dry bool) (typeregistry.Boxed, error) {
		if dry {
			return item.CleanExecDry(opCtx, cc.Resources, current)
		}
		return item.CleanExec(opCtx, cc.Resources, current)
	}
	return execInternal(ctx, cc, opts, discoverDesired, check, apply)
}
