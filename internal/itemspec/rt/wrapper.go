// Package rt implements the item-spec runtime wrapper (spec §4.4): one
// heap-allocated object per flow-graph node that erases its concrete
// itemspec.Spec's State/StateDiff/Params/Data types behind a uniform,
// non-generic interface so the flow graph (component E) and command
// engine (component I) can hold heterogeneous items in one slice.
//
// Grounded on crate/rt_model/src/item_spec_rt.rs, whose ItemSpecRt trait
// performs exactly this erasure via dyn-compatible async-trait methods
// that pass boxed display/clone values (BoxDtDisplay) instead of the
// concrete State/StateDiff types.
package rt

import (
	"fmt"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/peaceerrors"
	"github.com/peaceflow/peace/internal/resources"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// ItemSpecRt is the uniform, non-generic interface the flow graph and
// command engine operate on. Every method boxes its State/StateDiff
// return values as typeregistry.Boxed, tagged internally by StateTag /
// DiffTag so component F/G can record and persist them without knowing
// the concrete Go type.
type ItemSpecRt interface {
	ID() itemspec.ID
	StateTag() string
	DiffTag() string

	Setup(resources.Map[resources.Empty]) error
	StateRegister(stateRegs, desiredRegs *typeregistry.Registry)

	StateClean(resources.Map[resources.SetUp]) (typeregistry.Boxed, error)
	StateCurrentTryExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, bool, error)
	StateCurrentExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, error)
	StateDesiredTryExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, bool, error)
	StateDesiredExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, error)

	StateDiffExec(resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed) (typeregistry.Boxed, error)

	ApplyCheck(resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed, typeregistry.Boxed) (itemspec.OpCheckStatus, error)
	ApplyExecDry(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed, typeregistry.Boxed) (typeregistry.Boxed, error)
	ApplyExec(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed, typeregistry.Boxed) (typeregistry.Boxed, error)

	CleanCheck(resources.Map[resources.SetUp], typeregistry.Boxed) (itemspec.OpCheckStatus, error)
	CleanExecDry(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed) (typeregistry.Boxed, error)
	CleanExec(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed) (typeregistry.Boxed, error)
}

// DataBuilder constructs an item spec's declared Data view by borrowing
// whatever it needs from the Resources map (spec §3 "Data: a view over
// the resources map, declaring which resources are read and which are
// written"). Item specs supply this alongside their Spec implementation
// because only they know which types to borrow.
type DataBuilder[Data any] func(resources.Map[resources.SetUp]) (Data, error)

// Wrapper implements ItemSpecRt for one concrete itemspec.Spec
// instantiation. Id is a phantom disambiguator: two Wrappers can share
// identical State/StateDiff/Params/Data types yet remain distinct graph
// nodes when Id differs, matching spec §4.4 "Phantom parameters keep item
// specs with identical associated types distinct".
type Wrapper[State, StateDiff, Params, Data, Id any] struct {
	spec       itemspec.Spec[State, StateDiff, Params, Data]
	dataBuild  DataBuilder[Data]
	stateTag   string
	diffTag    string
}

// New wraps spec, tagging its State and StateDiff types for the
// registries and storage layer. stateTag/diffTag are the registry tags
// this item spec registers in StateRegister.
func New[State, StateDiff, Params, Data, Id any](
	spec itemspec.Spec[State, StateDiff, Params, Data],
	dataBuild DataBuilder[Data],
	stateTag, diffTag string,
) *Wrapper[State, StateDiff, Params, Data, Id] {
	return &Wrapper[State, StateDiff, Params, Data, Id]{
		spec:      spec,
		dataBuild: dataBuild,
		stateTag:  stateTag,
		diffTag:   diffTag,
	}
}

var _ ItemSpecRt = (*Wrapper[struct{}, struct{}, struct{}, struct{}, struct{}])(nil)

func (w *Wrapper[State, StateDiff, Params, Data, Id]) ID() itemspec.ID { return w.spec.ID() }
func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateTag() string { return w.stateTag }
func (w *Wrapper[State, StateDiff, Params, Data, Id]) DiffTag() string  { return w.diffTag }

func (w *Wrapper[State, StateDiff, Params, Data, Id]) Setup(r resources.Map[resources.Empty]) error {
	return w.spec.Setup(r)
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateRegister(stateRegs, desiredRegs *typeregistry.Registry) {
	w.spec.StateRegister(stateRegs, desiredRegs)
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateClean(r resources.Map[resources.SetUp]) (typeregistry.Boxed, error) {
	s, err := w.spec.StateClean(r)
	return s, err
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) data(r resources.Map[resources.SetUp]) (Data, error) {
	return w.dataBuild(r)
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateCurrentTryExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp],
) (typeregistry.Boxed, bool, error) {
	d, err := w.data(r)
	if err != nil {
		return nil, false, w.itemErr(err)
	}
	s, ok, err := w.spec.StateCurrentTryExec(ctx, d)
	if err != nil {
		return nil, false, w.itemErr(err)
	}
	return s, ok, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateCurrentExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp],
) (typeregistry.Boxed, error) {
	d, err := w.data(r)
	if err != nil {
		return nil, w.itemErr(err)
	}
	s, err := w.spec.StateCurrentExec(ctx, d)
	if err != nil {
		return nil, w.itemErr(err)
	}
	return s, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateDesiredTryExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp],
) (typeregistry.Boxed, bool, error) {
	d, err := w.data(r)
	if err != nil {
		return nil, false, w.itemErr(err)
	}
	s, ok, err := w.spec.StateDesiredTryExec(ctx, d)
	if err != nil {
		return nil, false, w.itemErr(err)
	}
	return s, ok, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateDesiredExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp],
) (typeregistry.Boxed, error) {
	d, err := w.data(r)
	if err != nil {
		return nil, w.itemErr(err)
	}
	s, err := w.spec.StateDesiredExec(ctx, d)
	if err != nil {
		return nil, w.itemErr(err)
	}
	return s, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) StateDiffExec(
	r resources.Map[resources.SetUp], a, b typeregistry.Boxed,
) (typeregistry.Boxed, error) {
	d, err := w.data(r)
	if err != nil {
		return nil, w.itemErr(err)
	}
	aState, err := w.downcastState(a)
	if err != nil {
		return nil, w.itemErr(err)
	}
	bState, err := w.downcastState(b)
	if err != nil {
		return nil, w.itemErr(err)
	}
	diff, err := w.spec.StateDiffExec(d, aState, bState)
	if err != nil {
		return nil, w.itemErr(err)
	}
	return diff, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) ApplyCheck(
	r resources.Map[resources.SetUp], current, desired, diff typeregistry.Boxed,
) (itemspec.OpCheckStatus, error) {
	d, err := w.data(r)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	c, err := w.downcastState(current)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	des, err := w.downcastState(desired)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	diffVal, err := w.downcastDiff(diff)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	status, err := w.spec.ApplyCheck(d, c, des, diffVal)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	return status, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) ApplyExecDry(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp], current, desired, diff typeregistry.Boxed,
) (typeregistry.Boxed, error) {
	return w.applyExec(ctx, r, current, desired, diff, true)
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) ApplyExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp], current, desired, diff typeregistry.Boxed,
) (typeregistry.Boxed, error) {
	return w.applyExec(ctx, r, current, desired, diff, false)
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) applyExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp], current, desired, diff typeregistry.Boxed, dry bool,
) (typeregistry.Boxed, error) {
	d, err := w.data(r)
	if err != nil {
		return nil, w.itemErr(err)
	}
	c, err := w.downcastState(current)
	if err != nil {
		return nil, w.itemErr(err)
	}
	des, err := w.downcastState(desired)
	if err != nil {
		return nil, w.itemErr(err)
	}
	diffVal, err := w.downcastDiff(diff)
	if err != nil {
		return nil, w.itemErr(err)
	}
	var result State
	if dry {
		result, err = w.spec.ApplyExecDry(ctx, d, c, des, diffVal)
	} else {
		result, err = w.spec.ApplyExec(ctx, d, c, des, diffVal)
	}
	if err != nil {
		return nil, w.itemErr(err)
	}
	return result, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) CleanCheck(
	r resources.Map[resources.SetUp], current typeregistry.Boxed,
) (itemspec.OpCheckStatus, error) {
	d, err := w.data(r)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	c, err := w.downcastState(current)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	status, err := w.spec.CleanCheck(d, c)
	if err != nil {
		return itemspec.OpCheckStatus{}, w.itemErr(err)
	}
	return status, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) CleanExecDry(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp], current typeregistry.Boxed,
) (typeregistry.Boxed, error) {
	return w.cleanExec(ctx, r, current, true)
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) CleanExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp], current typeregistry.Boxed,
) (typeregistry.Boxed, error) {
	return w.cleanExec(ctx, r, current, false)
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) cleanExec(
	ctx itemspec.OpCtx, r resources.Map[resources.SetUp], current typeregistry.Boxed, dry bool,
) (typeregistry.Boxed, error) {
	d, err := w.data(r)
	if err != nil {
		return nil, w.itemErr(err)
	}
	c, err := w.downcastState(current)
	if err != nil {
		return nil, w.itemErr(err)
	}
	var result State
	if dry {
		result, err = w.spec.CleanExecDry(ctx, d, c)
	} else {
		result, err = w.spec.CleanExec(ctx, d, c)
	}
	if err != nil {
		return nil, w.itemErr(err)
	}
	return result, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) downcastState(b typeregistry.Boxed) (State, error) {
	var zero State
	if b == nil {
		return zero, nil
	}
	s, ok := b.(State)
	if !ok {
		return zero, fmt.Errorf("item %q: expected state type %T, got %T", w.ID(), zero, b)
	}
	return s, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) downcastDiff(b typeregistry.Boxed) (StateDiff, error) {
	var zero StateDiff
	if b == nil {
		return zero, nil
	}
	d, ok := b.(StateDiff)
	if !ok {
		return zero, fmt.Errorf("item %q: expected diff type %T, got %T", w.ID(), zero, b)
	}
	return d, nil
}

func (w *Wrapper[State, StateDiff, Params, Data, Id]) itemErr(err error) error {
	if err == nil {
		return nil
	}
	return &peaceerrors.ItemFailure{ItemID: string(w.spec.ID()), Cause: err}
}
