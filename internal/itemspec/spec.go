package itemspec

import (
	"github.com/peaceflow/peace/internal/resources"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// Spec is the trait surface every managed item implements (spec §4.3). It
// is parameterized by the four associated semantic types named in spec
// §3: State (current or desired — same type), StateDiff (a description of
// change), Params (caller-supplied configuration), and Data (the view
// over the Resources map the item declares it reads/writes).
//
// Go generics cannot erase four independent type parameters behind one
// non-generic interface without a wrapper, so component D
// (internal/itemspec/rt) performs that erasure; Spec itself stays fully
// typed, matching design note §9's "encoded as generic parameters" option.
type Spec[State, StateDiff, Params, Data any] interface {
	// ID returns the stable item id.
	ID() ID

	// Setup inserts this item's defaults and markers into the empty
	// Resources map, run once per command-context build.
	Setup(resources.Map[resources.Empty]) error

	// StateRegister advertises this item's State and StateDiff types to
	// the two type registries (current/ensured/cleaned, and desired).
	StateRegister(stateRegs *typeregistry.Registry, desiredRegs *typeregistry.Registry)

	// StateClean returns the abstract "absent" state for this item —
	// the state clean_exec should converge the current state toward.
	StateClean(resources.Map[resources.SetUp]) (State, error)

	// StateCurrentTryExec discovers the current state of the managed
	// item. Returns (nil-ish zero value, false, nil) when discovery
	// lacks prerequisites (e.g. an upstream resource hasn't been
	// created yet) rather than treating that as an error.
	StateCurrentTryExec(OpCtx, Data) (State, bool, error)

	// StateCurrentExec discovers the current state, used when the
	// caller has already established prerequisites are satisfied.
	StateCurrentExec(OpCtx, Data) (State, error)

	// StateDesiredTryExec computes the desired state for this item,
	// returning false when desired state cannot yet be computed.
	StateDesiredTryExec(OpCtx, Data) (State, bool, error)

	// StateDesiredExec computes the desired state for this item.
	StateDesiredExec(OpCtx, Data) (State, error)

	// StateDiffExec is a pure comparator: given a view over resources
	// and the two states, it returns a description of the change
	// between them. Must be referentially transparent (spec §4.3).
	StateDiffExec(Data, State, State) (StateDiff, error)

	// ApplyCheck is a cheap pre-flight check: does current already
	// equal desired (modulo diff)? Must not mutate (spec §4.3).
	ApplyCheck(Data, State, State, StateDiff) (OpCheckStatus, error)

	// ApplyExecDry mirrors ApplyExec without performing real side
	// effects, returning the State that would result.
	ApplyExecDry(OpCtx, Data, State, State, StateDiff) (State, error)

	// ApplyExec performs the transition from current toward desired.
	// Must be idempotent: applying to a state already equal to desired
	// must succeed and return that state unchanged (spec §4.3).
	ApplyExec(OpCtx, Data, State, State, StateDiff) (State, error)

	// CleanCheck is ApplyCheck's symmetric pair for tear-down.
	CleanCheck(Data, State) (OpCheckStatus, error)

	// CleanExecDry mirrors CleanExec without side effects.
	CleanExecDry(OpCtx, Data, State) (State, error)

	// CleanExec tears the managed item down toward its clean state.
	CleanExec(OpCtx, Data, State) (State, error)
}
