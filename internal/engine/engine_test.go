package engine_test

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/cmdctx"
	"github.com/peaceflow/peace/internal/engine"
	"github.com/peaceflow/peace/internal/flow"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/resources"
	"github.com/peaceflow/peace/internal/typeregistry"
	"github.com/peaceflow/peace/internal/workspace"
)

// fakeItem is a configurable rt.ItemSpecRt used to drive engine behavior
// under test; every hook defaults to a no-op so tests only set what they
// need.
type fakeItem struct {
	id itemspec.ID

	applyCheckFn func() (itemspec.OpCheckStatus, error)
	applyExecFn  func() (typeregistry.Boxed, error)
	cleanCheckFn func() (itemspec.OpCheckStatus, error)
	cleanExecFn  func() (typeregistry.Boxed, error)
	desiredFn    func() (typeregistry.Boxed, error)
	cleanStateFn func() (typeregistry.Boxed, error)
}

func (f *fakeItem) ID() itemspec.ID  { return f.id }
func (f *fakeItem) StateTag() string { return "fake_state" }
func (f *fakeItem) DiffTag() string  { return "fake_diff" }
func (f *fakeItem) Setup(resources.Map[resources.Empty]) error { return nil }
func (f *fakeItem) StateRegister(_, _ *typeregistry.Registry)  {}
func (f *fakeItem) StateClean(resources.Map[resources.SetUp]) (typeregistry.Boxed, error) {
	if f.cleanStateFn != nil {
		return f.cleanStateFn()
	}
	return "clean", nil
}
func (f *fakeItem) StateCurrentTryExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, bool, error) {
	return nil, true, nil
}
func (f *fakeItem) StateCurrentExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, error) {
	return nil, nil
}
func (f *fakeItem) StateDesiredTryExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, bool, error) {
	return nil, true, nil
}
func (f *fakeItem) StateDesiredExec(itemspec.OpCtx, resources.Map[resources.SetUp]) (typeregistry.Boxed, error) {
	if f.desiredFn != nil {
		return f.desiredFn()
	}
	return "desired", nil
}
func (f *fakeItem) StateDiffExec(resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed) (typeregistry.Boxed, error) {
	return "diff", nil
}
func (f *fakeItem) ApplyCheck(resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed, typeregistry.Boxed) (itemspec.OpCheckStatus, error) {
	if f.applyCheckFn != nil {
		return f.applyCheckFn()
	}
	return itemspec.ExecRequired(nil), nil
}
func (f *fakeItem) ApplyExecDry(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed, typeregistry.Boxed) (typeregistry.Boxed, error) {
	return f.ApplyExec(itemspec.OpCtx{}, nil, nil, nil, nil)
}
func (f *fakeItem) ApplyExec(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed, typeregistry.Boxed, typeregistry.Boxed) (typeregistry.Boxed, error) {
	if f.applyExecFn != nil {
		return f.applyExecFn()
	}
	return "applied", nil
}
func (f *fakeItem) CleanCheck(resources.Map[resources.SetUp], typeregistry.Boxed) (itemspec.OpCheckStatus, error) {
	if f.cleanCheckFn != nil {
		return f.cleanCheckFn()
	}
	return itemspec.ExecRequired(nil), nil
}
func (f *fakeItem) CleanExecDry(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed) (typeregistry.Boxed, error) {
	return f.CleanExec(itemspec.OpCtx{}, nil, nil)
}
func (f *fakeItem) CleanExec(itemspec.OpCtx, resources.Map[resources.SetUp], typeregistry.Boxed) (typeregistry.Boxed, error) {
	if f.cleanExecFn != nil {
		return f.cleanExecFn()
	}
	return "cleaned", nil
}

var _ rt.ItemSpecRt = (*fakeItem)(nil)

func newRoot() *workspace.Root {
	return &workspace.Root{Path: "/ws", FS: memfs.New()}
}

func buildContext(t *testing.T, items ...*fakeItem) *cmdctx.Context {
	t.Helper()
	b := flow.NewBuilder(itemspec.FlowID("deploy"))
	for _, it := range items {
		require.NoError(t, b.AddItem(it))
	}
	graph, err := b.Build()
	require.NoError(t, err)

	ctx, err := cmdctx.New(itemspec.AppName("myapp"), newRoot()).
		WithProfile(itemspec.Profile("dev")).
		WithFlow(itemspec.FlowID("deploy"), graph).
		WithStateRegistries(typeregistry.New(), typeregistry.New()).
		Build()
	require.NoError(t, err)
	return ctx
}

func TestEnsureAppliesWhenRequired(t *testing.T) {
	item := &fakeItem{id: itemspec.ID("item1")}
	cc := buildContext(t, item)

	result, progressCh, err := engine.Ensure(context.Background(), cc, engine.Options{})
	require.NoError(t, err)
	for range progressCh {
	}

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, itemspec.ID("item1"), result.Outcomes[0].ItemID)
	assert.NoError(t, result.Outcomes[0].Err)
	assert.Equal(t, "applied", result.Outcomes[0].State)
	assert.Equal(t, 1, result.States.Len())
}

func TestEnsureSkipsApplyWhenNotRequired(t *testing.T) {
	item := &fakeItem{
		id:           itemspec.ID("item1"),
		applyCheckFn: func() (itemspec.OpCheckStatus, error) { return itemspec.ExecNotRequired(), nil },
		applyExecFn: func() (typeregistry.Boxed, error) {
			t.Fatal("ApplyExec must not run when ApplyCheck reports not required")
			return nil, nil
		},
	}
	cc := buildContext(t, item)

	result, progressCh, err := engine.Ensure(context.Background(), cc, engine.Options{})
	require.NoError(t, err)
	for range progressCh {
	}

	require.Len(t, result.Outcomes, 1)
	assert.NoError(t, result.Outcomes[0].Err)
}

func TestEnsurePropagatesApplyError(t *testing.T) {
	item := &fakeItem{
		id: itemspec.ID("item1"),
		applyExecFn: func() (typeregistry.Boxed, error) {
			return nil, assertError{}
		},
	}
	cc := buildContext(t, item)

	result, progressCh, err := engine.Ensure(context.Background(), cc, engine.Options{})
	require.Error(t, err)
	for range progressCh {
	}

	require.Len(t, result.Outcomes, 1)
	assert.Error(t, result.Outcomes[0].Err)
}

func TestEnsureDryRunDoesNotPersist(t *testing.T) {
	item := &fakeItem{id: itemspec.ID("item1")}
	cc := buildContext(t, item)

	_, progressCh, err := engine.Ensure(context.Background(), cc, engine.Options{DryRun: true})
	require.NoError(t, err)
	for range progressCh {
	}

	_, statErr := cc.Root.FS.Stat(cc.Layout.StatesSavedPath(cc.Profile, cc.Flow.ID()))
	assert.Error(t, statErr)
}

func TestCleanAppliesWhenRequired(t *testing.T) {
	item := &fakeItem{id: itemspec.ID("item1")}
	cc := buildContext(t, item)

	result, progressCh, err := engine.Clean(context.Background(), cc, engine.Options{})
	require.NoError(t, err)
	for range progressCh {
	}

	require.Len(t, result.Outcomes, 1)
	assert.NoError(t, result.Outcomes[0].Err)
	assert.Equal(t, "cleaned", result.Outcomes[0].State)
}

func TestDiffComparesSavedAndDesired(t *testing.T) {
	item := &fakeItem{id: itemspec.ID("item1")}
	cc := buildContext(t, item)

	diffs, err := engine.Diff(cc)
	require.NoError(t, err)
	assert.Equal(t, 1, diffs.Len())
	val, ok := diffs.Get(itemspec.ID("item1"))
	require.True(t, ok)
	assert.Equal(t, "diff", val)
}

func TestStatesDesiredDiscoversWithoutPersisting(t *testing.T) {
	item := &fakeItem{id: itemspec.ID("item1")}
	cc := buildContext(t, item)

	desired, err := engine.StatesDesired(context.Background(), cc)
	require.NoError(t, err)
	assert.Equal(t, 1, desired.Len())

	_, statErr := cc.Root.FS.Stat(cc.Layout.StatesSavedPath(cc.Profile, cc.Flow.ID()))
	assert.Error(t, statErr)
}

type assertError struct{}

func (assertError) Error() string { return "forced failure" }
