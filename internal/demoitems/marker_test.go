package demoitems_test

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/demoitems"
	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/resources"
)

// setupMarker wires one Marker item through Setup into a SetUp Resources
// map backed by memfs, mirroring cmdctx.Builder's own wiring.
func setupMarker(t *testing.T, id string) (rt.ItemSpecRt, resources.Map[resources.SetUp]) {
	t.Helper()
	item := demoitems.NewMarker(itemspec.ID(id), "markers/"+id, "hello")
	empty := resources.New()
	resources.Insert(empty, resources.Filesystem{FS: memfs.New()})
	require.NoError(t, item.Setup(empty))
	return item, resources.IntoSetUp(empty)
}

func TestMarkerCreatesWhenAbsent(t *testing.T) {
	item, r := setupMarker(t, "marker1")
	opCtx := itemspec.NewOpCtx(context.Background(), item.ID(), nil)

	current, err := item.StateCurrentExec(opCtx, r)
	require.NoError(t, err)
	assert.Equal(t, demoitems.MarkerState{Present: false}, current)

	desired, err := item.StateDesiredExec(opCtx, r)
	require.NoError(t, err)
	assert.True(t, desired.(demoitems.MarkerState).Present)

	diff, err := item.StateDiffExec(r, current, desired)
	require.NoError(t, err)
	assert.True(t, diff.(demoitems.MarkerDiff).WillCreate)

	status, err := item.ApplyCheck(r, current, desired, diff)
	require.NoError(t, err)
	assert.True(t, status.Required())

	result, err := item.ApplyExec(opCtx, r, current, desired, diff)
	require.NoError(t, err)
	assert.Equal(t, desired, result)

	after, err := item.StateCurrentExec(opCtx, r)
	require.NoError(t, err)
	assert.Equal(t, result, after)
}

func TestMarkerCleanRemovesFile(t *testing.T) {
	item, r := setupMarker(t, "marker2")
	opCtx := itemspec.NewOpCtx(context.Background(), item.ID(), nil)

	desired, err := item.StateDesiredExec(opCtx, r)
	require.NoError(t, err)
	current, err := item.StateCurrentExec(opCtx, r)
	require.NoError(t, err)
	diff, err := item.StateDiffExec(r, current, desired)
	require.NoError(t, err)
	_, err = item.ApplyExec(opCtx, r, current, desired, diff)
	require.NoError(t, err)

	current, err = item.StateCurrentExec(opCtx, r)
	require.NoError(t, err)
	assert.True(t, current.(demoitems.MarkerState).Present)

	status, err := item.CleanCheck(r, current)
	require.NoError(t, err)
	assert.True(t, status.Required())

	cleaned, err := item.CleanExec(opCtx, r, current)
	require.NoError(t, err)
	assert.False(t, cleaned.(demoitems.MarkerState).Present)

	after, err := item.StateCurrentExec(opCtx, r)
	require.NoError(t, err)
	assert.False(t, after.(demoitems.MarkerState).Present)
}
