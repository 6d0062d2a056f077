package storage_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/peaceerrors"
	"github.com/peaceflow/peace/internal/states"
	"github.com/peaceflow/peace/internal/storage"
	"github.com/peaceflow/peace/internal/typeregistry"
)

type markerState struct {
	Present bool `yaml:"present"`
}

func markerRegistry() *typeregistry.Registry {
	r := typeregistry.New()
	typeregistry.RegisterValue[markerState](r, "marker_state")
	return r
}

func TestReadStatesMissingFileReturnsEmpty(t *testing.T) {
	fs := memfs.New()
	registry := markerRegistry()

	m, err := storage.ReadStates(fs, "states_saved.yaml", itemspec.FlowID("deploy"), registry)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestWriteThenReadStatesRoundTrips(t *testing.T) {
	fs := memfs.New()
	registry := markerRegistry()

	b := states.NewBuilder()
	b.Insert(itemspec.ID("item1"), "marker_state", markerState{Present: true})
	b.Insert(itemspec.ID("item2"), "marker_state", markerState{Present: false})
	saved := states.Freeze(b)

	require.NoError(t, storage.WriteStates(fs, "states_saved.yaml", saved))

	loaded, err := storage.ReadStates(fs, "states_saved.yaml", itemspec.FlowID("deploy"), registry)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	entries := loaded.Entries()
	assert.Equal(t, itemspec.ID("item1"), entries[0].ID)
	assert.Equal(t, markerState{Present: true}, entries[0].Value)
	assert.Equal(t, itemspec.ID("item2"), entries[1].ID)
	assert.Equal(t, markerState{Present: false}, entries[1].Value)
}

func TestReadStatesUnknownTagFails(t *testing.T) {
	fs := memfs.New()
	registry := typeregistry.New() // no tags registered

	b := states.NewBuilder()
	b.Insert(itemspec.ID("item1"), "marker_state", markerState{Present: true})
	require.NoError(t, storage.WriteStates(fs, "states_saved.yaml", states.Freeze(b)))

	_, err := storage.ReadStates(fs, "states_saved.yaml", itemspec.FlowID("deploy"), registry)
	require.Error(t, err)
	var deserErr *peaceerrors.StatesDeserialize
	require.ErrorAs(t, err, &deserErr)
	assert.Equal(t, "deploy", deserErr.FlowID)
}

func TestReadStatesMalformedYAMLFails(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("states_saved.yaml")
	require.NoError(t, err)
	_, err = f.Write([]byte("item1: [unterminated\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = storage.ReadStates(fs, "states_saved.yaml", itemspec.FlowID("deploy"), markerRegistry())
	require.Error(t, err)
}

func TestParamsRoundTrip(t *testing.T) {
	fs := memfs.New()
	registry := markerRegistry()

	p := storage.NewParams()
	p.Set("region", "marker_state", markerState{Present: true})
	require.NoError(t, storage.WriteParams(fs, "workspace_params.yaml", p))

	loaded, err := storage.ReadParams(fs, "workspace_params.yaml", registry)
	require.NoError(t, err)
	v, ok := loaded.Get("region")
	require.True(t, ok)
	assert.Equal(t, markerState{Present: true}, v)
}

func TestParamsMissingFileReturnsEmpty(t *testing.T) {
	fs := memfs.New()
	p, err := storage.ReadParams(fs, "workspace_params.yaml", markerRegistry())
	require.NoError(t, err)
	assert.Empty(t, p.Keys())
}
