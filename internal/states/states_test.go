package states_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/states"
)

func TestBuilderPreservesInsertionOrder(t *testing.T) {
	b := states.NewBuilder()
	b.Insert(itemspec.ID("c"), "tag_c", "c-value")
	b.Insert(itemspec.ID("a"), "tag_a", "a-value")
	b.Insert(itemspec.ID("b"), "tag_b", "b-value")

	m := states.Freeze(b)
	entries := m.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, itemspec.ID("c"), entries[0].ID)
	assert.Equal(t, itemspec.ID("a"), entries[1].ID)
	assert.Equal(t, itemspec.ID("b"), entries[2].ID)
}

func TestBuilderInsertOverwritesInPlace(t *testing.T) {
	b := states.NewBuilder()
	b.Insert(itemspec.ID("a"), "tag_a", "first")
	b.Insert(itemspec.ID("b"), "tag_b", "second")
	b.Insert(itemspec.ID("a"), "tag_a", "updated")

	m := states.Freeze(b)
	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, itemspec.ID("a"), entries[0].ID)
	assert.Equal(t, "updated", entries[0].Value)
}

func TestGetAndTag(t *testing.T) {
	b := states.NewBuilder()
	b.Insert(itemspec.ID("a"), "marker_state", 42)
	m := states.Freeze(b)

	v, ok := m.Get(itemspec.ID("a"))
	require.True(t, ok)
	assert.Equal(t, 42, v)

	tag, ok := m.Tag(itemspec.ID("a"))
	require.True(t, ok)
	assert.Equal(t, "marker_state", tag)

	_, ok = m.Get(itemspec.ID("missing"))
	assert.False(t, ok)
}

func TestPhaseTransitions(t *testing.T) {
	b := states.NewBuilder()
	b.Insert(itemspec.ID("a"), "marker_state", "present")
	saved := states.Freeze(b)

	current := states.IntoCurrent(saved)
	ensured := states.IntoEnsured(current)

	v, ok := ensured.Get(itemspec.ID("a"))
	require.True(t, ok)
	assert.Equal(t, "present", v)
}
