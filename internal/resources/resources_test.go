package resources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/resources"
)

type profileCount int

func TestInsertAndGet(t *testing.T) {
	m := resources.New()
	resources.Insert(m, profileCount(3))

	got, ok := resources.Get[profileCount](m)
	require.True(t, ok)
	assert.Equal(t, profileCount(3), got)
}

func TestInsertReplacesPrevious(t *testing.T) {
	m := resources.New()
	resources.Insert(m, profileCount(1))
	resources.Insert(m, profileCount(2))

	got, ok := resources.Get[profileCount](m)
	require.True(t, ok)
	assert.Equal(t, profileCount(2), got)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	m := resources.New()
	_, ok := resources.Get[profileCount](m)
	assert.False(t, ok)
}

func TestBorrowMutExclusiveConflict(t *testing.T) {
	m := resources.New()
	resources.Insert(m, profileCount(1))

	_, release, err := resources.BorrowMut[profileCount](m)
	require.NoError(t, err)
	defer release()

	_, _, err = resources.Borrow[profileCount](m)
	assert.Error(t, err)

	_, _, err = resources.BorrowMut[profileCount](m)
	assert.Error(t, err)
}

func TestBorrowSharedAllowsMultiple(t *testing.T) {
	m := resources.New()
	resources.Insert(m, profileCount(1))

	_, release1, err := resources.Borrow[profileCount](m)
	require.NoError(t, err)
	defer release1()

	_, release2, err := resources.Borrow[profileCount](m)
	require.NoError(t, err)
	defer release2()

	_, _, err = resources.BorrowMut[profileCount](m)
	assert.Error(t, err)
}

func TestBorrowMutReleaseWritesBack(t *testing.T) {
	m := resources.New()
	resources.Insert(m, profileCount(1))

	val, release, err := resources.BorrowMut[profileCount](m)
	require.NoError(t, err)
	*val = profileCount(42)
	release()

	got, ok := resources.Get[profileCount](m)
	require.True(t, ok)
	assert.Equal(t, profileCount(42), got)
}

func TestBorrowThenReleaseAllowsExclusive(t *testing.T) {
	m := resources.New()
	resources.Insert(m, profileCount(1))

	_, release, err := resources.Borrow[profileCount](m)
	require.NoError(t, err)
	release()

	_, release2, err := resources.BorrowMut[profileCount](m)
	require.NoError(t, err)
	release2()
}

func TestPhaseTransitions(t *testing.T) {
	empty := resources.New()
	resources.Insert(empty, profileCount(5))

	setUp := resources.IntoSetUp(empty)
	withDesired := resources.IntoWithStatesDesired(setUp)
	withDiffs := resources.IntoWithStatesSavedDiffs(withDesired)

	got, ok := resources.Get[profileCount](withDiffs)
	require.True(t, ok)
	assert.Equal(t, profileCount(5), got)
}
