package progress_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/progress"
)

func TestTrackerHappyPath(t *testing.T) {
	tr := progress.NewTracker("item1", time.Hour, nil)
	assert.Equal(t, progress.StateInitialized, tr.State())

	require.NoError(t, tr.Dispatch())
	assert.Equal(t, progress.StateExecPending, tr.State())

	limit := uint64(10)
	require.NoError(t, tr.ApplyLimit(&limit))
	assert.Equal(t, progress.StateRunning, tr.State())

	require.NoError(t, tr.Delta(progress.Delta{Kind: progress.Inc, N: 5}))
	assert.Equal(t, progress.StateRunning, tr.State())

	require.NoError(t, tr.Complete(progress.Success))
	assert.Equal(t, progress.StateCompleteSuccess, tr.State())
}

func TestTrackerExecNotRequiredSkipsToComplete(t *testing.T) {
	tr := progress.NewTracker("item1", time.Hour, nil)
	require.NoError(t, tr.Dispatch())
	require.NoError(t, tr.Complete(progress.Success))
	assert.Equal(t, progress.StateCompleteSuccess, tr.State())
}

func TestTrackerStallAndRecover(t *testing.T) {
	stalled := make(chan struct{}, 1)
	tr := progress.NewTracker("item1", 10*time.Millisecond, func() {
		select {
		case stalled <- struct{}{}:
		default:
		}
	})
	require.NoError(t, tr.Dispatch())
	require.NoError(t, tr.ApplyLimit(nil))

	select {
	case <-stalled:
	case <-time.After(time.Second):
		t.Fatal("expected stall callback to fire")
	}
	assert.Equal(t, progress.StateRunningStalled, tr.State())

	require.NoError(t, tr.Delta(progress.Delta{Kind: progress.Tick}))
	assert.Equal(t, progress.StateRunning, tr.State())
}

func TestTrackerFailure(t *testing.T) {
	tr := progress.NewTracker("item1", time.Hour, nil)
	require.NoError(t, tr.Dispatch())
	require.NoError(t, tr.ApplyLimit(nil))
	require.NoError(t, tr.Complete(progress.Fail))
	assert.Equal(t, progress.StateCompleteFail, tr.State())
}

func TestTrackerUserPending(t *testing.T) {
	tr := progress.NewTracker("item1", time.Hour, nil)
	require.NoError(t, tr.Dispatch())
	require.NoError(t, tr.ApplyLimit(nil))
	require.NoError(t, tr.UserWait())
	assert.Equal(t, progress.StateUserPending, tr.State())
	require.NoError(t, tr.UserDone())
	assert.Equal(t, progress.StateRunning, tr.State())
}
