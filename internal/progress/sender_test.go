package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/progress"
)

func TestSenderIncAndTick(t *testing.T) {
	ch := make(chan progress.UpdateAndID, 10)
	s := progress.NewSender("item1", ch)

	s.Inc(7)
	s.Tick()

	upd := <-ch
	assert.Equal(t, "item1", upd.ItemID)
	assert.Equal(t, progress.UpdateDelta, upd.Update.Kind)
	assert.Equal(t, progress.Inc, upd.Update.Delta.Kind)
	assert.Equal(t, uint64(7), upd.Update.Delta.N)

	upd2 := <-ch
	assert.Equal(t, progress.Tick, upd2.Update.Delta.Kind)
}

func TestSenderDropsWhenChannelFull(t *testing.T) {
	ch := make(chan progress.UpdateAndID, 1)
	s := progress.NewSender("item1", ch)

	s.Tick()
	require.Len(t, ch, 1)
	// Channel is full; this send must not block.
	done := make(chan struct{})
	go func() {
		s.Tick()
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done
	assert.Len(t, ch, 1, "second update should have been dropped, not queued")
}

func TestSenderCompleteAndMessage(t *testing.T) {
	ch := make(chan progress.UpdateAndID, 10)
	s := progress.NewSender("item1", ch)

	s.Message("downloading")
	s.Complete(progress.Success)

	m := <-ch
	assert.Equal(t, progress.UpdateMessage, m.Update.Kind)
	assert.Equal(t, "downloading", m.Update.Message)

	c := <-ch
	assert.Equal(t, progress.UpdateComplete, c.Update.Kind)
	assert.Equal(t, progress.Success, c.Update.Complete)
}

func TestNilSenderDoesNotPanic(t *testing.T) {
	var s *progress.Sender
	assert.NotPanics(t, func() {
		s.Tick()
		s.Inc(1)
		s.Limit(nil)
		s.Message("x")
		s.Complete(progress.Success)
	})
}
