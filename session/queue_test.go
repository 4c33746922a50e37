package session_test

import (
	"testing"
	"time"

	"globalinput/core"
	"globalinput/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateSink blocks every Send until release is closed.
type gateSink struct {
	collectSink
	release chan struct{}
}

func (g *gateSink) Send(ev core.Event) error {
	<-g.release
	return g.collectSink.Send(ev)
}

func TestQueueDoesNotBlockOnSlowSink(t *testing.T) {
	next := &gateSink{release: make(chan struct{})}
	q := session.NewQueue(next, 2, nil)

	sent := make(chan struct{})
	go func() {
		defer close(sent)
		for i := 0; i < 20; i++ {
			_ = q.Send(core.NewKeyEvent(int32(i), true))
		}
	}()
	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a slow sink")
	}
	assert.Positive(t, q.Dropped())

	close(next.release)
	require.NoError(t, q.Close())

	events, closed := next.snapshot()
	assert.Equal(t, 1, closed)
	assert.Equal(t, 20, len(events)+int(q.Dropped()))
	assert.Equal(t, core.NewKeyEvent(0, true), events[0])
}

func TestQueueClose(t *testing.T) {
	next := &collectSink{}
	q := session.NewQueue(next, 8, nil)
	require.NoError(t, q.Send(core.NewWheelEvent(1)))
	require.NoError(t, q.Send(core.NewWheelEvent(-1)))

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.ErrorIs(t, q.Send(core.NewWheelEvent(1)), session.ErrSinkClosed)

	events, closed := next.snapshot()
	assert.Equal(t, []core.Event{core.NewWheelEvent(1), core.NewWheelEvent(-1)}, events)
	assert.Equal(t, 1, closed)
}
