//go:build linux

package listener

import (
	"errors"
	"testing"

	"globalinput/blocklist"
	"globalinput/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	written []inputEvent
	err     error
}

func (w *recordingWriter) write(ie inputEvent) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, ie)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newGrabbingSource(w eventWriter, blocked ...int32) (*evdevSource, *[]core.Event) {
	var seen []core.Event
	l := New(NewSimulated(), blocklist.New(blocked...), nil)
	l.emit = func(ev core.Event) { seen = append(seen, ev) }
	s := &evdevSource{
		opts:     NativeOptions{Grab: true},
		logger:   l.logger,
		uinput:   w,
		dispatch: l.handle,
	}
	return s, &seen
}

func TestGrabbedKeyboardForwarding(t *testing.T) {
	// KEY_A is X keycode 38
	const keyA, keyB = 30, 48
	syn := inputEvent{evSyn, synReport, 0}

	tests := []struct {
		name    string
		grabbed bool
		in      []inputEvent
		want    []inputEvent
	}{
		{
			name:    "blocked key down and up are held back",
			grabbed: true,
			in:      []inputEvent{{evKey, keyA, 1}, syn, {evKey, keyA, 0}, syn},
			want:    []inputEvent{syn, syn},
		},
		{
			name:    "blocked key autorepeat is held back",
			grabbed: true,
			in:      []inputEvent{{evKey, keyA, 2}, syn},
			want:    []inputEvent{syn},
		},
		{
			name:    "other keys pass through",
			grabbed: true,
			in:      []inputEvent{{evKey, keyB, 1}, syn, {evKey, keyB, 0}, syn},
			want:    []inputEvent{{evKey, keyB, 1}, syn, {evKey, keyB, 0}, syn},
		},
		{
			name:    "ungrabbed device never writes",
			grabbed: false,
			in:      []inputEvent{{evKey, keyA, 1}, {evKey, keyB, 1}, syn},
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWriter{}
			s, seen := newGrabbingSource(w, 38)
			dev := &evdevDevice{grabbed: tt.grabbed, mapper: evdevMapper{pointer: &fixedPointer{}}}

			for _, ie := range tt.in {
				s.handle(dev, ie)
			}
			assert.Equal(t, tt.want, w.written)
			// suppressed keys are still reported
			for _, ev := range *seen {
				assert.Equal(t, core.KindKey, ev.Kind())
			}
			assert.NotEmpty(t, *seen)
		})
	}
}

func TestGrabbedForwardFailureKeepsReading(t *testing.T) {
	w := &recordingWriter{err: errors.New("uinput gone")}
	s, seen := newGrabbingSource(w)
	dev := &evdevDevice{grabbed: true, mapper: evdevMapper{pointer: &fixedPointer{}}}

	s.handle(dev, inputEvent{evKey, 30, 1})
	s.handle(dev, inputEvent{evKey, 30, 0})
	require.Len(t, *seen, 2)
	assert.Equal(t, core.NewKeyEvent(38, false), (*seen)[1])
}
