package client_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"globalinput/blocklist"
	"globalinput/client"
	"globalinput/core"
	"globalinput/dispatch"
	"globalinput/host"
	"globalinput/listener"
	"globalinput/session"
	"globalinput/synth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) MoveAbsolute(x, y int32) error  { return r.record("abs %d,%d", x, y) }
func (r *recorder) MoveRelative(dx, dy int32) error { return r.record("rel %d,%d", dx, dy) }
func (r *recorder) Button(a core.MouseAction, b core.Button) error {
	return r.record("button %s %s", b, a)
}
func (r *recorder) Key(code int32, down bool) error { return r.record("key %d %t", code, down) }
func (r *recorder) Scroll(delta int32) error        { return r.record("scroll %d", delta) }
func (r *recorder) Close() error                    { return nil }

type hostFixture struct {
	src    *listener.Simulated
	blocks *blocklist.Store
	ctrl   *session.Controller
	remote *recorder
	addr   string
}

func startHost(t *testing.T) *hostFixture {
	t.Helper()
	f := &hostFixture{src: listener.NewSimulated(), blocks: blocklist.New(), remote: &recorder{}}
	f.ctrl = session.New(listener.New(f.src, f.blocks, nil), f.blocks, session.Options{})
	srv := host.New(dispatch.New(synth.New(f.remote, nil), f.blocks, nil), f.ctrl, host.Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f.addr = ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return f
}

func connect(t *testing.T, addr string) *client.Client {
	t.Helper()
	c, err := client.Dial(context.Background(), "tcp", addr, client.DialOptions{MaxElapsed: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestInvoke(t *testing.T) {
	f := startHost(t)
	c := connect(t, f.addr)
	ctx := context.Background()

	require.NoError(t, c.Invoke(ctx, dispatch.MethodSimulateMouse, map[string]any{"type": "move", "x": 5, "y": 6}))
	assert.Equal(t, []string{"abs 5,6"}, f.remote.snapshot())

	require.NoError(t, c.Invoke(ctx, dispatch.MethodSetBlockedKeys, []int{1, 2}))
	assert.Equal(t, []int32{1, 2}, f.blocks.Snapshot())

	err := c.Invoke(ctx, "getClipboard", nil)
	assert.True(t, errors.Is(err, core.ErrNotImplemented))
}

func TestListenAndCancel(t *testing.T) {
	f := startHost(t)
	c := connect(t, f.addr)
	ctx := context.Background()

	events, err := c.Listen(ctx)
	require.NoError(t, err)

	f.src.Inject(core.NewKeyEvent(30, true))
	f.src.Inject(core.NewWheelEvent(-3))

	assert.Equal(t, core.NewKeyEvent(30, true), <-events)
	assert.Equal(t, core.NewWheelEvent(-1), <-events)

	require.NoError(t, c.Cancel(ctx))
	_, open := <-events
	assert.False(t, open)
	assert.False(t, f.ctrl.Active())
}

func TestListenAgainKeepsNewStream(t *testing.T) {
	f := startHost(t)
	c := connect(t, f.addr)
	ctx := context.Background()

	first, err := c.Listen(ctx)
	require.NoError(t, err)
	second, err := c.Listen(ctx)
	require.NoError(t, err)

	_, open := <-first
	assert.False(t, open)

	f.src.Inject(core.NewKeyEvent(65, true))
	select {
	case ev, open := <-second:
		require.True(t, open)
		assert.Equal(t, core.NewKeyEvent(65, true), ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no event on the second stream")
	}
	assert.True(t, f.ctrl.Active())
}

func TestTakeoverClosesStream(t *testing.T) {
	f := startHost(t)
	first := connect(t, f.addr)
	second := connect(t, f.addr)
	ctx := context.Background()

	events, err := first.Listen(ctx)
	require.NoError(t, err)
	_, err = second.Listen(ctx)
	require.NoError(t, err)

	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("first stream was not ended")
	}
}

func TestHostGoesAway(t *testing.T) {
	server, conn := net.Pipe()
	c := client.New(conn, client.DialOptions{})
	require.NoError(t, server.Close())

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the closed connection")
	}
	err := c.Invoke(context.Background(), dispatch.MethodClearBlockedKeys, nil)
	assert.True(t, errors.Is(err, client.ErrClosed))
}

func TestDialGivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = client.Dial(context.Background(), "tcp", addr, client.DialOptions{})
	assert.Error(t, err)
}

func TestMirror(t *testing.T) {
	from := core.DisplayInfo{W: 1000, H: 500}
	to := core.DisplayInfo{W: 2000, H: 1000}

	tests := []struct {
		name string
		opts client.MirrorOptions
		in   []core.Event
		want []string
	}{
		{
			name: "absolute scaled",
			opts: client.MirrorOptions{From: from, To: to},
			in: []core.Event{
				core.NewMouseMoveEvent(100, 50),
				core.NewMouseButtonEvent(core.MouseDown, core.ButtonRight, 10, 10),
				core.NewKeyEvent(65, true),
				core.NewWheelEvent(1),
			},
			want: []string{"abs 200,100", "abs 20,20", "button right down", "key 65 true", "scroll 1"},
		},
		{
			name: "relative amplified",
			opts: client.MirrorOptions{Relative: true, Amplify: 2},
			in: []core.Event{
				core.NewMouseMoveEvent(10, 10),
				core.NewMouseMoveEvent(13, 9),
				core.NewMouseMoveEvent(13, 9),
				core.NewMouseButtonEvent(core.MouseUp, core.ButtonLeft, 13, 9),
			},
			want: []string{"rel 6,-2", "button left up"},
		},
		{
			name: "coalesced until the next button",
			opts: client.MirrorOptions{Relative: true, Coalesce: time.Hour},
			in: []core.Event{
				core.NewMouseMoveEvent(0, 0),
				core.NewMouseMoveEvent(2, 1),
				core.NewMouseMoveEvent(5, 1),
				core.NewMouseButtonEvent(core.MouseDown, core.ButtonLeft, 5, 1),
				core.NewMouseMoveEvent(6, 3),
			},
			want: []string{"rel 5,1", "button left down", "rel 1,2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			events := make(chan core.Event, len(tt.in))
			for _, ev := range tt.in {
				events <- ev
			}
			close(events)

			require.NoError(t, client.Mirror(context.Background(), events, synth.New(rec, nil), tt.opts))
			assert.Equal(t, tt.want, rec.snapshot())
		})
	}
}

func TestMirrorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Mirror(ctx, make(chan core.Event), synth.New(&recorder{}, nil), client.MirrorOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
