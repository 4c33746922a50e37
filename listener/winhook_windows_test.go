//go:build windows

package listener

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"globalinput/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetachKeepsStateUntilThreadQuits(t *testing.T) {
	orig := postQuit
	t.Cleanup(func() { postQuit = orig })

	s := &hookSource{
		logger:   slog.Default(),
		dispatch: func(core.Event) bool { return false },
		done:     make(chan struct{}),
	}
	s.running.Store(true)
	require.True(t, activeHook.CompareAndSwap(nil, s))
	t.Cleanup(func() { activeHook.CompareAndSwap(s, nil) })

	posts := 0
	postQuit = func(uint32) error {
		posts++
		return errors.New("queue full")
	}
	require.Error(t, s.Detach())
	assert.Greater(t, posts, 1, "post is retried")
	assert.True(t, s.running.Load())
	assert.Same(t, s, activeHook.Load())

	other := &hookSource{logger: slog.Default()}
	assert.Error(t, other.Attach(context.Background(), func(core.Event) bool { return false }))

	postQuit = func(uint32) error {
		close(s.done)
		return nil
	}
	require.NoError(t, s.Detach())
	assert.False(t, s.running.Load())
	assert.Nil(t, activeHook.Load())
	assert.NoError(t, s.Detach())
}
