package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"

	"globalinput/blocklist"
	"globalinput/config"
	"globalinput/core"
	"globalinput/listener"
	"globalinput/listener/gohook"
	"globalinput/synth/robotgo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	d, err := parseSize("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, 1920, d.W)
	assert.Equal(t, 1080, d.H)

	for _, bad := range []string{"", "1920", "0x10", "axb"} {
		_, err := parseSize(bad)
		assert.True(t, errors.Is(err, core.ErrInvalidRequest), bad)
	}
}

func TestFlagValue(t *testing.T) {
	assert.Equal(t, "38,40", flagValue([]any{38, 40}))
	assert.Equal(t, "true", flagValue(true))
	assert.Equal(t, "x.db", flagValue("x.db"))
}

func TestBackendSelection(t *testing.T) {
	src, err := newSource(config.Listener{Backend: config.BackendGohook}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &gohook.Source{}, src)

	src, err = newSource(config.Listener{Backend: config.BackendAuto}, testLogger())
	require.NoError(t, err)
	switch runtime.GOOS {
	case "linux", "windows":
		assert.IsType(t, &listener.Fallback{}, src)
	default:
		assert.IsType(t, &gohook.Source{}, src)
	}

	inj, err := newInjector(config.Synth{Backend: config.BackendRobotgo}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, robotgo.Injector{}, inj)
}

func TestNewBlocksFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.toml")
	require.NoError(t, blocklist.WriteFile(path, []int32{9, 10}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blocks, err := newBlocks(ctx, config.Blocklist{Keys: []int32{1}}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, blocks.Snapshot())

	blocks, err = newBlocks(ctx, config.Blocklist{Keys: []int32{1}, File: path}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []int32{9, 10}, blocks.Snapshot())

	_, err = newBlocks(ctx, config.Blocklist{File: filepath.Join(t.TempDir(), "missing.toml")}, testLogger())
	assert.Error(t, err)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
