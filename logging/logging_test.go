package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"globalinput/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONWithContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	ctx := logging.AppendCtx(context.Background(), slog.Int("conn", 3))
	logger.With("component", "host").DebugContext(ctx, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "host", rec["component"])
	assert.Equal(t, float64(3), rec["conn"])
	assert.Equal(t, "v", rec["k"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Info("quiet")
	assert.Empty(t, buf.String())
	logger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestBadOptions(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "chatty"})
	assert.Error(t, err)
	_, err = logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestAppendCtxDoesNotShareAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	require.NoError(t, err)

	base := logging.PackageCtx("host")
	a := logging.AppendCtx(base, slog.String("side", "a"))
	_ = logging.AppendCtx(base, slog.String("side", "b"))

	logger.InfoContext(a, "x")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "a", rec["side"])
	assert.Equal(t, "host", rec[logging.PackageName])
}
