package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"globalinput/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), withEmptyKeys(cfg))
}

// viper hands back an empty slice for the keys default
func withEmptyKeys(c config.Config) config.Config {
	if len(c.Blocklist.Keys) == 0 {
		c.Blocklist.Keys = nil
	}
	return c
}

func TestLoadFromTOML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[listener]
backend = "gohook"
grab = true

[host]
network = "unix"
address = "/tmp/globalinput.sock"

[blocklist]
keys = [38, 40]

[session]
clear_blocks_on_stop = true
`)))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, config.BackendGohook, cfg.Listener.Backend)
	assert.True(t, cfg.Listener.Grab)
	assert.Equal(t, "/dev/input", cfg.Listener.InputDir)
	assert.Equal(t, "unix", cfg.Host.Network)
	assert.Equal(t, []int32{38, 40}, cfg.Blocklist.Keys)
	assert.True(t, cfg.Session.ClearBlocksOnStop)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"listener backend", func(c *config.Config) { c.Listener.Backend = "robotgo" }},
		{"synth backend", func(c *config.Config) { c.Synth.Backend = "gohook" }},
		{"network", func(c *config.Config) { c.Host.Network = "udp" }},
		{"address", func(c *config.Config) { c.Host.Address = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, config.Default().Validate())
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", ".globalinput.toml")
	require.NoError(t, config.WriteExample(path))
	assert.Error(t, config.WriteExample(path), "existing file is not overwritten")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[host]")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), withEmptyKeys(cfg))
}
