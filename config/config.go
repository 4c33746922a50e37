// Package config holds the process configuration loaded through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	BackendAuto    = "auto"
	BackendNative  = "native"
	BackendGohook  = "gohook"
	BackendRobotgo = "robotgo"
)

type Config struct {
	Log       Log       `mapstructure:"log" toml:"log"`
	Listener  Listener  `mapstructure:"listener" toml:"listener"`
	Synth     Synth     `mapstructure:"synth" toml:"synth"`
	Session   Session   `mapstructure:"session" toml:"session"`
	Host      Host      `mapstructure:"host" toml:"host"`
	Blocklist Blocklist `mapstructure:"blocklist" toml:"blocklist"`
	Record    Record    `mapstructure:"record" toml:"record"`
}

type Log struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

type Listener struct {
	// Backend is auto, native or gohook.
	Backend  string `mapstructure:"backend" toml:"backend"`
	Grab     bool   `mapstructure:"grab" toml:"grab"`
	InputDir string `mapstructure:"input_dir" toml:"input_dir"`
	Display  string `mapstructure:"display" toml:"display"`
}

type Synth struct {
	// Backend is auto, native or robotgo.
	Backend string `mapstructure:"backend" toml:"backend"`
	Display string `mapstructure:"display" toml:"display"`
}

type Session struct {
	ClearBlocksOnStop bool `mapstructure:"clear_blocks_on_stop" toml:"clear_blocks_on_stop"`
}

type Host struct {
	Network string `mapstructure:"network" toml:"network"`
	Address string `mapstructure:"address" toml:"address"`
}

type Blocklist struct {
	// File is watched and reloaded into the block list when set.
	File string  `mapstructure:"file" toml:"file"`
	Keys []int32 `mapstructure:"keys" toml:"keys"`
}

type Record struct {
	Path string `mapstructure:"path" toml:"path"`
}

func Default() Config {
	return Config{
		Log:      Log{Level: "info", Format: "text"},
		Listener: Listener{Backend: BackendAuto, InputDir: "/dev/input"},
		Synth:    Synth{Backend: BackendAuto},
		Host:     Host{Network: "tcp", Address: "127.0.0.1:50310"},
	}
}

// SetDefaults registers Default() with v so that unset keys fall back to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("listener.backend", d.Listener.Backend)
	v.SetDefault("listener.grab", d.Listener.Grab)
	v.SetDefault("listener.input_dir", d.Listener.InputDir)
	v.SetDefault("listener.display", d.Listener.Display)
	v.SetDefault("synth.backend", d.Synth.Backend)
	v.SetDefault("synth.display", d.Synth.Display)
	v.SetDefault("session.clear_blocks_on_stop", d.Session.ClearBlocksOnStop)
	v.SetDefault("host.network", d.Host.Network)
	v.SetDefault("host.address", d.Host.Address)
	v.SetDefault("blocklist.file", d.Blocklist.File)
	v.SetDefault("blocklist.keys", []int32{})
	v.SetDefault("record.path", d.Record.Path)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Listener.Backend) {
	case BackendAuto, BackendNative, BackendGohook:
	default:
		return fmt.Errorf("listener.backend: unknown backend %q", c.Listener.Backend)
	}
	switch strings.ToLower(c.Synth.Backend) {
	case BackendAuto, BackendNative, BackendRobotgo:
	default:
		return fmt.Errorf("synth.backend: unknown backend %q", c.Synth.Backend)
	}
	switch c.Host.Network {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return fmt.Errorf("host.network: unsupported network %q", c.Host.Network)
	}
	if c.Host.Address == "" {
		return fmt.Errorf("host.address is empty")
	}
	return nil
}

// WriteExample writes the default configuration to path as TOML. An existing
// file is left alone.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(Default()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
