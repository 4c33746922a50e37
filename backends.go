package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"globalinput/blocklist"
	"globalinput/config"
	"globalinput/core"
	"globalinput/listener"
	"globalinput/listener/gohook"
	"globalinput/session"
	"globalinput/synth"
	"globalinput/synth/robotgo"
)

// newSource picks the listener source for the configured backend. "auto"
// prefers the native source and falls back to gohook where there is none, or
// where the native one is refused at attach time.
func newSource(c config.Listener, logger *slog.Logger) (listener.Source, error) {
	backend := strings.ToLower(c.Backend)
	if backend == config.BackendGohook {
		return gohook.New(c.Display, logger), nil
	}
	src, err := listener.NewNative(listener.NativeOptions{
		InputDir: c.InputDir,
		Display:  c.Display,
		Grab:     c.Grab,
		Logger:   logger,
	})
	if err == nil {
		if backend == config.BackendAuto {
			return listener.NewFallback(src, gohook.New(c.Display, logger), logger), nil
		}
		return src, nil
	}
	if backend == config.BackendAuto && errors.Is(err, core.ErrNotAvailable) {
		logger.Info("no native listener on this platform, using gohook")
		return gohook.New(c.Display, logger), nil
	}
	return nil, fmt.Errorf("listener backend %s: %w", c.Backend, err)
}

func newInjector(c config.Synth, logger *slog.Logger) (synth.Injector, error) {
	backend := strings.ToLower(c.Backend)
	if backend == config.BackendRobotgo {
		return robotgo.New(), nil
	}
	inj, err := synth.NewNative(synth.NativeOptions{Display: c.Display, Logger: logger})
	if err == nil {
		return inj, nil
	}
	if backend == config.BackendAuto && errors.Is(err, core.ErrNotAvailable) {
		logger.Info("no native injector on this platform, using robotgo")
		return robotgo.New(), nil
	}
	return nil, fmt.Errorf("synth backend %s: %w", c.Backend, err)
}

// newBlocks builds the block list from the config. A configured block file
// replaces the configured keys and is followed until ctx is done.
func newBlocks(ctx context.Context, c config.Blocklist, logger *slog.Logger) (*blocklist.Store, error) {
	blocks := blocklist.New(c.Keys...)
	if c.File == "" {
		return blocks, nil
	}
	if err := blocklist.Watch(ctx, c.File, blocks, logger); err != nil {
		return nil, err
	}
	return blocks, nil
}

func newController(ctx context.Context, c config.Config, extraBlocks []int32, logger *slog.Logger) (*session.Controller, error) {
	bc := c.Blocklist
	bc.Keys = append(append([]int32(nil), bc.Keys...), extraBlocks...)
	blocks, err := newBlocks(ctx, bc, logger)
	if err != nil {
		return nil, err
	}
	src, err := newSource(c.Listener, logger)
	if err != nil {
		return nil, err
	}
	return session.New(
		listener.New(src, blocks, logger),
		blocks,
		session.Options{ClearBlocksOnStop: c.Session.ClearBlocksOnStop, Logger: logger},
	), nil
}
