package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"globalinput/dispatch"
	"globalinput/host"
	"globalinput/synth"
)

var serveQueue int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the method and event channels to remote clients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&serveQueue, "queue", 1024, "events buffered per client before dropping")
}

func serve(ctx context.Context) (err error) {
	ctrl, err := newController(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	inj, err := newInjector(cfg.Synth, logger)
	if err != nil {
		return err
	}
	s := synth.New(inj, logger)
	defer func() { err = multierr.Append(err, s.Close()) }()

	ln, err := listen(cfg.Host.Network, cfg.Host.Address)
	if err != nil {
		return err
	}
	d := dispatch.New(s, ctrl.Blocks(), logger)
	logger.Info("host ready", "network", cfg.Host.Network, "addr", cfg.Host.Address, "methods", d.Methods())
	return host.New(d, ctrl, host.Options{QueueSize: serveQueue, Logger: logger}).Serve(ctx, ln)
}

func listen(network, address string) (net.Listener, error) {
	if network == "unix" {
		// a socket left by a previous run blocks the bind
		if err := os.Remove(address); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("listen %s %s: %w", network, address, err)
	}
	return ln, nil
}
