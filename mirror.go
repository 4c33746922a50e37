package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"globalinput/client"
	"globalinput/core"
	"globalinput/synth"
)

var (
	mirrorFrom     string
	mirrorRelative bool
	mirrorAmplify  float64
	mirrorCoalesce time.Duration
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Replay a remote host's input on this machine",
	Long: `mirror subscribes to the event channel of a running host and injects every
event locally. With --from the remote screen size is given so that pointer
positions land on the same relative spot of the local virtual screen.`,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := client.MirrorOptions{
			Relative: mirrorRelative,
			Amplify:  mirrorAmplify,
			Coalesce: mirrorCoalesce,
			Logger:   logger,
		}
		if mirrorFrom != "" {
			if opts.From, err = parseSize(mirrorFrom); err != nil {
				return err
			}
			opts.To = core.VirtualBounds(core.GetScreenSizes())
		}

		inj, err := newInjector(cfg.Synth, logger)
		if err != nil {
			return err
		}
		s := synth.New(inj, logger)
		defer func() { err = multierr.Append(err, s.Close()) }()

		c, err := dialHost(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		events, err := c.Listen(ctx)
		if err != nil {
			return err
		}
		logger.Info("mirroring", "host", cfg.Host.Address, "relative", opts.Relative)
		err = client.Mirror(ctx, events, s, opts)
		if errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
	f := mirrorCmd.Flags()
	f.StringVar(&mirrorFrom, "from", "", "remote screen size as WIDTHxHEIGHT")
	f.BoolVar(&mirrorRelative, "relative", false, "replay pointer motion as relative moves")
	f.Float64Var(&mirrorAmplify, "amplify", 1, "multiplier for relative motion")
	f.DurationVar(&mirrorCoalesce, "coalesce", 0, "merge relative motion over this interval")
}

func parseSize(s string) (core.DisplayInfo, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return core.DisplayInfo{}, fmt.Errorf("%w: size %q is not WIDTHxHEIGHT", core.ErrInvalidRequest, s)
	}
	return core.DisplayInfo{Id: -1, W: w, H: h}, nil
}
