package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"globalinput/synth"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Inject one synthetic input event locally",
}

var (
	mouseType   string
	mouseButton string
	mouseX      int32
	mouseY      int32
	mouseDX     int32
	mouseDY     int32
	mouseDeltaY int32
)

var simulateMouseCmd = &cobra.Command{
	Use:   "mouse",
	Short: "Move the pointer, press or release a button, or scroll",
	Example: `  globalinput simulate mouse --x 100 --y 200
  globalinput simulate mouse --dx -5
  globalinput simulate mouse --type down --button right
  globalinput simulate mouse --type wheel --delta-y -1`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		req := synth.MouseRequest{
			Type:   mouseType,
			Button: mouseButton,
			X:      changedInt32(flags, "x", mouseX),
			Y:      changedInt32(flags, "y", mouseY),
			DX:     changedInt32(flags, "dx", mouseDX),
			DY:     changedInt32(flags, "dy", mouseDY),
			DeltaY: changedInt32(flags, "delta-y", mouseDeltaY),
		}
		return withSynth(func(s *synth.Synthesizer) error { return s.Mouse(req) })
	},
}

var (
	keyCode int32
	keyUp   bool
)

var simulateKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Press or release a key by platform key code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		down := !keyUp
		req := synth.KeyRequest{KeyCode: changedInt32(cmd.Flags(), "code", keyCode), IsDown: &down}
		return withSynth(func(s *synth.Synthesizer) error { return s.Key(req) })
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.AddCommand(simulateMouseCmd, simulateKeyCmd)

	f := simulateMouseCmd.Flags()
	f.StringVar(&mouseType, "type", "move", "move, down, up or wheel")
	f.StringVar(&mouseButton, "button", "left", "left, right or middle")
	f.Int32Var(&mouseX, "x", 0, "absolute x; needs --y")
	f.Int32Var(&mouseY, "y", 0, "absolute y; needs --x")
	f.Int32Var(&mouseDX, "dx", 0, "relative x motion")
	f.Int32Var(&mouseDY, "dy", 0, "relative y motion")
	f.Int32Var(&mouseDeltaY, "delta-y", 0, "wheel notches, positive away from the user")

	simulateKeyCmd.Flags().Int32Var(&keyCode, "code", 0, "key code")
	simulateKeyCmd.Flags().BoolVar(&keyUp, "up", false, "release instead of press")
	cobra.CheckErr(simulateKeyCmd.MarkFlagRequired("code"))
}

// changedInt32 returns &v when the flag was given, nil otherwise.
func changedInt32(flags *pflag.FlagSet, name string, v int32) *int32 {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}

func withSynth(fn func(*synth.Synthesizer) error) (err error) {
	inj, err := newInjector(cfg.Synth, logger)
	if err != nil {
		return err
	}
	s := synth.New(inj, logger)
	defer func() { err = multierr.Append(err, s.Close()) }()
	return fn(s)
}
