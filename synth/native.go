package synth

import "log/slog"

// NativeOptions configure the injector returned by NewNative.
type NativeOptions struct {
	// Display names the X display, empty for $DISPLAY. Linux only.
	Display string
	Logger  *slog.Logger
}
