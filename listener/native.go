package listener

import "log/slog"

// NativeOptions configure the platform source returned by NewNative.
type NativeOptions struct {
	// InputDir is scanned for evdev nodes. Linux only.
	InputDir string
	// SysDir holds the sysfs input class. Linux only.
	SysDir string
	// Display names the X display used for pointer positions. Linux only.
	Display string
	// Grab takes exclusive ownership of keyboards and forwards their
	// events through a virtual device, so blocked keys can be withheld.
	// Linux only; Windows hooks always suppress.
	Grab bool
	// UinputPath is the uinput control node used when Grab is set.
	UinputPath string
	Logger     *slog.Logger
}

func (o *NativeOptions) setDefaults() {
	if o.InputDir == "" {
		o.InputDir = "/dev/input"
	}
	if o.SysDir == "" {
		o.SysDir = "/sys/class/input"
	}
	if o.UinputPath == "" {
		o.UinputPath = "/dev/uinput"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}
