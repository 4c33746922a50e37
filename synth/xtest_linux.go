//go:build linux

package synth

import (
	"fmt"
	"log/slog"
	"sync"

	"globalinput/core"
	"globalinput/x11"
)

func NewNative(opts NativeOptions) (Injector, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &xtestInjector{name: opts.Display, logger: opts.Logger}, nil
}

// xtestInjector connects on first use and reconnects after a failed request.
type xtestInjector struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	display *x11.Display
}

func (i *xtestInjector) do(fn func(d *x11.Display) error) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.display == nil {
		d, err := x11.Open(i.name)
		if err != nil {
			return err
		}
		i.display = d
	}
	if err := fn(i.display); err != nil {
		i.display.Close()
		i.display = nil
		return err
	}
	return nil
}

// MoveAbsolute warps within the root window as it is sized right now.
func (i *xtestInjector) MoveAbsolute(x, y int32) error {
	return i.do(func(d *x11.Display) error {
		w, h, err := d.ScreenSize()
		if err != nil {
			return err
		}
		return d.Warp(clampAxis(x, w), clampAxis(y, h))
	})
}

func (i *xtestInjector) MoveRelative(dx, dy int32) error {
	return i.do(func(d *x11.Display) error {
		return d.FakeRelativeMotion(dx, dy)
	})
}

func (i *xtestInjector) Button(action core.MouseAction, b core.Button) error {
	button := x11.ButtonLeft
	switch b {
	case core.ButtonRight:
		button = x11.ButtonRight
	case core.ButtonMiddle:
		button = x11.ButtonMiddle
	}
	return i.do(func(d *x11.Display) error {
		return d.FakeButton(button, action == core.MouseDown)
	})
}

func (i *xtestInjector) Key(code int32, down bool) error {
	if code < 8 || code > 255 {
		return fmt.Errorf("%w: X keycode %d out of range", core.ErrInvalidRequest, code)
	}
	return i.do(func(d *x11.Display) error {
		return d.FakeKey(byte(code), down)
	})
}

// Scroll clicks wheel button 4 or 5 once per notch.
func (i *xtestInjector) Scroll(delta int32) error {
	button := x11.ButtonWheelUp
	if delta < 0 {
		button = x11.ButtonWheelDown
		delta = -delta
	}
	return i.do(func(d *x11.Display) error {
		for n := int32(0); n < delta; n++ {
			if err := d.FakeButton(button, true); err != nil {
				return err
			}
			if err := d.FakeButton(button, false); err != nil {
				return err
			}
		}
		return nil
	})
}

func (i *xtestInjector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.display != nil {
		i.display.Close()
		i.display = nil
	}
	return nil
}
