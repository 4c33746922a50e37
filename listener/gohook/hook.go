// Package gohook is a portable listener source built on libuiohook. It works
// wherever robotn/gohook builds but cannot suppress native events.
package gohook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	hook "github.com/robotn/gohook"

	"globalinput/core"
	"globalinput/listener"
	"globalinput/x11"
)

// libuiohook MOUSE_BUTTON1..3 and WHEEL_HORIZONTAL_DIRECTION
const (
	buttonLeft      = 1
	buttonRight     = 2
	buttonMiddle    = 3
	wheelHorizontal = 4
)

// libuiohook runs on X11 here and passes wheel clicks through as
// buttons 4 and 5.
var xServer = runtime.GOOS != "windows" && runtime.GOOS != "darwin"

// the libuiohook hook is process wide
var active atomic.Bool

type Source struct {
	display string
	logger  *slog.Logger
	events  chan hook.Event
	wg      sync.WaitGroup
}

var _ listener.Source = (*Source)(nil)

// New returns a source. display names the X server libuiohook will use,
// empty meaning $DISPLAY; it is ignored where there is no X server.
func New(display string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{display: display, logger: logger.With("component", "gohook")}
}

func (s *Source) Name() string      { return "gohook" }
func (s *Source) CanSuppress() bool { return false }

func (s *Source) Attach(_ context.Context, dispatch listener.Dispatch) error {
	// hook.Start cannot report failure, so check the display it needs first
	if xServer {
		if err := checkDisplay(s.display); err != nil {
			return err
		}
		// libuiohook opens $DISPLAY
		if s.display != "" {
			os.Setenv("DISPLAY", s.display)
		}
	}
	if !active.CompareAndSwap(false, true) {
		return errors.New("gohook is already running in this process")
	}
	s.events = hook.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for e := range s.events {
			if ev, ok := MapEvent(e); ok {
				dispatch(ev)
			}
		}
	}()
	return nil
}

func checkDisplay(name string) error {
	d, err := x11.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrNotAvailable, err)
	}
	d.Close()
	return nil
}

func (s *Source) Detach() error {
	if s.events == nil {
		return nil
	}
	// End closes the channel, which ends the reader
	hook.End()
	s.wg.Wait()
	s.events = nil
	active.Store(false)
	return nil
}

// MapEvent converts a libuiohook event. Key codes are the raw platform codes
// libuiohook reports. Typed characters and synthesized clicks are dropped;
// press and release are reported instead.
func MapEvent(e hook.Event) (core.Event, bool) {
	return mapEvent(e, xServer)
}

func mapEvent(e hook.Event, xButtons bool) (core.Event, bool) {
	x, y := int32(e.X), int32(e.Y)
	switch e.Kind {
	case hook.KeyHold:
		return core.NewKeyEvent(int32(e.Rawcode), true), true
	case hook.KeyUp:
		return core.NewKeyEvent(int32(e.Rawcode), false), true
	case hook.MouseHold, hook.MouseDown:
		if xButtons && e.Button <= 0xff {
			if delta, ok := x11.WheelDelta(byte(e.Button)); ok {
				// one step per press, the release carries nothing
				if e.Kind == hook.MouseDown {
					return nil, false
				}
				return core.NewWheelEvent(delta), true
			}
		}
		b, ok := mapButton(e.Button)
		if !ok {
			return nil, false
		}
		// libuiohook reports a release as MouseDown
		action := core.MouseDown
		if e.Kind == hook.MouseDown {
			action = core.MouseUp
		}
		return core.NewMouseButtonEvent(action, b, x, y), true
	case hook.MouseMove, hook.MouseDrag:
		return core.NewMouseMoveEvent(x, y), true
	case hook.MouseWheel:
		if e.Direction == wheelHorizontal || e.Rotation == 0 {
			return nil, false
		}
		// libuiohook rotation is positive toward the user
		return core.NewWheelEvent(-e.Rotation), true
	}
	return nil, false
}

func mapButton(b uint16) (core.Button, bool) {
	switch b {
	case buttonLeft:
		return core.ButtonLeft, true
	case buttonRight:
		return core.ButtonRight, true
	case buttonMiddle:
		return core.ButtonMiddle, true
	}
	return "", false
}
