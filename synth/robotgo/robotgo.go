// Package robotgo is a portable injector built on go-vgo/robotgo. Key codes
// are the raw codes reported by the gohook listener.
package robotgo

import (
	"fmt"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"

	"globalinput/core"
	"globalinput/synth"
)

type Injector struct{}

var _ synth.Injector = Injector{}

func New() Injector { return Injector{} }

func (Injector) MoveAbsolute(x, y int32) error {
	robotgo.Move(int(x), int(y))
	return nil
}

func (Injector) MoveRelative(dx, dy int32) error {
	robotgo.MoveRelative(int(dx), int(dy))
	return nil
}

func (Injector) Button(action core.MouseAction, b core.Button) error {
	return robotgo.Toggle(ButtonName(b), string(action))
}

func (Injector) Key(code int32, down bool) error {
	if code < 0 || code > 0xFFFF {
		return fmt.Errorf("%w: raw key code %d out of range", core.ErrInvalidRequest, code)
	}
	name := hook.RawcodetoKeychar(uint16(code))
	if name == "" {
		return fmt.Errorf("%w: no key name for raw code %d", core.ErrInvalidRequest, code)
	}
	state := "up"
	if down {
		state = "down"
	}
	return robotgo.KeyToggle(name, state)
}

func (Injector) Scroll(delta int32) error {
	robotgo.Scroll(0, int(delta))
	return nil
}

func (Injector) Close() error { return nil }

// ButtonName is robotgo's name for b.
func ButtonName(b core.Button) string {
	switch b {
	case core.ButtonRight:
		return "right"
	case core.ButtonMiddle:
		return "center"
	}
	return "left"
}
