// Package synth injects synthetic mouse and keyboard input.
package synth

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"

	"globalinput/core"
)

// Injector performs the OS calls for one platform. Key codes are native:
// X11 keycodes on Linux, virtual-key codes on Windows.
type Injector interface {
	MoveAbsolute(x, y int32) error
	MoveRelative(dx, dy int32) error
	Button(action core.MouseAction, b core.Button) error
	Key(code int32, down bool) error
	// Scroll turns the vertical wheel by delta notches; positive is away
	// from the user.
	Scroll(delta int32) error
	Close() error
}

// InjectionError is returned when the OS rejects a synthetic event.
type InjectionError struct {
	Op  string
	Err error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("inject %s: %v", e.Op, e.Err)
}

func (e *InjectionError) Unwrap() []error {
	return []error{core.ErrInjection, e.Err}
}

type MouseRequest struct {
	Type   string `mapstructure:"type"`
	X      *int32 `mapstructure:"x"`
	Y      *int32 `mapstructure:"y"`
	DX     *int32 `mapstructure:"dx"`
	DY     *int32 `mapstructure:"dy"`
	Button string `mapstructure:"button"`
	DeltaY *int32 `mapstructure:"deltaY"`
}

type KeyRequest struct {
	KeyCode *int32 `mapstructure:"keyCode"`
	IsDown  *bool  `mapstructure:"isDown"`
}

// DecodeArgs decodes a loosely typed argument map, as produced by JSON, into out.
func DecodeArgs(args any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}
	return nil
}

type Synthesizer struct {
	inj    Injector
	logger *slog.Logger
}

func New(inj Injector, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{inj: inj, logger: logger.With("component", "synth")}
}

// Mouse performs a mouse request. A missing type means move. A move with
// both x and y is absolute, otherwise it is relative by dx, dy (default 0).
// A missing or unknown button means left.
func (s *Synthesizer) Mouse(req MouseRequest) error {
	switch core.MouseAction(req.Type) {
	case "", core.MouseMove:
		if req.X != nil && req.Y != nil {
			return s.MoveAbsolute(*req.X, *req.Y)
		}
		return s.MoveRelative(deref(req.DX), deref(req.DY))
	case core.MouseDown, core.MouseUp:
		b, ok := core.ParseButton(req.Button)
		if !ok && req.Button != "" {
			s.logger.Debug("unknown button, using left", "button", req.Button)
		}
		return s.ButtonEvent(core.MouseAction(req.Type), b)
	case "wheel":
		if req.DeltaY == nil || *req.DeltaY == 0 {
			return fmt.Errorf("%w: wheel needs a non-zero deltaY", core.ErrInvalidRequest)
		}
		return s.Scroll(*req.DeltaY)
	}
	return fmt.Errorf("%w: unknown mouse type %q", core.ErrInvalidRequest, req.Type)
}

func (s *Synthesizer) Key(req KeyRequest) error {
	if req.KeyCode == nil || req.IsDown == nil {
		return fmt.Errorf("%w: key request needs keyCode and isDown", core.ErrInvalidRequest)
	}
	return s.KeyEvent(*req.KeyCode, *req.IsDown)
}

func (s *Synthesizer) MoveAbsolute(x, y int32) error {
	return s.wrap("move absolute", s.inj.MoveAbsolute(x, y))
}

func (s *Synthesizer) MoveRelative(dx, dy int32) error {
	return s.wrap("move relative", s.inj.MoveRelative(dx, dy))
}

func (s *Synthesizer) ButtonEvent(action core.MouseAction, b core.Button) error {
	return s.wrap("button "+string(b)+" "+string(action), s.inj.Button(action, b))
}

func (s *Synthesizer) KeyEvent(code int32, down bool) error {
	return s.wrap(fmt.Sprintf("key %d", code), s.inj.Key(code, down))
}

func (s *Synthesizer) Scroll(delta int32) error {
	return s.wrap("scroll", s.inj.Scroll(delta))
}

// Replay re-injects a captured event.
func (s *Synthesizer) Replay(ev core.Event) error {
	switch e := ev.(type) {
	case core.KeyEvent:
		return s.KeyEvent(e.KeyCode, e.IsDown)
	case core.MouseMoveEvent:
		return s.MoveAbsolute(e.X, e.Y)
	case core.MouseButtonEvent:
		if err := s.MoveAbsolute(e.X, e.Y); err != nil {
			return err
		}
		return s.ButtonEvent(e.Type, e.Button)
	case core.WheelEvent:
		return s.Scroll(e.DeltaY)
	}
	return fmt.Errorf("%w: cannot replay %T", core.ErrInvalidRequest, ev)
}

func (s *Synthesizer) Close() error {
	return s.inj.Close()
}

func (s *Synthesizer) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrInvalidRequest) || errors.Is(err, core.ErrInjection) {
		return err
	}
	s.logger.Warn("injection failed", "op", op, "err", err)
	return &InjectionError{Op: op, Err: err}
}

func deref(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

// clampAxis keeps v inside a screen axis of the given size.
func clampAxis(v int32, size int) int32 {
	switch {
	case v < 0:
		return 0
	case size > 0 && int(v) >= size:
		return int32(size - 1)
	}
	return v
}
