package core

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindKey   Kind = "key"
	KindMouse Kind = "mouse"
	KindWheel Kind = "wheel"
)

type MouseAction string

const (
	MouseDown MouseAction = "down"
	MouseUp   MouseAction = "up"
	MouseMove MouseAction = "move"
)

type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// ParseButton returns the button named by s. Unknown names report false.
func ParseButton(s string) (Button, bool) {
	switch Button(s) {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return Button(s), true
	}
	return ButtonLeft, false
}

// Event is one canonical input event. The concrete type is one of
// KeyEvent, MouseButtonEvent, MouseMoveEvent or WheelEvent.
type Event interface {
	Kind() Kind
	event()
}

type KeyEvent struct {
	KeyCode int32
	IsDown  bool
}

type MouseButtonEvent struct {
	Type   MouseAction
	Button Button
	X      int32
	Y      int32
}

type MouseMoveEvent struct {
	X int32
	Y int32
}

// WheelEvent carries a normalized vertical scroll: +1 away from the user, -1 toward.
type WheelEvent struct {
	DeltaY int32
}

func NewKeyEvent(code int32, down bool) KeyEvent {
	return KeyEvent{KeyCode: code, IsDown: down}
}

func NewMouseButtonEvent(action MouseAction, b Button, x, y int32) MouseButtonEvent {
	return MouseButtonEvent{Type: action, Button: b, X: x, Y: y}
}

func NewMouseMoveEvent(x, y int32) MouseMoveEvent {
	return MouseMoveEvent{X: x, Y: y}
}

// NewWheelEvent keeps only the sign of delta. Callers drop zero deltas.
func NewWheelEvent(delta int32) WheelEvent {
	return WheelEvent{DeltaY: Sign(delta)}
}

func Sign(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func (KeyEvent) Kind() Kind         { return KindKey }
func (MouseButtonEvent) Kind() Kind { return KindMouse }
func (MouseMoveEvent) Kind() Kind   { return KindMouse }
func (WheelEvent) Kind() Kind       { return KindWheel }

func (KeyEvent) event()         {}
func (MouseButtonEvent) event() {}
func (MouseMoveEvent) event()   {}
func (WheelEvent) event()       {}

type wireEvent struct {
	Kind    Kind        `json:"kind"`
	KeyCode *int32      `json:"keyCode,omitempty"`
	IsDown  *bool       `json:"isDown,omitempty"`
	Type    MouseAction `json:"type,omitempty"`
	Button  Button      `json:"button,omitempty"`
	X       *int32      `json:"x,omitempty"`
	Y       *int32      `json:"y,omitempty"`
	DeltaY  *int32      `json:"deltaY,omitempty"`
}

func (e KeyEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{Kind: KindKey, KeyCode: &e.KeyCode, IsDown: &e.IsDown})
}

func (e MouseButtonEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{Kind: KindMouse, Type: e.Type, Button: e.Button, X: &e.X, Y: &e.Y})
}

func (e MouseMoveEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{Kind: KindMouse, Type: MouseMove, X: &e.X, Y: &e.Y})
}

func (e WheelEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{Kind: KindWheel, DeltaY: &e.DeltaY})
}

// DecodeEvent parses the JSON form written by the MarshalJSON methods.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	switch w.Kind {
	case KindKey:
		if w.KeyCode == nil || w.IsDown == nil {
			return nil, fmt.Errorf("%w: key event needs keyCode and isDown", ErrInvalidRequest)
		}
		return NewKeyEvent(*w.KeyCode, *w.IsDown), nil
	case KindMouse:
		if w.X == nil || w.Y == nil {
			return nil, fmt.Errorf("%w: mouse event needs x and y", ErrInvalidRequest)
		}
		switch w.Type {
		case MouseMove:
			return NewMouseMoveEvent(*w.X, *w.Y), nil
		case MouseDown, MouseUp:
			b, ok := ParseButton(string(w.Button))
			if !ok {
				return nil, fmt.Errorf("%w: unknown button %q", ErrInvalidRequest, w.Button)
			}
			return NewMouseButtonEvent(w.Type, b, *w.X, *w.Y), nil
		}
		return nil, fmt.Errorf("%w: unknown mouse type %q", ErrInvalidRequest, w.Type)
	case KindWheel:
		if w.DeltaY == nil {
			return nil, fmt.Errorf("%w: wheel event needs deltaY", ErrInvalidRequest)
		}
		return NewWheelEvent(*w.DeltaY), nil
	}
	return nil, fmt.Errorf("%w: unknown event kind %q", ErrInvalidRequest, w.Kind)
}

// Fields returns the event as the string-keyed map handed to event sinks.
func Fields(ev Event) map[string]any {
	switch e := ev.(type) {
	case KeyEvent:
		return map[string]any{"kind": string(KindKey), "keyCode": e.KeyCode, "isDown": e.IsDown}
	case MouseButtonEvent:
		return map[string]any{"kind": string(KindMouse), "type": string(e.Type), "button": string(e.Button), "x": e.X, "y": e.Y}
	case MouseMoveEvent:
		return map[string]any{"kind": string(KindMouse), "type": string(MouseMove), "x": e.X, "y": e.Y}
	case WheelEvent:
		return map[string]any{"kind": string(KindWheel), "deltaY": e.DeltaY}
	}
	return nil
}
