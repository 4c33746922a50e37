// Package x11 wraps the small part of the X protocol used for pointer
// lookups and input synthesis.
package x11

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
)

// Core protocol button numbers.
const (
	ButtonLeft      byte = 1
	ButtonMiddle    byte = 2
	ButtonRight     byte = 3
	ButtonWheelUp   byte = 4
	ButtonWheelDown byte = 5
)

// WheelDelta reports the wheel step X encodes as a press of button 4 or 5.
// Positive is away from the user.
func WheelDelta(button byte) (int32, bool) {
	switch button {
	case ButtonWheelUp:
		return 1, true
	case ButtonWheelDown:
		return -1, true
	}
	return 0, false
}

var ErrNoXTest = errors.New("XTEST extension not available")

// Display is a connection to one X server. It is safe for concurrent use.
type Display struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	xtest bool
}

// Open connects to name, or to $DISPLAY when name is empty.
func Open(name string) (*Display, error) {
	conn, err := xgb.NewConnDisplay(name)
	if err != nil {
		return nil, fmt.Errorf("connect to X display %q: %w", name, err)
	}
	d := &Display{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
	}
	if err := xtest.Init(conn); err == nil {
		d.xtest = true
	}
	return d, nil
}

func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *Display) connection() (*xgb.Conn, error) {
	if d.conn == nil {
		return nil, errors.New("X display closed")
	}
	return d.conn, nil
}

// Pointer returns the pointer position relative to the root window.
func (d *Display) Pointer() (int32, int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.connection()
	if err != nil {
		return 0, 0, err
	}
	reply, err := xproto.QueryPointer(c, d.root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("query pointer: %w", err)
	}
	return int32(reply.RootX), int32(reply.RootY), nil
}

// ScreenSize returns the current root window size.
func (d *Display) ScreenSize() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.connection()
	if err != nil {
		return 0, 0, err
	}
	geom, err := xproto.GetGeometry(c, xproto.Drawable(d.root)).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("get root geometry: %w", err)
	}
	return int(geom.Width), int(geom.Height), nil
}

// Warp moves the pointer to (x, y) on the root window.
func (d *Display) Warp(x, y int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.connection()
	if err != nil {
		return err
	}
	err = xproto.WarpPointerChecked(c, xproto.WindowNone, d.root, 0, 0, 0, 0, clamp16(x), clamp16(y)).Check()
	if err != nil {
		return fmt.Errorf("warp pointer: %w", err)
	}
	return nil
}

// FakeRelativeMotion moves the pointer by (dx, dy).
func (d *Display) FakeRelativeMotion(dx, dy int32) error {
	return d.fake(xproto.MotionNotify, 1, clamp16(dx), clamp16(dy))
}

func (d *Display) FakeButton(button byte, down bool) error {
	typ := byte(xproto.ButtonRelease)
	if down {
		typ = xproto.ButtonPress
	}
	return d.fake(typ, button, 0, 0)
}

func (d *Display) FakeKey(keycode byte, down bool) error {
	typ := byte(xproto.KeyRelease)
	if down {
		typ = xproto.KeyPress
	}
	return d.fake(typ, keycode, 0, 0)
}

func (d *Display) fake(typ, detail byte, x, y int16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.connection()
	if err != nil {
		return err
	}
	if !d.xtest {
		return ErrNoXTest
	}
	err = xtest.FakeInputChecked(c, typ, detail, 0, xproto.WindowNone, x, y, 0).Check()
	if err != nil {
		return fmt.Errorf("fake input type %d detail %d: %w", typ, detail, err)
	}
	return nil
}

func clamp16(v int32) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
