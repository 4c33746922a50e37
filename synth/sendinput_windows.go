//go:build windows

package synth

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"globalinput/core"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procSendInput        = user32.NewProc("SendInput")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
)

const (
	smCxScreen = 0
	smCyScreen = 1
)

type mouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
	// pads the union to the size of MOUSEINPUT
	_ [8]byte
}

type mouseINPUT struct {
	Type uint32
	Mi   mouseInput
}

type keybdINPUT struct {
	Type uint32
	Ki   keybdInput
}

func NewNative(NativeOptions) (Injector, error) {
	return sendInput{}, nil
}

type sendInput struct{}

func (sendInput) MoveAbsolute(x, y int32) error {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if w == 0 || h == 0 {
		return errors.New("GetSystemMetrics returned no screen size")
	}
	nx, ny := normalizeAbsolute(x, y, int(w), int(h))
	return sendMouse(mouseInput{Dx: nx, Dy: ny, Flags: mouseeventfMove | mouseeventfAbsolute})
}

func (sendInput) MoveRelative(dx, dy int32) error {
	return sendMouse(mouseInput{Dx: dx, Dy: dy, Flags: mouseeventfMove})
}

func (sendInput) Button(action core.MouseAction, b core.Button) error {
	return sendMouse(mouseInput{Flags: buttonFlags(action, b)})
}

func (sendInput) Scroll(delta int32) error {
	return sendMouse(mouseInput{MouseData: uint32(delta * wheelDelta), Flags: mouseeventfWheel})
}

func (sendInput) Key(code int32, down bool) error {
	if code < 0 || code > 0xFE {
		return fmt.Errorf("%w: virtual-key code %d out of range", core.ErrInvalidRequest, code)
	}
	in := keybdINPUT{Type: inputKeyboard, Ki: keybdInput{Vk: uint16(code)}}
	if !down {
		in.Ki.Flags = keyeventfKeyUp
	}
	return send(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func (sendInput) Close() error { return nil }

func sendMouse(mi mouseInput) error {
	in := mouseINPUT{Type: inputMouse, Mi: mi}
	return send(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func send(in unsafe.Pointer, size uintptr) error {
	n, _, err := procSendInput.Call(1, uintptr(in), size)
	if n != 1 {
		return fmt.Errorf("SendInput: %w", err)
	}
	return nil
}
