package listener

import "globalinput/core"

// winuser.h
const (
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
)

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msLLHookStruct struct {
	Pt          struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

func mapKeyboardHook(msg uintptr, k *kbdLLHookStruct) (core.Event, bool) {
	switch msg {
	case wmKeyDown, wmSysKeyDown:
		return core.NewKeyEvent(int32(k.VkCode), true), true
	case wmKeyUp, wmSysKeyUp:
		return core.NewKeyEvent(int32(k.VkCode), false), true
	}
	return nil, false
}

func mapMouseHook(msg uintptr, m *msLLHookStruct) (core.Event, bool) {
	x, y := m.Pt.X, m.Pt.Y
	switch msg {
	case wmMouseMove:
		return core.NewMouseMoveEvent(x, y), true
	case wmLButtonDown:
		return core.NewMouseButtonEvent(core.MouseDown, core.ButtonLeft, x, y), true
	case wmLButtonUp:
		return core.NewMouseButtonEvent(core.MouseUp, core.ButtonLeft, x, y), true
	case wmRButtonDown:
		return core.NewMouseButtonEvent(core.MouseDown, core.ButtonRight, x, y), true
	case wmRButtonUp:
		return core.NewMouseButtonEvent(core.MouseUp, core.ButtonRight, x, y), true
	case wmMButtonDown:
		return core.NewMouseButtonEvent(core.MouseDown, core.ButtonMiddle, x, y), true
	case wmMButtonUp:
		return core.NewMouseButtonEvent(core.MouseUp, core.ButtonMiddle, x, y), true
	case wmMouseWheel:
		// HIWORD is a signed multiple of WHEEL_DELTA
		delta := int16(m.MouseData >> 16)
		if delta == 0 {
			return nil, false
		}
		return core.NewWheelEvent(int32(delta)), true
	}
	return nil, false
}
