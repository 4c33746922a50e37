package synth

import "globalinput/core"

// winuser.h
const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800
	mouseeventfAbsolute   = 0x8000

	keyeventfKeyUp = 0x0002

	wheelDelta = 120
)

// normalizeAbsolute maps a pixel position onto the 0..65535 space that
// MOUSEEVENTF_ABSOLUTE expects for a w by h primary screen.
func normalizeAbsolute(x, y int32, w, h int) (int32, int32) {
	return normalizeAxis(x, w), normalizeAxis(y, h)
}

func normalizeAxis(v int32, size int) int32 {
	if size <= 1 {
		return 0
	}
	return int32(float64(v) * 65535.0 / float64(size-1))
}

func buttonFlags(action core.MouseAction, b core.Button) uint32 {
	down := action == core.MouseDown
	switch b {
	case core.ButtonRight:
		if down {
			return mouseeventfRightDown
		}
		return mouseeventfRightUp
	case core.ButtonMiddle:
		if down {
			return mouseeventfMiddleDown
		}
		return mouseeventfMiddleUp
	}
	if down {
		return mouseeventfLeftDown
	}
	return mouseeventfLeftUp
}
