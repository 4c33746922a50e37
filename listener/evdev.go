package listener

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"globalinput/core"
)

// linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
	evRep = 0x14

	synReport = 0x00

	relX     = 0x00
	relY     = 0x01
	relWheel = 0x08

	absX = 0x00
	absY = 0x01

	btnMisc   = 0x100
	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
	keyOK     = 0x160

	// X11 keycodes are evdev codes shifted by 8.
	x11KeycodeOffset = 8
)

// timeval followed by type, code and value.
var inputEventSize = int(unsafe.Sizeof(timeval{})) + 8

type timeval struct {
	Sec  int
	Usec int
}

type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func parseInputEvent(buf []byte) inputEvent {
	off := len(buf) - 8
	return inputEvent{
		Type:  binary.LittleEndian.Uint16(buf[off:]),
		Code:  binary.LittleEndian.Uint16(buf[off+2:]),
		Value: int32(binary.LittleEndian.Uint32(buf[off+4:])),
	}
}

// PointerLocator reports the absolute pointer position. evdev only carries
// relative motion, so positions are looked up when they are needed.
type PointerLocator interface {
	Pointer() (x, y int32, err error)
}

// evdevMapper converts the event stream of one device. Motion is coalesced
// per SYN_REPORT frame into a single move event.
type evdevMapper struct {
	pointer PointerLocator
	moved   bool
}

func (m *evdevMapper) Map(ie inputEvent) (core.Event, bool) {
	switch ie.Type {
	case evKey:
		return m.mapKey(ie)
	case evRel:
		switch ie.Code {
		case relX, relY:
			m.moved = true
		case relWheel:
			if ie.Value == 0 {
				return nil, false
			}
			return core.NewWheelEvent(ie.Value), true
		}
	case evAbs:
		if ie.Code == absX || ie.Code == absY {
			m.moved = true
		}
	case evSyn:
		if ie.Code == synReport && m.moved {
			m.moved = false
			x, y, err := m.pointer.Pointer()
			if err != nil {
				return nil, false
			}
			return core.NewMouseMoveEvent(x, y), true
		}
	}
	return nil, false
}

func (m *evdevMapper) mapKey(ie inputEvent) (core.Event, bool) {
	var b core.Button
	switch {
	case ie.Code == btnLeft:
		b = core.ButtonLeft
	case ie.Code == btnRight:
		b = core.ButtonRight
	case ie.Code == btnMiddle:
		b = core.ButtonMiddle
	case ie.Code >= btnMisc && ie.Code < keyOK:
		// side buttons, joystick and touch tools
		return nil, false
	default:
		// 1 press, 2 autorepeat, 0 release
		return core.NewKeyEvent(int32(ie.Code)+x11KeycodeOffset, ie.Value != 0), true
	}
	if ie.Value == 2 {
		return nil, false
	}
	x, y, err := m.pointer.Pointer()
	if err != nil {
		return nil, false
	}
	action := core.MouseUp
	if ie.Value == 1 {
		action = core.MouseDown
	}
	return core.NewMouseButtonEvent(action, b, x, y), true
}

func encodeInputEvent(ie inputEvent) []byte {
	buf := make([]byte, inputEventSize)
	off := inputEventSize - 8
	binary.LittleEndian.PutUint16(buf[off:], ie.Type)
	binary.LittleEndian.PutUint16(buf[off+2:], ie.Code)
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(ie.Value))
	return buf
}

const busVirtual = 0x06

// struct uinput_user_dev
type uinputUserDev struct {
	Name [80]byte
	ID   struct {
		Bustype uint16
		Vendor  uint16
		Product uint16
		Version uint16
	}
	FFEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

func encodeUinputSetup(name string) []byte {
	var dev uinputUserDev
	copy(dev.Name[:len(dev.Name)-1], name)
	dev.ID.Bustype = busVirtual
	dev.ID.Version = 1
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, &dev)
	return buf.Bytes()
}

// deviceInfo is what sysfs says about one /dev/input/eventN node.
type deviceInfo struct {
	Name string
	// EV bitmap from capabilities/ev
	EV uint64
}

// IsKeyboard is true for devices that autorepeat and do not move a pointer.
func (d deviceInfo) IsKeyboard() bool {
	return d.EV&(1<<evRep) != 0 && d.EV&(1<<evRel) == 0
}

func readDeviceInfo(sysDir, node string) (deviceInfo, error) {
	base := filepath.Join(sysDir, filepath.Base(node), "device")
	name, err := os.ReadFile(filepath.Join(base, "name"))
	if err != nil {
		return deviceInfo{}, err
	}
	caps, err := os.ReadFile(filepath.Join(base, "capabilities", "ev"))
	if err != nil {
		return deviceInfo{}, err
	}
	ev, err := parseCapabilities(string(caps))
	if err != nil {
		return deviceInfo{}, err
	}
	return deviceInfo{Name: strings.TrimSpace(string(name)), EV: ev}, nil
}

// parseCapabilities decodes the low 64 bits of a sysfs capability bitmap.
// Wide bitmaps are space separated words, most significant first.
func parseCapabilities(s string) (uint64, error) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return 0, nil
	}
	return strconv.ParseUint(words[len(words)-1], 16, 64)
}

func isEventNode(name string) bool {
	rest, ok := strings.CutPrefix(filepath.Base(name), "event")
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}
