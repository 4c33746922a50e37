//go:build linux

package listener

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// linux/uinput.h
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565

	keyMax = 0x2ff
)

const uinputName = "globalinput passthrough"

// uinputDevice is the virtual keyboard that grabbed keyboards are replayed
// through.
type uinputDevice struct {
	f  *os.File
	fd int
}

func createUinput(path string) (*uinputDevice, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	u := &uinputDevice{f: f, fd: int(f.Fd())}

	if err := u.ioctl(uiSetEvBit, evKey); err != nil {
		f.Close()
		return nil, err
	}
	if err := u.ioctl(uiSetEvBit, evSyn); err != nil {
		f.Close()
		return nil, err
	}
	for code := 1; code < keyMax; code++ {
		if code >= btnMisc && code < keyOK {
			continue
		}
		if err := u.ioctl(uiSetKeyBit, code); err != nil {
			f.Close()
			return nil, err
		}
	}
	if _, err := f.Write(encodeUinputSetup(uinputName)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write uinput setup: %w", err)
	}
	if err := u.ioctl(uiDevCreate, 0); err != nil {
		f.Close()
		return nil, err
	}
	return u, nil
}

func (u *uinputDevice) ioctl(req uint, val int) error {
	if err := unix.IoctlSetInt(u.fd, req, val); err != nil {
		return fmt.Errorf("uinput ioctl %#x: %w", req, err)
	}
	return nil
}

func (u *uinputDevice) write(ie inputEvent) error {
	_, err := u.f.Write(encodeInputEvent(ie))
	return err
}

func (u *uinputDevice) Close() error {
	return multierr.Combine(u.ioctl(uiDevDestroy, 0), u.f.Close())
}
