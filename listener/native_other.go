//go:build !linux && !windows

package listener

import (
	"fmt"
	"runtime"

	"globalinput/core"
)

func NewNative(NativeOptions) (Source, error) {
	return nil, fmt.Errorf("%w: no native listener for %s, use the gohook backend", core.ErrNotAvailable, runtime.GOOS)
}
