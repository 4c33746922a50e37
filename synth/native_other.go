//go:build !linux && !windows

package synth

import (
	"fmt"
	"runtime"

	"globalinput/core"
)

func NewNative(NativeOptions) (Injector, error) {
	return nil, fmt.Errorf("%w: no native injector for %s, use the robotgo backend", core.ErrNotAvailable, runtime.GOOS)
}
