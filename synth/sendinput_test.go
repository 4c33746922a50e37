package synth

import (
	"testing"

	"globalinput/core"

	"github.com/stretchr/testify/assert"
)

// SendInput maps normalized coordinates back with roughly n*w/65536.
func denormalize(n int32, size int) int32 {
	return int32(float64(n) * float64(size) / 65536.0)
}

func TestNormalizeAbsolute(t *testing.T) {
	screens := [][2]int{{1920, 1080}, {1366, 768}, {3840, 2160}, {800, 600}}
	for _, sc := range screens {
		w, h := sc[0], sc[1]
		for _, p := range [][2]int32{{0, 0}, {int32(w / 2), int32(h / 3)}, {int32(w - 1), int32(h - 1)}, {17, 5}} {
			nx, ny := normalizeAbsolute(p[0], p[1], w, h)
			assert.InDelta(t, p[0], denormalize(nx, w), 1, "x on %dx%d", w, h)
			assert.InDelta(t, p[1], denormalize(ny, h), 1, "y on %dx%d", w, h)
		}
	}

	nx, ny := normalizeAbsolute(1919, 1079, 1920, 1080)
	assert.Equal(t, int32(65535), nx)
	assert.Equal(t, int32(65535), ny)

	nx, _ = normalizeAbsolute(5, 5, 1, 1)
	assert.Equal(t, int32(0), nx)
}

func TestButtonFlags(t *testing.T) {
	assert.Equal(t, uint32(mouseeventfLeftDown), buttonFlags(core.MouseDown, core.ButtonLeft))
	assert.Equal(t, uint32(mouseeventfLeftUp), buttonFlags(core.MouseUp, core.ButtonLeft))
	assert.Equal(t, uint32(mouseeventfRightDown), buttonFlags(core.MouseDown, core.ButtonRight))
	assert.Equal(t, uint32(mouseeventfRightUp), buttonFlags(core.MouseUp, core.ButtonRight))
	assert.Equal(t, uint32(mouseeventfMiddleDown), buttonFlags(core.MouseDown, core.ButtonMiddle))
	assert.Equal(t, uint32(mouseeventfMiddleUp), buttonFlags(core.MouseUp, core.ButtonMiddle))
}

func TestClampAxis(t *testing.T) {
	assert.Equal(t, int32(0), clampAxis(-4, 100))
	assert.Equal(t, int32(99), clampAxis(100, 100))
	assert.Equal(t, int32(50), clampAxis(50, 100))
	assert.Equal(t, int32(500), clampAxis(500, 0))
}
