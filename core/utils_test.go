package core_test

import (
	"testing"

	"globalinput/core"

	"github.com/stretchr/testify/assert"
)

var twoDisplays = []core.DisplayInfo{
	{Id: 0, Min: core.Vec2{X: 0, Y: 0}, W: 1920, H: 1080},
	{Id: 1, Min: core.Vec2{X: 1920, Y: -200}, W: 1280, H: 1024},
}

func TestGetWorkDisplay(t *testing.T) {
	assert.Equal(t, 0, core.GetWorkDisplay(twoDisplays, 0, 0))
	assert.Equal(t, 0, core.GetWorkDisplay(twoDisplays, 1919, 1079))
	assert.Equal(t, 1, core.GetWorkDisplay(twoDisplays, 1920, -200))
	assert.Equal(t, -1, core.GetWorkDisplay(twoDisplays, 1920, 900))
	assert.Equal(t, -1, core.GetWorkDisplay(nil, 0, 0))
}

func TestVirtualBounds(t *testing.T) {
	b := core.VirtualBounds(twoDisplays)
	assert.Equal(t, core.Vec2{X: 0, Y: -200}, b.Min)
	assert.Equal(t, 3200, b.W)
	assert.Equal(t, 1280, b.H)

	assert.Equal(t, -1, core.VirtualBounds(nil).Id)
}

func TestScalePoint(t *testing.T) {
	from := core.DisplayInfo{W: 1000, H: 500}
	to := core.DisplayInfo{Min: core.Vec2{X: 100, Y: 100}, W: 2000, H: 1000}

	x, y := core.ScalePoint(500, 250, from, to)
	assert.Equal(t, int32(1100), x)
	assert.Equal(t, int32(600), y)

	x, y = core.ScalePoint(7, 8, core.DisplayInfo{}, to)
	assert.Equal(t, int32(7), x)
	assert.Equal(t, int32(8), y)
}
