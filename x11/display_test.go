package x11

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp16(t *testing.T) {
	assert.Equal(t, int16(0), clamp16(0))
	assert.Equal(t, int16(-5), clamp16(-5))
	assert.Equal(t, int16(math.MaxInt16), clamp16(100000))
	assert.Equal(t, int16(math.MinInt16), clamp16(-100000))
}

func TestWheelDelta(t *testing.T) {
	cases := []struct {
		button byte
		delta  int32
		ok     bool
	}{
		{ButtonLeft, 0, false},
		{ButtonMiddle, 0, false},
		{ButtonRight, 0, false},
		{ButtonWheelUp, 1, true},
		{ButtonWheelDown, -1, true},
		{6, 0, false},
	}
	for _, tc := range cases {
		delta, ok := WheelDelta(tc.button)
		assert.Equal(t, tc.ok, ok, "button %d", tc.button)
		assert.Equal(t, tc.delta, delta, "button %d", tc.button)
	}
}

func TestOpenMissingDisplay(t *testing.T) {
	_, err := Open("/nonexistent/socket:97")
	assert.Error(t, err)
}

func TestClosedDisplay(t *testing.T) {
	d := &Display{}
	_, _, err := d.Pointer()
	assert.Error(t, err)
	assert.Error(t, d.Warp(1, 1))
	assert.Error(t, d.FakeKey(38, true))
	d.Close()
}
