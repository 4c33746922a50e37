package core

import (
	"github.com/kbinani/screenshot"
)

type Vec2 struct {
	X int
	Y int
}

type DisplayInfo struct {
	Id  int  `json:"id"`
	Min Vec2 `json:"min"`
	W   int  `json:"w"`
	H   int  `json:"h"`
}

func (d DisplayInfo) Contains(x, y int) bool {
	return x >= d.Min.X && x < d.Min.X+d.W && y >= d.Min.Y && y < d.Min.Y+d.H
}

// GetScreenSizes lists the active displays in screenshot's order.
func GetScreenSizes() []DisplayInfo {
	n := screenshot.NumActiveDisplays()
	displayInfos := make([]DisplayInfo, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		displayInfos[i] = DisplayInfo{
			Id:  i,
			Min: Vec2{X: bounds.Min.X, Y: bounds.Min.Y},
			W:   bounds.Dx(),
			H:   bounds.Dy(),
		}
	}
	return displayInfos
}

// GetWorkDisplay returns the id of the display containing (x, y), or -1.
func GetWorkDisplay(displays []DisplayInfo, x, y int) int {
	for _, display := range displays {
		if display.Contains(x, y) {
			return display.Id
		}
	}
	return -1
}

// VirtualBounds is the smallest rectangle covering every display.
func VirtualBounds(displays []DisplayInfo) DisplayInfo {
	if len(displays) == 0 {
		return DisplayInfo{Id: -1}
	}
	minX, minY := displays[0].Min.X, displays[0].Min.Y
	maxX, maxY := minX+displays[0].W, minY+displays[0].H
	for _, d := range displays[1:] {
		minX = min(minX, d.Min.X)
		minY = min(minY, d.Min.Y)
		maxX = max(maxX, d.Min.X+d.W)
		maxY = max(maxY, d.Min.Y+d.H)
	}
	return DisplayInfo{Id: -1, Min: Vec2{X: minX, Y: minY}, W: maxX - minX, H: maxY - minY}
}

// ScalePoint maps a point inside from onto the same relative spot inside to.
func ScalePoint(x, y int32, from, to DisplayInfo) (int32, int32) {
	if from.W <= 0 || from.H <= 0 {
		return x, y
	}
	sx := float64(to.W) / float64(from.W)
	sy := float64(to.H) / float64(from.H)
	nx := float64(to.Min.X) + float64(int(x)-from.Min.X)*sx
	ny := float64(to.Min.Y) + float64(int(y)-from.Min.Y)*sy
	return int32(nx), int32(ny)
}
