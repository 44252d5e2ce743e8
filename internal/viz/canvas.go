// Package viz renders multibody scenes and result series as terminal
// graphics.
package viz

import (
	"strings"
)

// Braille cells pack 2x4 dots, so a WxH canvas addresses (2W)x(4H)
// dots. Dot bits relative to the U+2800 base:
//
//	1   8
//	2  10
//	4  20
//	40 80
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = 0x2800
	}
}

// Dot sets a single dot in dot coordinates.
func (c *Canvas) Dot(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row*c.Width+col] |= dotBits[y%4][x%2]
}

// Line draws a segment between two dot coordinates.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx - dy
	for {
		c.Dot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
	}
}

// Marker draws a small filled square around a dot coordinate.
func (c *Canvas) Marker(x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Dot(x+dx, y+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps a world rectangle onto the canvas dot grid with y up.
type Viewport struct {
	MinX, MaxX float64
	MinY, MaxY float64
	canvas     *Canvas
}

func NewViewport(c *Canvas, minX, maxX, minY, maxY float64) *Viewport {
	return &Viewport{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY, canvas: c}
}

func (v *Viewport) dot(x, y float64) (int, int) {
	w := float64(v.canvas.Width*2 - 1)
	h := float64(v.canvas.Height*4 - 1)
	px := (x - v.MinX) / (v.MaxX - v.MinX) * w
	py := (1 - (y-v.MinY)/(v.MaxY-v.MinY)) * h
	return int(px + 0.5), int(py + 0.5)
}

func (v *Viewport) Point(x, y float64) {
	px, py := v.dot(x, y)
	v.canvas.Dot(px, py)
}

func (v *Viewport) Segment(x0, y0, x1, y1 float64) {
	px0, py0 := v.dot(x0, y0)
	px1, py1 := v.dot(x1, y1)
	v.canvas.Line(px0, py0, px1, py1)
}

func (v *Viewport) Marker(x, y float64) {
	px, py := v.dot(x, y)
	v.canvas.Marker(px, py)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
