package viz

import (
	"math"
	"strings"

	"github.com/san-kum/velcmd/internal/spatial"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4 sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Field is a top-down view of the ground plane centred on the origin.
// Positions outside [-Extent, Extent) wrap around so agents never leave view.
type Field struct {
	*Canvas
	Extent float64
}

func NewField(w, h int, extent float64) *Field {
	return &Field{Canvas: NewCanvas(w, h), Extent: extent}
}

func (f *Field) wrap(v float64) float64 {
	span := 2 * f.Extent
	return math.Mod(math.Mod(v+f.Extent, span)+span, span) - f.Extent
}

// Project maps world x/y in meters to sub-pixel coordinates, +y up.
func (f *Field) Project(x, y float64) (int, int) {
	w, h := float64(f.Width*2), float64(f.Height*4)
	px := (f.wrap(x)/f.Extent + 1) / 2 * (w - 1)
	py := (1 - (f.wrap(y)/f.Extent+1)/2) * (h - 1)
	return int(math.Round(px)), int(math.Round(py))
}

// DrawMarker draws m as a segment from its position along its yaw, with a
// length of Scale.X meters.
func (f *Field) DrawMarker(m Marker) {
	yaw := spatial.Yaw(m.Orientation)
	x0, y0 := f.Project(m.Position.X, m.Position.Y)
	// Offset the tip in pixels so a marker near the edge is not split by wrapping.
	pxPerM := float64(f.Width*2-1) / (2 * f.Extent)
	pyPerM := float64(f.Height*4-1) / (2 * f.Extent)
	x1 := x0 + int(math.Round(m.Scale.X*math.Cos(yaw)*pxPerM))
	y1 := y0 - int(math.Round(m.Scale.X*math.Sin(yaw)*pyPerM))
	f.DrawLine(x0, y0, x1, y1)
}
