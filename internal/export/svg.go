package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/velcmd/internal/viz"
	"gonum.org/v1/gonum/floats"
)

// brailleBits maps a dot's (row, col) inside one cell to its pattern bit.
var brailleBits = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasToSVG renders every set dot of a Braille canvas as a circle, scale
// pixels per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}
	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=%q>\n", color)

	r := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			cell := canvas.Grid[row][col]
			if cell < 0x2800 {
				continue
			}
			pattern := int(cell - 0x2800)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&brailleBits[dy][dx] == 0 {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
				}
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG draws y against x as a polyline padded by 10% on each axis.
// It returns "" when fewer than two points are given.
func SeriesToSVG(x, y []float64, width, height int, stroke string) string {
	n := min(len(x), len(y))
	if n < 2 {
		return ""
	}
	x, y = x[:n], y[:n]

	minX, maxX := floats.Min(x), floats.Max(x)
	minY, maxY := floats.Min(y), floats.Max(y)
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=%q stroke-width=\"1.5\" d=\"", stroke)
	for i := range x {
		px := (x[i] - minX) / (maxX - minX) * float64(width)
		py := float64(height) - (y[i]-minY)/(maxY-minY)*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", px, py)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}

// WriteSeries writes SeriesToSVG output to w.
func WriteSeries(w io.Writer, x, y []float64, width, height int, stroke string) error {
	svg := SeriesToSVG(x, y, width, height, stroke)
	if svg == "" {
		return fmt.Errorf("export: need at least two samples, got %d", min(len(x), len(y)))
	}
	_, err := io.WriteString(w, svg)
	return err
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span*0.1, hi + span*0.1
}
