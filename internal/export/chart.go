package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Line is one named series for SaveChart.
type Line struct {
	Name string
	X, Y []float64
}

var palette = []color.RGBA{
	{R: 0x00, G: 0xcc, B: 0x44, A: 0xff},
	{R: 0xff, G: 0x88, B: 0x00, A: 0xff},
	{R: 0x33, G: 0x88, B: 0xff, A: 0xff},
	{R: 0xcc, G: 0x33, B: 0x99, A: 0xff},
}

// Chart builds a line plot with a legend entry per line.
func Chart(title, xLabel, yLabel string, lines ...Line) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	for i, l := range lines {
		n := min(len(l.X), len(l.Y))
		if n == 0 {
			return nil, fmt.Errorf("export: line %q has no points", l.Name)
		}
		pts := make(plotter.XYs, n)
		for j := range pts {
			pts[j] = plotter.XY{X: l.X[j], Y: l.Y[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("export: line %q: %w", l.Name, err)
		}
		line.Width = vg.Points(1)
		line.Color = palette[i%len(palette)]
		p.Add(line)
		p.Legend.Add(l.Name, line)
	}
	return p, nil
}

// SaveChart writes the chart to path; the extension picks the format
// (png, svg, pdf, ...).
func SaveChart(path, title, xLabel, yLabel string, lines ...Line) error {
	p, err := Chart(title, xLabel, yLabel, lines...)
	if err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}
