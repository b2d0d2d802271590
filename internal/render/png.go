package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/wallwatch/internal/dashboard"
)

// Default PNG size.
const (
	DefaultPNGWidth  = 14 * vg.Inch
	DefaultPNGHeight = 6 * vg.Inch
)

// PNG writes the chart as a PNG image. Zero dimensions take the defaults.
// Points without a plottable metric break their line into separate segments.
func PNG(w io.Writer, spec dashboard.ChartSpec, width, height vg.Length) error {
	if width <= 0 {
		width = DefaultPNGWidth
	}
	if height <= 0 {
		height = DefaultPNGHeight
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XAxisTitle
	p.Y.Label.Text = spec.YAxisTitle
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	if len(spec.Series) > 0 {
		p.Legend.Add(spec.LegendTitle)
	}

	for i, s := range spec.Series {
		var legend []plot.Thumbnailer
		for _, seg := range segments(s) {
			line, points, err := plotter.NewLinePoints(seg)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Name, err)
			}
			line.Color = plotutil.Color(i)
			line.Width = vg.Points(1)
			line.Dashes = []vg.Length{vg.Points(2), vg.Points(3)}
			points.Color = plotutil.Color(i)
			points.Shape = plotutil.Shape(i)
			points.Radius = vg.Points(3)

			p.Add(line, points)
			if legend == nil {
				legend = []plot.Thumbnailer{line, points}
			}
		}
		if legend != nil {
			p.Legend.Add(s.Name, legend...)
		}
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// segments splits a series into runs of consecutive plottable points.
func segments(s dashboard.Series) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for _, pt := range s.Points {
		if pt.Metric == nil {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(pt.Date.Time().Unix()), Y: *pt.Metric})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
