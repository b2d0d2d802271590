package dashboard

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SeriesSummary describes the plotted metric of one wall.
type SeriesSummary struct {
	Name   string  `json:"name"`
	Points int     `json:"points"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Max    float64 `json:"max"`
	MaxOn  string  `json:"max_on,omitempty"`
}

// Summarize computes per-series statistics over plottable points. StdDev is
// the sample standard deviation and is zero for fewer than two points.
func Summarize(spec ChartSpec) []SeriesSummary {
	out := make([]SeriesSummary, 0, len(spec.Series))
	for _, s := range spec.Series {
		sum := SeriesSummary{Name: s.Name}

		var values []float64
		var dates []string
		for _, p := range s.Points {
			if p.Metric == nil {
				continue
			}
			values = append(values, *p.Metric)
			dates = append(dates, p.Date.String())
		}

		sum.Points = len(values)
		switch len(values) {
		case 0:
		case 1:
			sum.Mean, sum.Max, sum.MaxOn = values[0], values[0], dates[0]
		default:
			sum.Mean, sum.StdDev = stat.MeanStdDev(values, nil)
			i := floats.MaxIdx(values)
			sum.Max, sum.MaxOn = values[i], dates[i]
		}
		out = append(out, sum)
	}
	return out
}
