package dashboard

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/units"
	"github.com/banshee-data/wallwatch/internal/walls"
)

// Defaults for the three dashboard inputs and the chart title.
const (
	DefaultNameFilter = "awe, liv, spider"
	DefaultDays       = 30
	DefaultSiteTitle  = "UkWalls Data"
)

// ErrInvalidDays is returned when the trailing window is shorter than a day.
var ErrInvalidDays = errors.New("days must be at least 1")

// Inputs are the user-editable dashboard controls.
type Inputs struct {
	NameFilter string `json:"names"`
	Days       int    `json:"days"`
	UsePercent bool   `json:"percent"`
}

// DefaultInputs returns the controls as they are first shown.
func DefaultInputs() Inputs {
	return Inputs{NameFilter: DefaultNameFilter, Days: DefaultDays}
}

// Point is one plotted day for one wall. Metric is nil when the value
// cannot be plotted.
type Point struct {
	Date     timeutil.Date `json:"scrape_date"`
	Metric   *float64      `json:"metric"`
	Count    int           `json:"count"`
	Capacity int           `json:"capacity"`
	Time     string        `json:"time"`
}

// Series is one wall's line.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ChartSpec is everything a renderer needs to draw the chart.
type ChartSpec struct {
	Title       string   `json:"title"`
	XAxisTitle  string   `json:"x_axis_title"`
	YAxisTitle  string   `json:"y_axis_title"`
	LegendTitle string   `json:"legend_title"`
	UsePercent  bool     `json:"use_percent"`
	Series      []Series `json:"series"`
}

// Dates returns the sorted union of dates across all series.
func (s ChartSpec) Dates() []timeutil.Date {
	seen := make(map[timeutil.Date]bool)
	var dates []timeutil.Date
	for _, ser := range s.Series {
		for _, p := range ser.Points {
			if !seen[p.Date] {
				seen[p.Date] = true
				dates = append(dates, p.Date)
			}
		}
	}
	sortDates(dates)
	return dates
}

// Pipeline renders chart specs under a fixed site title.
type Pipeline struct {
	SiteTitle string
}

// Render builds a chart from the display table with the default site title.
func Render(display walls.Table, in Inputs, today timeutil.Date) (ChartSpec, error) {
	return Pipeline{}.Render(display, in, today)
}

// Render filters display by name and by the trailing window ending on
// today, then builds one series per remaining wall. display must already be
// reduced and sorted (see Reduce). Render does not modify display.
func (p Pipeline) Render(display walls.Table, in Inputs, today timeutil.Date) (ChartSpec, error) {
	if in.Days < 1 {
		return ChartSpec{}, fmt.Errorf("%w: got %d", ErrInvalidDays, in.Days)
	}

	mode := units.MetricCount
	if in.UsePercent {
		mode = units.MetricPercent
	}
	spec := ChartSpec{
		Title:       p.title(in),
		XAxisTitle:  "Date",
		YAxisTitle:  units.AxisLabel(mode),
		LegendTitle: "Wall Name",
		UsePercent:  in.UsePercent,
		Series:      []Series{},
	}

	filter := ParseNameFilter(in.NameFilter)
	since := windowStart(today, in.Days)

	index := make(map[string]int)
	for _, r := range display.Rows {
		if !filter.Match(r.Name) || r.ScrapeDate.Before(since) {
			continue
		}
		i, ok := index[r.Name]
		if !ok {
			i = len(spec.Series)
			index[r.Name] = i
			spec.Series = append(spec.Series, Series{Name: r.Name})
		}
		spec.Series[i].Points = append(spec.Series[i].Points, Point{
			Date:     r.ScrapeDate,
			Metric:   metricOf(r, in.UsePercent),
			Count:    r.Count,
			Capacity: r.Capacity,
			Time:     r.LastUpdated,
		})
	}

	sortSeries(spec.Series)
	return spec, nil
}

// maxWindowDays bounds the trailing window so the start date cannot
// overflow. It reaches back further than any stored history.
const maxWindowDays = 1_000_000

// windowStart is the first date inside a window of days ending on today.
func windowStart(today timeutil.Date, days int) timeutil.Date {
	if days > maxWindowDays {
		days = maxWindowDays
	}
	return today.AddDays(-(days - 1))
}

func (p Pipeline) title(in Inputs) string {
	site := p.SiteTitle
	if site == "" {
		site = DefaultSiteTitle
	}
	return fmt.Sprintf("%s for walls matching [%s] in last %d days", site, in.NameFilter, in.Days)
}

func metricOf(r walls.SnapshotRow, usePercent bool) *float64 {
	if !usePercent {
		v := float64(r.Count)
		return &v
	}
	v, ok := PercentFull(r.Count, r.Capacity)
	if !ok {
		return nil
	}
	return &v
}

// PercentFull returns 100*count/capacity rounded half-to-even at two
// decimal places. ok is false when capacity is not positive.
func PercentFull(count, capacity int) (pct float64, ok bool) {
	if capacity <= 0 {
		return 0, false
	}
	v := 100 * float64(count) / float64(capacity)
	return math.RoundToEven(v*100) / 100, true
}
