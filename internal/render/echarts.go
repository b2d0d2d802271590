// Package render draws dashboard chart specs as interactive HTML or static
// PNG images.
package render

import (
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/wallwatch/internal/dashboard"
	"github.com/banshee-data/wallwatch/internal/units"
)

// DefaultAssetsHost serves the echarts javascript when none is configured.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// EChartsOptions control the HTML page around the chart.
type EChartsOptions struct {
	PageTitle  string
	AssetsHost string
	Height     string
}

// missing marks a gap in an echarts series.
const missing = "-"

// tooltipJS renders [date, metric, count, capacity, time] item values.
const tooltipJS = `function (p) {
	var v = p.value;
	var s = p.seriesName + '<br/>' + v[0] + ': ' + (v[1] === '-' ? 'n/a' : v[1] + SUFFIX);
	s += '<br/>count ' + v[2] + ' / capacity ' + v[3];
	if (v[4]) { s += '<br/>updated ' + v[4]; }
	return s;
}`

// EChartsHTML writes a standalone HTML page holding one line chart.
func EChartsHTML(w io.Writer, spec dashboard.ChartSpec, o EChartsOptions) error {
	if o.AssetsHost == "" {
		o.AssetsHost = DefaultAssetsHost
	}
	if o.Height == "" {
		o.Height = "800px"
	}
	if o.PageTitle == "" {
		o.PageTitle = spec.Title
	}

	metric := units.MetricCount
	if spec.UsePercent {
		metric = units.MetricPercent
	}

	dates := spec.Dates()
	x := make([]string, len(dates))
	for i, d := range dates {
		x[i] = d.String()
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.PageTitle, Width: "100%", Height: o.Height, AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Subtitle: spec.LegendTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item", Formatter: opts.FuncOpts(tooltipFormatter(metric))}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Orient: "vertical", Right: "10", Top: "middle"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: spec.XAxisTitle, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YAxisTitle, NameLocation: "middle", NameGap: 45}),
	)
	line.SetXAxis(x)

	for _, s := range spec.Series {
		data := make([]opts.LineData, 0, len(s.Points))
		for _, p := range s.Points {
			var v interface{} = missing
			if p.Metric != nil {
				v = *p.Metric
			}
			data = append(data, opts.LineData{Value: []interface{}{p.Date.String(), v, p.Count, p.Capacity, p.Time}})
		}
		line.AddSeries(s.Name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dotted", Width: 2}),
		)
	}

	return line.Render(w)
}

func tooltipFormatter(metric string) string {
	suffix := "''"
	if s := units.Suffix(metric); s != "" {
		suffix = "'" + s + "'"
	}
	return strings.ReplaceAll(tooltipJS, "SUFFIX", suffix)
}
