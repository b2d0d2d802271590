package dashboard

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

func row(date, clock, name string, capacity, count int) walls.SnapshotRow {
	return walls.SnapshotRow{
		ScrapeDate: timeutil.MustParseDate(date),
		ScrapeTime: walls.ClockTime(clock),
		Name:       name,
		Capacity:   capacity,
		Count:      count,
	}
}

func ptr(v float64) *float64 { return &v }

func TestReduce_DailyPeak(t *testing.T) {
	table := walls.Table{Rows: []walls.SnapshotRow{
		row("2024-01-01", "10:00:00", "awesome wall", 100, 10),
		row("2024-01-01", "12:00:00", "awesome wall", 100, 15),
		row("2024-01-02", "10:00:00", "awesome wall", 100, 5),
	}}

	got := Reduce(table)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "2024-01-01", got.Rows[0].ScrapeDate.String())
	assert.Equal(t, 15, got.Rows[0].Count)
	assert.Equal(t, "2024-01-02", got.Rows[1].ScrapeDate.String())
	assert.Equal(t, 5, got.Rows[1].Count)
}

func TestReduce_SortsByNameThenDate(t *testing.T) {
	table := walls.Table{Rows: []walls.SnapshotRow{
		row("2024-01-02", "10:00:00", "zeta", 10, 1),
		row("2024-01-01", "10:00:00", "zeta", 10, 2),
		row("2024-01-02", "10:00:00", "alpha", 10, 3),
		row("2024-01-01", "11:00:00", "alpha", 10, 4),
	}}

	got := Reduce(table)
	var keys []string
	for _, r := range got.Rows {
		keys = append(keys, r.Name+"@"+r.ScrapeDate.String())
	}
	want := []string{"alpha@2024-01-01", "alpha@2024-01-02", "zeta@2024-01-01", "zeta@2024-01-02"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, table.Rows[1].Count, "input must not be modified")
}

func TestReduce_Empty(t *testing.T) {
	assert.Equal(t, 0, Reduce(walls.Table{}).Len())
}

func TestParseNameFilter(t *testing.T) {
	tests := []struct {
		raw      string
		tokens   []string
		matchAll bool
	}{
		{"", nil, true},
		{" , ", nil, true},
		{"   ", nil, true},
		{"awe, liv", []string{"awe", "liv"}, false},
		{"AWE,,Spider ", []string{"awe", "spider"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := ParseNameFilter(tt.raw)
			if diff := cmp.Diff(tt.tokens, f.Tokens()); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
			if f.MatchAll() != tt.matchAll {
				t.Errorf("MatchAll() = %v, want %v", f.MatchAll(), tt.matchAll)
			}
		})
	}
}

func TestNameFilter_Match(t *testing.T) {
	f := ParseNameFilter("awe, liv")
	assert.True(t, f.Match("Awesome Walls"))
	assert.True(t, f.Match("liverpool"))
	assert.False(t, f.Match("other"))
	assert.True(t, ParseNameFilter("").Match("anything"))
}

func TestPercentFull(t *testing.T) {
	tests := []struct {
		count, capacity int
		want            float64
		ok              bool
	}{
		{50, 100, 50, true},
		{1, 3, 33.33, true},
		{2, 3, 66.67, true},
		{120, 100, 120, true},
		{5, 0, 0, false},
		{5, -1, 0, false},
	}
	for _, tt := range tests {
		got, ok := PercentFull(tt.count, tt.capacity)
		if ok != tt.ok || got != tt.want {
			t.Errorf("PercentFull(%d, %d) = %v, %v; want %v, %v", tt.count, tt.capacity, got, ok, tt.want, tt.ok)
		}
	}
}

func threeWalls() walls.Table {
	return Reduce(walls.Table{Rows: []walls.SnapshotRow{
		row("2024-01-10", "10:00:00", "awesome", 100, 50),
		row("2024-01-10", "10:00:00", "liverpool", 200, 20),
		row("2024-01-10", "10:00:00", "other", 50, 5),
		row("2024-01-09", "10:00:00", "awesome", 100, 40),
	}})
}

func seriesNames(spec ChartSpec) []string {
	var names []string
	for _, s := range spec.Series {
		names = append(names, s.Name)
	}
	return names
}

func TestRender_FilterByName(t *testing.T) {
	today := timeutil.MustParseDate("2024-01-10")

	spec, err := Render(threeWalls(), Inputs{NameFilter: "awe, liv", Days: 30}, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"awesome", "liverpool"}, seriesNames(spec))

	for _, raw := range []string{"", " , "} {
		spec, err := Render(threeWalls(), Inputs{NameFilter: raw, Days: 30}, today)
		require.NoError(t, err)
		assert.Equal(t, []string{"awesome", "liverpool", "other"}, seriesNames(spec), "filter %q", raw)
	}
}

func TestRender_DayWindowBoundary(t *testing.T) {
	today := timeutil.MustParseDate("2024-01-10")

	spec, err := Render(threeWalls(), Inputs{NameFilter: "awesome", Days: 1}, today)
	require.NoError(t, err)
	require.Len(t, spec.Series, 1)
	require.Len(t, spec.Series[0].Points, 1)
	assert.Equal(t, "2024-01-10", spec.Series[0].Points[0].Date.String())

	spec, err = Render(threeWalls(), Inputs{NameFilter: "awesome", Days: 2}, today)
	require.NoError(t, err)
	assert.Len(t, spec.Series[0].Points, 2)
}

func TestRender_HugeWindowKeepsAllHistory(t *testing.T) {
	today := timeutil.MustParseDate("2024-01-10")
	old := walls.Table{Rows: append(threeWalls().Rows, row("1901-06-01", "10:00:00", "other", 50, 1))}
	display := Reduce(old)

	for _, days := range []int{100000, 1 << 40, math.MaxInt} {
		spec, err := Render(display, Inputs{Days: days}, today)
		require.NoError(t, err)
		assert.Equal(t, []string{"awesome", "liverpool", "other"}, seriesNames(spec), "days=%d", days)
		assert.Len(t, spec.Series[2].Points, 2, "days=%d", days)
		assert.Equal(t, fmt.Sprintf("UkWalls Data for walls matching [] in last %d days", days), spec.Title)
	}
}

func TestRender_Metric(t *testing.T) {
	today := timeutil.MustParseDate("2024-01-10")
	display := Reduce(walls.Table{Rows: []walls.SnapshotRow{
		row("2024-01-10", "10:00:00", "awesome", 100, 50),
		row("2024-01-10", "10:00:00", "nocap", 0, 7),
	}})

	spec, err := Render(display, Inputs{Days: 1, UsePercent: true}, today)
	require.NoError(t, err)
	assert.Equal(t, "Percent Full at Peak", spec.YAxisTitle)
	assert.Equal(t, ptr(50), spec.Series[0].Points[0].Metric)
	assert.Nil(t, spec.Series[1].Points[0].Metric)
	assert.Equal(t, 7, spec.Series[1].Points[0].Count)

	spec, err = Render(display, Inputs{Days: 1}, today)
	require.NoError(t, err)
	assert.Equal(t, "Count at Peak", spec.YAxisTitle)
	assert.Equal(t, ptr(50), spec.Series[0].Points[0].Metric)
	assert.Equal(t, ptr(7), spec.Series[1].Points[0].Metric)
}

func TestRender_EndToEnd(t *testing.T) {
	historical := walls.Table{Rows: []walls.SnapshotRow{
		row("2024-01-09", "09:00:00", "wallA", 100, 10),
		row("2024-01-09", "09:00:00", "wallB", 100, 30),
		row("2024-01-09", "18:00:00", "wallA", 100, 25),
		row("2024-01-09", "18:00:00", "wallB", 100, 20),
		row("2024-01-10", "09:00:00", "wallA", 100, 12),
		row("2024-01-10", "09:00:00", "wallB", 100, 9),
		row("2024-01-10", "18:00:00", "wallA", 100, 8),
		row("2024-01-10", "18:00:00", "wallB", 100, 40),
	}}
	historical.Rows[2].LastUpdated = "2024-01-09T17:59:00"

	spec, err := Render(Reduce(historical), Inputs{NameFilter: "wallA", Days: 2}, timeutil.MustParseDate("2024-01-10"))
	require.NoError(t, err)

	want := ChartSpec{
		Title:       "UkWalls Data for walls matching [wallA] in last 2 days",
		XAxisTitle:  "Date",
		YAxisTitle:  "Count at Peak",
		LegendTitle: "Wall Name",
		Series: []Series{{
			Name: "wallA",
			Points: []Point{
				{Date: timeutil.MustParseDate("2024-01-09"), Metric: ptr(25), Count: 25, Capacity: 100},
				{Date: timeutil.MustParseDate("2024-01-10"), Metric: ptr(12), Count: 12, Capacity: 100},
			},
		}},
	}
	if diff := cmp.Diff(want, spec); diff != "" {
		t.Errorf("chart mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_InvalidDays(t *testing.T) {
	for _, days := range []int{0, -3} {
		_, err := Render(threeWalls(), Inputs{Days: days}, timeutil.MustParseDate("2024-01-10"))
		if !errors.Is(err, ErrInvalidDays) {
			t.Errorf("days=%d: expected ErrInvalidDays, got %v", days, err)
		}
	}
}

func TestRender_TitleAndPurity(t *testing.T) {
	display := threeWalls()
	before := walls.NewTable(display.Rows)
	in := Inputs{NameFilter: " Awe ,x", Days: 7, UsePercent: true}
	today := timeutil.MustParseDate("2024-01-10")

	p := Pipeline{SiteTitle: "Leeds Walls"}
	a, err := p.Render(display, in, today)
	require.NoError(t, err)
	b, err := p.Render(display, in, today)
	require.NoError(t, err)

	assert.Equal(t, "Leeds Walls for walls matching [ Awe ,x] in last 7 days", a.Title)
	assert.Equal(t, a, b)
	assert.Equal(t, before, display)
}

func TestChartSpec_Dates(t *testing.T) {
	spec, err := Render(threeWalls(), Inputs{Days: 5}, timeutil.MustParseDate("2024-01-10"))
	require.NoError(t, err)
	got := spec.Dates()
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-09", got[0].String())
	assert.Equal(t, "2024-01-10", got[1].String())
}

func TestSummarize(t *testing.T) {
	spec := ChartSpec{Series: []Series{
		{Name: "a", Points: []Point{
			{Date: timeutil.MustParseDate("2024-01-01"), Metric: ptr(2)},
			{Date: timeutil.MustParseDate("2024-01-02"), Metric: ptr(4)},
			{Date: timeutil.MustParseDate("2024-01-03"), Metric: nil},
			{Date: timeutil.MustParseDate("2024-01-04"), Metric: ptr(6)},
		}},
		{Name: "b", Points: []Point{{Date: timeutil.MustParseDate("2024-01-01"), Metric: ptr(9)}}},
		{Name: "c"},
	}}

	want := []SeriesSummary{
		{Name: "a", Points: 3, Mean: 4, StdDev: 2, Max: 6, MaxOn: "2024-01-04"},
		{Name: "b", Points: 1, Mean: 9, Max: 9, MaxOn: "2024-01-01"},
		{Name: "c"},
	}
	if diff := cmp.Diff(want, Summarize(spec)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}
