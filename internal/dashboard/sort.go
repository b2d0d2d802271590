package dashboard

import (
	"sort"

	"github.com/banshee-data/wallwatch/internal/timeutil"
)

func sortDates(dates []timeutil.Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

// sortSeries orders series by name and each series' points by date.
func sortSeries(series []Series) {
	sort.SliceStable(series, func(i, j int) bool { return series[i].Name < series[j].Name })
	for _, s := range series {
		pts := s.Points
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	}
}
