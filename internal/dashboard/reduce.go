// Package dashboard turns the historical table into chart data: it reduces
// rows to daily peaks and applies the user's filter inputs.
package dashboard

import (
	"sort"

	"github.com/banshee-data/wallwatch/internal/walls"
)

// Reduce collapses the historical table to one row per (name, date). The
// surviving row is the first of its group and carries the group's peak
// count. Output is sorted by name, then date.
func Reduce(t walls.Table) walls.Table {
	peak := make(map[walls.DayKey]int)
	for _, r := range t.Rows {
		k := r.DayKey()
		if c, ok := peak[k]; !ok || r.Count > c {
			peak[k] = r.Count
		}
	}

	out := make([]walls.SnapshotRow, 0, len(peak))
	seen := make(map[walls.DayKey]bool, len(peak))
	for _, r := range t.Rows {
		k := r.DayKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		r.Count = peak[k]
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ScrapeDate.Before(out[j].ScrapeDate)
	})
	return walls.Table{Rows: out}
}
