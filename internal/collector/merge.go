package collector

import (
	"time"

	"github.com/banshee-data/wallwatch/internal/provider"
	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

// SnapshotToRows stamps every wall in snap with the date and time of one
// capture instant. Output order follows snapshot order.
func SnapshotToRows(snap provider.Snapshot, at time.Time) []walls.SnapshotRow {
	date := timeutil.DateOf(at)
	clock := walls.ClockTimeOf(at)

	rows := make([]walls.SnapshotRow, 0, snap.Len())
	for _, e := range snap.Entries {
		rows = append(rows, walls.SnapshotRow{
			ScrapeDate:  date,
			ScrapeTime:  clock,
			Name:        e.Name,
			Capacity:    e.Info.Capacity,
			Count:       e.Info.Count,
			LastUpdated: e.Info.LastUpdated,
		})
	}
	return rows
}

// Merge appends rows to existing and drops duplicate (name, date, time)
// keys. For each key the last occurrence wins and keeps its position, so a
// re-scraped row replaces the stored one and merging the same rows twice is
// a no-op.
func Merge(existing walls.Table, rows []walls.SnapshotRow) walls.Table {
	all := make([]walls.SnapshotRow, 0, len(existing.Rows)+len(rows))
	all = append(all, existing.Rows...)
	all = append(all, rows...)

	last := make(map[walls.Key]int, len(all))
	for i, r := range all {
		last[r.Key()] = i
	}

	out := make([]walls.SnapshotRow, 0, len(last))
	for i, r := range all {
		if last[r.Key()] == i {
			out = append(out, r)
		}
	}
	return walls.Table{Rows: out}
}
